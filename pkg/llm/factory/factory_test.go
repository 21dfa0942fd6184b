// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderAnthropic(t *testing.T) {
	p, err := NewProvider(Config{Provider: "anthropic", AnthropicAPIKey: "key", Model: "claude-test"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
	assert.Equal(t, "claude-test", p.Model())
}

func TestNewProviderAnthropicRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewProvider(Config{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestNewProviderOllama(t *testing.T) {
	p, err := NewProvider(Config{Provider: "ollama", Model: "qwen2.5-coder"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "qwen2.5-coder", p.Model())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
