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

// Package factory creates completion providers by name.
package factory

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teradata-labs/quill/pkg/llm/anthropic"
	"github.com/teradata-labs/quill/pkg/llm/bedrock"
	"github.com/teradata-labs/quill/pkg/llm/ollama"
	"github.com/teradata-labs/quill/pkg/types"
)

// Config holds configuration for creating providers.
type Config struct {
	// Provider selects the backend: anthropic, bedrock, or ollama.
	Provider string

	// Model overrides the provider's default model.
	Model string

	// Anthropic configuration
	AnthropicAPIKey string

	// Bedrock configuration
	BedrockRegion          string
	BedrockAccessKeyID     string
	BedrockSecretAccessKey string
	BedrockSessionToken    string
	BedrockProfile         string

	// Ollama configuration
	OllamaEndpoint string

	// Common settings
	Timeout time.Duration
}

// NewProvider creates a provider from the configuration. The API key for
// anthropic falls back to ANTHROPIC_API_KEY when unset.
func NewProvider(cfg Config) (types.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "":
		apiKey := cfg.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key (set ANTHROPIC_API_KEY)")
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:  apiKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil

	case "bedrock":
		return bedrock.NewClient(bedrock.Config{
			ModelID:         cfg.Model,
			Region:          cfg.BedrockRegion,
			AccessKeyID:     cfg.BedrockAccessKeyID,
			SecretAccessKey: cfg.BedrockSecretAccessKey,
			SessionToken:    cfg.BedrockSessionToken,
			Profile:         cfg.BedrockProfile,
		})

	case "ollama":
		return ollama.NewClient(ollama.Config{
			Endpoint: cfg.OllamaEndpoint,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, bedrock, ollama)", cfg.Provider)
	}
}
