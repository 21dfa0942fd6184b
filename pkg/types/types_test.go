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
package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := WrapKind(KindConnectionError, cause)

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection_error")
	assert.Contains(t, err.Error(), "socket closed")
}

func TestWrapKindNil(t *testing.T) {
	assert.Nil(t, WrapKind(KindExecutionError, nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"agent error", NewError(KindUnknownIdentifier, "no such table: %s", "orders"), KindUnknownIdentifier},
		{"wrapped agent error", fmt.Errorf("attempt 2: %w", NewError(KindNoQueryFound, "empty response")), KindNoQueryFound},
		{"context canceled", context.Canceled, KindCancelled},
		{"deadline exceeded", context.DeadlineExceeded, KindExecutionTimeout},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), KindExecutionTimeout},
		{"unclassified", errors.New("driver: bad connection"), KindExecutionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
