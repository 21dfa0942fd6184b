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

// Package generate turns a prompt into a candidate SQL statement through a
// single model completion.
package generate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/teradata-labs/quill/internal/log"
	"github.com/teradata-labs/quill/pkg/types"
)

const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.0
)

// Candidate is one generation attempt: the raw model output and the SQL
// extracted from it. SQL is empty when no statement could be found; that
// is a NoQueryFound condition, not a generator error.
type Candidate struct {
	RawText string
	SQL     string
}

// Generator produces candidates. One Generate call makes exactly one
// provider call; retries belong to the orchestrator.
type Generator struct {
	provider    types.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithLogger overrides the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator backed by the given provider.
func New(provider types.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      log.Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate requests one completion and extracts the candidate SQL.
// Provider failures are reported as GenerationUnavailable; cancellation
// keeps its own kind.
func (g *Generator) Generate(ctx context.Context, promptText string) (*Candidate, error) {
	raw, err := g.provider.Complete(ctx, types.CompletionRequest{
		Prompt:      promptText,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, types.WrapKind(types.KindCancelled, err)
		}
		return nil, types.WrapKind(types.KindGenerationUnavailable, err)
	}

	sql := ExtractSQL(raw)
	g.logger.Debug("generated candidate",
		zap.String("provider", g.provider.Name()),
		zap.String("model", g.provider.Model()),
		zap.Int("raw_len", len(raw)),
		zap.Bool("sql_found", sql != ""))

	return &Candidate{RawText: raw, SQL: sql}, nil
}
