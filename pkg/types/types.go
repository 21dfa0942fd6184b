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

// Package types contains shared types used across the quill pipeline.
// This package breaks import cycles by providing the completion capability
// interface and the error taxonomy that every stage depends on.
package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the pipeline can produce.
// Kinds drive the orchestrator's retry policy: generation and validation
// kinds loop back to generation, execution kinds are retried once as
// transient, connection failures during introspection are fatal.
type ErrorKind string

const (
	// KindNoQueryFound means the model's response contained no parseable SQL statement.
	KindNoQueryFound ErrorKind = "no_query_found"

	// KindDisallowedStatement means the statement type is outside the policy whitelist.
	KindDisallowedStatement ErrorKind = "disallowed_statement"

	// KindWriteNotPermitted means a write or DDL verb was found while writes are disabled.
	KindWriteNotPermitted ErrorKind = "write_not_permitted"

	// KindUnknownIdentifier means the query references a table or column absent from the schema.
	KindUnknownIdentifier ErrorKind = "unknown_identifier"

	// KindMultipleStatements means more than one statement was supplied (injection guard).
	KindMultipleStatements ErrorKind = "multiple_statements"

	// KindExecutionTimeout means the query exceeded the configured execution bound.
	KindExecutionTimeout ErrorKind = "execution_timeout"

	// KindExecutionError means the driver rejected or failed the query at runtime.
	KindExecutionError ErrorKind = "execution_error"

	// KindGenerationUnavailable means the completion capability itself failed.
	KindGenerationUnavailable ErrorKind = "generation_unavailable"

	// KindExplanationFailed means the result explanation call failed.
	// Non-fatal: the query result is still valid without it.
	KindExplanationFailed ErrorKind = "explanation_failed"

	// KindCancelled means the caller cancelled the run.
	KindCancelled ErrorKind = "cancelled"

	// KindConnectionError means the database connection could not serve metadata.
	KindConnectionError ErrorKind = "connection_error"
)

// KindNone is the zero ErrorKind, used when a result carries no error.
const KindNone ErrorKind = ""

// AgentError is a classified pipeline error. It carries the kind for retry
// policy decisions and the offending SQL (when any) for diagnosis.
type AgentError struct {
	Kind ErrorKind
	SQL  string
	Err  error
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap supports errors.Is/errors.As chains.
func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewError creates a classified error without an underlying cause.
func NewError(kind ErrorKind, format string, args ...interface{}) *AgentError {
	return &AgentError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapKind wraps an underlying error with a kind. Returns nil if err is nil.
func WrapKind(kind ErrorKind, err error) *AgentError {
	if err == nil {
		return nil
	}
	return &AgentError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from an error chain.
// Plain context errors map to Cancelled/ExecutionTimeout so callers can
// classify raw ctx.Err() values without wrapping them first.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindExecutionTimeout
	}
	return KindExecutionError
}

// CompletionRequest is a single prompt sent to the completion capability.
type CompletionRequest struct {
	// Prompt is the full prompt text.
	Prompt string

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// Provider is the narrow completion capability the pipeline consumes.
// The language model is treated as a black-box text-completion service so
// everything in front of this interface stays deterministic and testable
// with stand-ins.
type Provider interface {
	// Complete sends a prompt and returns the raw completion text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name (e.g. "anthropic", "ollama").
	Name() string

	// Model returns the model identifier.
	Model() string
}
