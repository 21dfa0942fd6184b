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

// Package explain turns a query result into a short natural-language
// answer with a second, independent model call.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"

	"github.com/teradata-labs/quill/pkg/executor"
	"github.com/teradata-labs/quill/pkg/types"
)

const (
	// DefaultSampleRows caps the result rows shown to the model.
	DefaultSampleRows = 20

	// DefaultMaxCellLen truncates long cell values in the sample.
	DefaultMaxCellLen = 120

	// DefaultMaxTokens bounds the explanation length.
	DefaultMaxTokens = 512
)

// Explainer produces explanations. Failures are non-fatal to the run: the
// caller still has the SQL and the result.
type Explainer struct {
	provider   types.Provider
	sampleRows int
	maxCellLen int
	maxTokens  int
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithSampleRows caps the result rows included in the prompt.
func WithSampleRows(n int) Option {
	return func(e *Explainer) {
		if n > 0 {
			e.sampleRows = n
		}
	}
}

// WithMaxTokens bounds the explanation completion.
func WithMaxTokens(n int) Option {
	return func(e *Explainer) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// New creates an Explainer backed by the given provider.
func New(provider types.Provider, opts ...Option) *Explainer {
	e := &Explainer{
		provider:   provider,
		sampleRows: DefaultSampleRows,
		maxCellLen: DefaultMaxCellLen,
		maxTokens:  DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain produces an answer to the question grounded in the executed SQL
// and a bounded sample of the result. Provider failures are reported as
// ExplanationFailed; cancellation keeps its own kind.
func (e *Explainer) Explain(ctx context.Context, question, sqlText string, result *executor.Result) (string, error) {
	if result == nil {
		return "", types.NewError(types.KindExplanationFailed, "nil result")
	}

	text, err := e.provider.Complete(ctx, types.CompletionRequest{
		Prompt:    e.renderPrompt(question, sqlText, result),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", types.WrapKind(types.KindCancelled, err)
		}
		return "", types.WrapKind(types.KindExplanationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", types.NewError(types.KindExplanationFailed, "empty explanation")
	}
	return text, nil
}

// renderPrompt assembles the explanation prompt. Only a bounded sample of
// rows is included, never the full result set.
func (e *Explainer) renderPrompt(question, sqlText string, result *executor.Result) string {
	var b strings.Builder

	b.WriteString(heredoc.Doc(`
		Answer the user's question using only the query result below.
		Reply in one or two plain sentences. Do not restate the SQL.
	`))

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	fmt.Fprintf(&b, "\nExecuted SQL:\n%s\n", sqlText)
	fmt.Fprintf(&b, "\nColumns: %s\n", strings.Join(result.Columns, ", "))

	shown := len(result.Rows)
	if shown > e.sampleRows {
		shown = e.sampleRows
	}
	fmt.Fprintf(&b, "Rows returned: %d", len(result.Rows))
	if result.Truncated {
		b.WriteString(" (truncated by the row limit)")
	}
	b.WriteString("\n")

	if shown > 0 {
		fmt.Fprintf(&b, "\nFirst %d rows:\n", shown)
		for _, row := range result.Rows[:shown] {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = e.renderCell(v)
			}
			fmt.Fprintf(&b, "  (%s)\n", strings.Join(cells, ", "))
		}
	}
	if len(result.Rows) > shown {
		fmt.Fprintf(&b, "  ... %d more rows not shown\n", len(result.Rows)-shown)
	}
	return b.String()
}

func (e *Explainer) renderCell(v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprintf("%v", val)
	}
	if len(s) > e.maxCellLen {
		s = s[:e.maxCellLen] + "..."
	}
	return s
}
