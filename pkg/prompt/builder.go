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

// Package prompt renders deterministic generation prompts from a schema
// snapshot, a user question, and optional feedback from a failed attempt.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/sahilm/fuzzy"

	"github.com/teradata-labs/quill/pkg/schema"
	"github.com/teradata-labs/quill/pkg/types"
)

const (
	// DefaultMaxPromptTokens bounds the rendered prompt size.
	DefaultMaxPromptTokens = 8000

	// DefaultSampleRowLimit caps sample rows rendered per table.
	DefaultSampleRowLimit = 3
)

// Builder renders prompts. The zero value uses the defaults above.
// Identical inputs always produce identical text.
type Builder struct {
	MaxPromptTokens int
	SampleRowLimit  int
}

// Prompt is a rendered prompt and its token count.
type Prompt struct {
	Text   string
	Tokens int
}

// RetryContext carries the failing SQL and its error into the next
// generation attempt.
type RetryContext struct {
	SQL    string
	Kind   types.ErrorKind
	Detail string
}

// Build renders the generation prompt. When the full schema exceeds the
// token budget, tables are ranked by fuzzy relevance to the question and
// the lowest-ranked whole tables are dropped behind an explicit omission
// marker. The question and instructions are never truncated.
func (b Builder) Build(desc *schema.Descriptor, question string, prior *RetryContext) (Prompt, error) {
	if desc == nil {
		return Prompt{}, fmt.Errorf("build prompt: nil schema descriptor")
	}
	if strings.TrimSpace(question) == "" {
		return Prompt{}, fmt.Errorf("build prompt: empty question")
	}

	maxTokens := b.MaxPromptTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxPromptTokens
	}
	rowLimit := b.SampleRowLimit
	if rowLimit <= 0 {
		rowLimit = DefaultSampleRowLimit
	}

	rendered := make([]string, len(desc.Tables))
	for i := range desc.Tables {
		rendered[i] = renderTable(&desc.Tables[i], rowLimit)
	}

	tc := GetTokenCounter()
	text := assemble(desc.Dialect, rendered, nil, question, prior)
	tokens := tc.CountTokens(text)
	if tokens <= maxTokens {
		return Prompt{Text: text, Tokens: tokens}, nil
	}

	keep, omitted := b.selectTables(desc, rendered, question, maxTokens, prior, tc)
	text = assemble(desc.Dialect, keep, omitted, question, prior)
	return Prompt{Text: text, Tokens: tc.CountTokens(text)}, nil
}

// selectTables greedily keeps the most question-relevant whole tables that
// fit the budget, preserving schema order in the output. At least one
// table is always kept.
func (b Builder) selectTables(desc *schema.Descriptor, rendered []string, question string, maxTokens int, prior *RetryContext, tc *TokenCounter) (keep []string, omitted []string) {
	ranked := rankTables(desc, question)

	base := assemble(desc.Dialect, nil, desc.TableNames(), question, prior)
	budget := maxTokens - tc.CountTokens(base)

	kept := map[int]bool{}
	used := 0
	for _, idx := range ranked {
		cost := tc.CountTokens(rendered[idx])
		if used+cost > budget && len(kept) > 0 {
			continue
		}
		kept[idx] = true
		used += cost
	}

	for i := range desc.Tables {
		if kept[i] {
			keep = append(keep, rendered[i])
		} else {
			omitted = append(omitted, desc.Tables[i].Name)
		}
	}
	return keep, omitted
}

// rankTables orders table indices by fuzzy overlap between the question's
// words and each table's name plus column names. Ties keep schema order.
func rankTables(desc *schema.Descriptor, question string) []int {
	haystacks := make([]string, len(desc.Tables))
	for i, t := range desc.Tables {
		parts := []string{t.Name}
		for _, c := range t.Columns {
			parts = append(parts, c.Name)
		}
		haystacks[i] = strings.Join(parts, " ")
	}

	scores := make([]int, len(desc.Tables))
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,;:?!'\"")
		if len(word) < 3 {
			continue
		}
		for _, m := range fuzzy.Find(word, haystacks) {
			scores[m.Index] += m.Score + 1
		}
	}

	order := make([]int, len(desc.Tables))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// renderTable renders one table with its sample rows capped.
func renderTable(t *schema.Table, rowLimit int) string {
	if len(t.SampleRows) <= rowLimit {
		return t.Render()
	}
	capped := schema.Table{
		Name:       t.Name,
		Columns:    t.Columns,
		SampleRows: t.SampleRows[:rowLimit],
	}
	return capped.Render()
}

func assemble(dialect schema.Dialect, tables []string, omitted []string, question string, prior *RetryContext) string {
	var b strings.Builder

	b.WriteString(heredoc.Docf(`
		You are an expert %s analyst. Write one SQL query that answers the
		user's question against the schema below.

		Rules:
		- Respond with a single fenced code block tagged sql.
		- Emit exactly one read-only statement. Never modify data.
		- Use only tables and columns that appear in the schema.
	`, dialectName(dialect)))

	b.WriteString("\nSchema:\n\n")
	for _, t := range tables {
		b.WriteString(t)
		b.WriteString("\n")
	}
	if len(omitted) > 0 {
		fmt.Fprintf(&b, "-- %d tables omitted for space: %s\n", len(omitted), strings.Join(omitted, ", "))
	}

	if prior != nil {
		b.WriteString("\n")
		b.WriteString(heredoc.Docf(`
			Your previous attempt failed. Do not repeat the same mistake.

			Previous SQL:
			%s

			Error (%s): %s
		`, prior.SQL, string(prior.Kind), prior.Detail))
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

func dialectName(d schema.Dialect) string {
	switch d {
	case schema.DialectPostgres:
		return "PostgreSQL"
	case schema.DialectMySQL:
		return "MySQL"
	default:
		return "SQLite"
	}
}
