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
package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/quill/pkg/agent"
	"github.com/teradata-labs/quill/pkg/executor"
	"github.com/teradata-labs/quill/pkg/llm/factory"
	"github.com/teradata-labs/quill/pkg/prompt"
	"github.com/teradata-labs/quill/pkg/sqlcheck"
	"github.com/teradata-labs/quill/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask \"<question>\"",
	Short: "Answer a natural-language question with a SQL query",
	Long: heredoc.Doc(`
		Ask a plain-language question against the configured database.
		Quill generates a query, validates it against a read-only sandbox,
		executes it with row and time bounds, and explains the result.
	`),
	Example: heredoc.Doc(`
		quill ask --dsn chinook.db "which composer wrote the most tracks?"
		quill ask --driver postgres --dsn "postgres://localhost/shop?sslmode=disable" "total revenue by month"
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	if config.Database.DSN == "" {
		return fmt.Errorf("no database configured (set --dsn)")
	}
	dialect, err := dialectFor(config.Database.Driver)
	if err != nil {
		return err
	}

	db, err := sql.Open(config.Database.Driver, config.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := factory.NewProvider(factory.Config{
		Provider:        config.LLM.Provider,
		Model:           config.LLM.Model,
		AnthropicAPIKey: config.LLM.AnthropicAPIKey,
		BedrockRegion:   config.LLM.BedrockRegion,
		BedrockProfile:  config.LLM.BedrockProfile,
		OllamaEndpoint:  config.LLM.OllamaEndpoint,
		Timeout:         config.llmTimeout(),
	})
	if err != nil {
		return err
	}

	policy := sqlcheck.DefaultPolicy()
	policy.AllowWrite = config.Sandbox.AllowWrite
	policy.MaxJoins = config.Sandbox.MaxJoins
	if policy.AllowWrite {
		policy.AllowedStatements = []sqlcheck.StatementType{
			sqlcheck.StmtSelect, sqlcheck.StmtWith, sqlcheck.StmtInsert,
			sqlcheck.StmtUpdate, sqlcheck.StmtDelete, sqlcheck.StmtCreate,
			sqlcheck.StmtDrop, sqlcheck.StmtAlter,
		}
	}

	a, err := agent.New(agent.Config{
		Provider:    provider,
		DB:          db,
		Dialect:     dialect,
		MaxAttempts: config.Agent.MaxAttempts,
		Limits: executor.Limits{
			MaxRows: config.Executor.MaxRows,
			Timeout: config.executorTimeout(),
		},
		Policy: policy,
		Builder: prompt.Builder{
			MaxPromptTokens: config.Agent.MaxPromptTokens,
			SampleRowLimit:  config.Agent.SampleRows,
		},
		SampleRows:  config.Agent.SampleRows,
		Temperature: config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := a.Run(ctx, question)
	if err != nil {
		if res != nil && res.SQL != "" {
			fmt.Fprintf(os.Stderr, "Last attempted SQL:\n  %s\n", res.SQL)
		}
		return fmt.Errorf("run failed after %d attempts (%s): %w",
			res.Attempts, res.FinalError, err)
	}

	fmt.Printf("SQL:\n  %s\n\n", strings.ReplaceAll(res.SQL, "\n", "\n  "))
	printResult(res.Result)
	fmt.Printf("\n%s\n", res.Explanation)
	if res.FinalError == types.KindExplanationFailed {
		fmt.Fprintln(os.Stderr, "note: explanation model call failed, showing row summary")
	}
	return nil
}

// printResult renders a small fixed-width table.
func printResult(res *executor.Result) {
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len(c)
	}
	rendered := make([][]string, len(res.Rows))
	for ri, row := range res.Rows {
		cells := make([]string, len(row))
		for ci, v := range row {
			cells[ci] = renderCell(v)
			if ci < len(widths) && len(cells[ci]) > widths[ci] {
				widths[ci] = len(cells[ci])
			}
		}
		rendered[ri] = cells
	}

	var header strings.Builder
	for i, c := range res.Columns {
		fmt.Fprintf(&header, "%-*s  ", widths[i], c)
	}
	fmt.Println(strings.TrimRight(header.String(), " "))
	fmt.Println(strings.Repeat("-", len(strings.TrimRight(header.String(), " "))))

	for _, cells := range rendered {
		var line strings.Builder
		for i, cell := range cells {
			fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
		}
		fmt.Println(strings.TrimRight(line.String(), " "))
	}

	suffix := ""
	if res.Truncated {
		suffix = " (truncated)"
	}
	fmt.Printf("%d rows%s in %s\n", len(res.Rows), suffix, res.Elapsed.Round(time.Millisecond))
}

func renderCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
