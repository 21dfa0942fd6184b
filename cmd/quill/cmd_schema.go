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

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/quill/pkg/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the introspected database schema",
	Long: heredoc.Doc(`
		Introspect the configured database and print the schema description
		exactly as it is rendered into generation prompts. Useful for
		checking what the model will see.
	`),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	intr := schema.NewIntrospector(db, dialect, schema.WithSampleRows(config.Agent.SampleRows))
	desc, err := intr.Describe(ctx)
	if err != nil {
		return fmt.Errorf("introspection failed: %w", err)
	}

	fmt.Printf("-- dialect: %s, %d tables\n\n", desc.Dialect, len(desc.Tables))
	fmt.Println(desc.Render())
	return nil
}
