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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teradata-labs/quill/internal/log"
	"github.com/teradata-labs/quill/internal/version"
)

var (
	cfgFile string
	config  *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "quill",
	Short:   "Quill - natural language to SQL agent",
	Long:    `Quill answers plain-language questions against a relational database: it introspects the schema, generates a query with an LLM, statically validates it against a read-only sandbox, executes it with row and time bounds, and explains the result.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./quill.yaml)")

	// Database flags
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("driver", "sqlite3", "database driver (sqlite3, postgres, mysql)")

	// LLM flags
	rootCmd.PersistentFlags().String("provider", "anthropic", "LLM provider (anthropic, bedrock, ollama)")
	rootCmd.PersistentFlags().String("model", "", "model identifier (provider default when empty)")
	rootCmd.PersistentFlags().Float64("temperature", 0.0, "LLM temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 1024, "maximum tokens per completion")

	// Agent flags
	rootCmd.PersistentFlags().Int("max-attempts", 3, "generation attempts per question")

	// Executor flags
	rootCmd.PersistentFlags().Int("max-rows", 500, "row cap per query")
	rootCmd.PersistentFlags().Int("timeout", 30, "query timeout in seconds")

	// Sandbox flags
	rootCmd.PersistentFlags().Bool("allow-write", false, "permit write and DDL statements")
	rootCmd.PersistentFlags().Int("max-joins", 0, "join ceiling per statement (0 = unlimited)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	_ = viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("driver"))

	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("llm.max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))

	_ = viper.BindPFlag("agent.max_attempts", rootCmd.PersistentFlags().Lookup("max-attempts"))

	_ = viper.BindPFlag("executor.max_rows", rootCmd.PersistentFlags().Lookup("max-rows"))
	_ = viper.BindPFlag("executor.timeout_seconds", rootCmd.PersistentFlags().Lookup("timeout"))

	_ = viper.BindPFlag("sandbox.allow_write", rootCmd.PersistentFlags().Lookup("allow-write"))
	_ = viper.BindPFlag("sandbox.max_joins", rootCmd.PersistentFlags().Lookup("max-joins"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := log.Configure(config.Logging.Level, config.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
}
