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
	"time"

	"github.com/spf13/viper"

	"github.com/teradata-labs/quill/pkg/schema"
)

// DefaultConfigFileName is the name of the config file (quill.yaml).
const DefaultConfigFileName = "quill"

// Config holds all configuration for quill.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Agent configuration
	Agent AgentConfig `mapstructure:"agent"`

	// Executor configuration
	Executor ExecutorConfig `mapstructure:"executor"`

	// Sandbox configuration
	Sandbox SandboxConfig `mapstructure:"sandbox"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// DatabaseConfig holds the target database connection settings.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: sqlite3, postgres, or mysql.
	Driver string `mapstructure:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `mapstructure:"dsn"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	// Provider selects the backend: anthropic, bedrock, or ollama.
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`

	// AnthropicAPIKey authenticates the anthropic provider
	// (falls back to ANTHROPIC_API_KEY).
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	// Bedrock settings
	BedrockRegion  string `mapstructure:"bedrock_region"`
	BedrockProfile string `mapstructure:"bedrock_profile"`

	// OllamaEndpoint points at a local or remote Ollama server.
	OllamaEndpoint string `mapstructure:"ollama_endpoint"`

	// Temperature controls sampling randomness for generation.
	Temperature float64 `mapstructure:"temperature"`

	// MaxTokens bounds each completion.
	MaxTokens int `mapstructure:"max_tokens"`

	// TimeoutSeconds bounds each provider HTTP call.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AgentConfig holds orchestration settings.
type AgentConfig struct {
	// MaxAttempts bounds generation attempts per run.
	MaxAttempts int `mapstructure:"max_attempts"`

	// SampleRows caps per-table sample rows at introspection time.
	SampleRows int `mapstructure:"sample_rows"`

	// MaxPromptTokens bounds the rendered prompt size.
	MaxPromptTokens int `mapstructure:"max_prompt_tokens"`
}

// ExecutorConfig holds execution bounds.
type ExecutorConfig struct {
	// MaxRows caps the rows fetched per query.
	MaxRows int `mapstructure:"max_rows"`

	// TimeoutSeconds bounds query wall time.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// SandboxConfig holds validation policy settings.
type SandboxConfig struct {
	// AllowWrite permits write and DDL statements. Off by default.
	AllowWrite bool `mapstructure:"allow_write"`

	// MaxJoins caps JOIN clauses per statement. Zero means unlimited.
	MaxJoins int `mapstructure:"max_joins"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// LoadConfig reads configuration with the standard priority order.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.quill")
		viper.SetConfigName(DefaultConfigFileName)
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; flags, env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("QUILL")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("database.driver", "sqlite3")

	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.bedrock_region", "us-west-2")
	viper.SetDefault("llm.ollama_endpoint", "http://localhost:11434")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.timeout_seconds", 60)

	viper.SetDefault("agent.max_attempts", 3)
	viper.SetDefault("agent.sample_rows", 3)
	viper.SetDefault("agent.max_prompt_tokens", 8000)

	viper.SetDefault("executor.max_rows", 500)
	viper.SetDefault("executor.timeout_seconds", 30)

	viper.SetDefault("sandbox.allow_write", false)
	viper.SetDefault("sandbox.max_joins", 0)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// dialectFor maps a database/sql driver name to its SQL dialect.
func dialectFor(driver string) (schema.Dialect, error) {
	switch driver {
	case "sqlite3":
		return schema.DialectSQLite, nil
	case "postgres":
		return schema.DialectPostgres, nil
	case "mysql":
		return schema.DialectMySQL, nil
	default:
		return "", fmt.Errorf("unknown driver %q (supported: sqlite3, postgres, mysql)", driver)
	}
}

func (c *Config) executorTimeout() time.Duration {
	return time.Duration(c.Executor.TimeoutSeconds) * time.Second
}

func (c *Config) llmTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
