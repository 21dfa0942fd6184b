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

// Package agent sequences the question-to-answer pipeline: introspect,
// prompt, generate, validate, execute, explain. A bounded retry loop feeds
// validation and execution errors back into generation.
package agent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/quill/internal/log"
	"github.com/teradata-labs/quill/pkg/executor"
	"github.com/teradata-labs/quill/pkg/explain"
	"github.com/teradata-labs/quill/pkg/generate"
	"github.com/teradata-labs/quill/pkg/prompt"
	"github.com/teradata-labs/quill/pkg/schema"
	"github.com/teradata-labs/quill/pkg/sqlcheck"
	"github.com/teradata-labs/quill/pkg/types"
)

// DefaultMaxAttempts bounds the generate-validate-execute loop.
const DefaultMaxAttempts = 3

// execRetries is how many times a failed execution is re-run as transient
// before it costs a generation attempt.
const execRetries = 1

type state string

const (
	stateInit       state = "init"
	stateGenerating state = "generating"
	stateValidating state = "validating"
	stateExecuting  state = "executing"
	stateExplaining state = "explaining"
	stateDone       state = "done"
	stateFailed     state = "failed"
)

// Config assembles an Agent. Provider and DB are required.
type Config struct {
	Provider types.Provider
	DB       *sql.DB
	Dialect  schema.Dialect

	// MaxAttempts bounds generation attempts per run. Default 3.
	MaxAttempts int

	// Limits bounds each execution. Zero values use executor defaults.
	Limits executor.Limits

	// Policy configures the sandbox. Zero value is the read-only default.
	Policy sqlcheck.Policy

	// Builder configures prompt rendering. Zero value uses defaults.
	Builder prompt.Builder

	// SampleRows caps per-table sample rows at introspection time.
	SampleRows int

	// Temperature and MaxTokens tune generation.
	Temperature float64
	MaxTokens   int

	Logger *zap.Logger
}

// Agent runs questions against one database with one provider. Safe for
// concurrent Run calls: the schema cache hands every run an immutable
// snapshot and the *sql.DB pool hands out per-request connections.
type Agent struct {
	provider    types.Provider
	db          *sql.DB
	cache       *schema.Cache
	generator   *generate.Generator
	explainer   *explain.Explainer
	builder     prompt.Builder
	policy      sqlcheck.Policy
	limits      executor.Limits
	maxAttempts int
	logger      *zap.Logger
}

// Result is the outcome of one run. Explanation is non-empty exactly when
// Result is non-nil; failed runs keep the last attempted SQL for diagnosis.
type Result struct {
	RunID       string
	Question    string
	SQL         string
	Result      *executor.Result
	Explanation string
	Attempts    int
	FinalError  types.ErrorKind
}

// New creates an Agent from the configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent: nil provider")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("agent: nil database")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Logger()
	}
	introspectorOpts := []schema.Option{schema.WithLogger(cfg.Logger)}
	if cfg.SampleRows > 0 {
		introspectorOpts = append(introspectorOpts, schema.WithSampleRows(cfg.SampleRows))
	}
	intr := schema.NewIntrospector(cfg.DB, cfg.Dialect, introspectorOpts...)

	genOpts := []generate.Option{generate.WithLogger(cfg.Logger)}
	if cfg.MaxTokens > 0 {
		genOpts = append(genOpts, generate.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature > 0 {
		genOpts = append(genOpts, generate.WithTemperature(cfg.Temperature))
	}

	return &Agent{
		provider:    cfg.Provider,
		db:          cfg.DB,
		cache:       schema.NewCache(intr),
		generator:   generate.New(cfg.Provider, genOpts...),
		explainer:   explain.New(cfg.Provider),
		builder:     cfg.Builder,
		policy:      cfg.Policy,
		limits:      cfg.Limits,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
	}, nil
}

// RefreshSchema rebuilds the schema snapshot. In-flight runs keep the
// snapshot they captured.
func (a *Agent) RefreshSchema(ctx context.Context) error {
	_, err := a.cache.Refresh(ctx)
	return err
}

// Run answers one question. The returned Result is non-nil even on
// failure so callers can report the last attempted SQL and error kind.
func (a *Agent) Run(ctx context.Context, question string) (*Result, error) {
	res := &Result{
		RunID:    uuid.NewString(),
		Question: question,
	}
	logger := a.logger.With(zap.String("run_id", res.RunID))
	logger.Info("run started", zap.String("question", question))

	err := a.run(ctx, logger, res)
	if err != nil {
		res.FinalError = types.KindOf(err)
		failuresTotal.WithLabelValues(string(res.FinalError)).Inc()
		runsTotal.WithLabelValues("failure").Inc()
		logger.Warn("run failed",
			zap.String("state", string(stateFailed)),
			zap.String("kind", string(res.FinalError)),
			zap.Int("attempts", res.Attempts))
	} else {
		runsTotal.WithLabelValues("success").Inc()
		logger.Info("run finished",
			zap.String("state", string(stateDone)),
			zap.Int("attempts", res.Attempts),
			zap.Int("rows", len(res.Result.Rows)))
	}
	attemptsPerRun.Observe(float64(res.Attempts))
	return res, err
}

func (a *Agent) run(ctx context.Context, logger *zap.Logger, res *Result) error {
	if err := checkCancel(ctx, stateInit); err != nil {
		return err
	}

	desc, err := a.cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	var retry *prompt.RetryContext
	var lastErr error

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		res.Attempts = attempt
		attemptLogger := logger.With(zap.Int("attempt", attempt))

		if err := checkCancel(ctx, stateGenerating); err != nil {
			return err
		}

		p, err := a.builder.Build(desc, res.Question, retry)
		if err != nil {
			return fmt.Errorf("build prompt: %w", err)
		}
		attemptLogger.Debug("prompt built", zap.Int("tokens", p.Tokens))

		candidate, err := a.generator.Generate(ctx, p.Text)
		if err != nil {
			// Provider outage and cancellation are not recoverable by
			// another attempt with the same provider.
			return err
		}
		if candidate.SQL == "" {
			lastErr = types.NewError(types.KindNoQueryFound, "response contained no SQL statement")
			retry = &prompt.RetryContext{
				Kind:   types.KindNoQueryFound,
				Detail: "your response contained no SQL statement",
			}
			failuresTotal.WithLabelValues(string(types.KindNoQueryFound)).Inc()
			attemptLogger.Warn("no query found in response")
			continue
		}
		res.SQL = candidate.SQL

		if err := checkCancel(ctx, stateValidating); err != nil {
			return err
		}

		verdict := sqlcheck.Validate(candidate.SQL, desc, a.policy)
		if !verdict.OK {
			lastErr = &types.AgentError{
				Kind: verdict.Kind,
				SQL:  candidate.SQL,
				Err:  fmt.Errorf("%s", verdict.Detail),
			}
			retry = &prompt.RetryContext{
				SQL:    candidate.SQL,
				Kind:   verdict.Kind,
				Detail: verdict.Detail,
			}
			failuresTotal.WithLabelValues(string(verdict.Kind)).Inc()
			attemptLogger.Warn("validation rejected candidate",
				zap.String("kind", string(verdict.Kind)),
				zap.String("detail", verdict.Detail))
			continue
		}
		attemptLogger.Debug("candidate validated",
			zap.Strings("tables", verdict.ReferencedTables))

		if err := checkCancel(ctx, stateExecuting); err != nil {
			return err
		}

		execResult, execErr := a.execute(ctx, candidate.SQL, attemptLogger)
		if execErr != nil {
			kind := types.KindOf(execErr)
			if kind == types.KindCancelled {
				return execErr
			}
			lastErr = execErr
			retry = &prompt.RetryContext{
				SQL:    candidate.SQL,
				Kind:   kind,
				Detail: execErr.Error(),
			}
			failuresTotal.WithLabelValues(string(kind)).Inc()
			continue
		}
		res.Result = execResult

		if err := checkCancel(ctx, stateExplaining); err != nil {
			return err
		}

		explanation, explErr := a.explainer.Explain(ctx, res.Question, candidate.SQL, execResult)
		if explErr != nil {
			if types.KindOf(explErr) == types.KindCancelled {
				return explErr
			}
			// Non-fatal: the result is still the answer. Fall back to a
			// deterministic summary so a result always has an explanation.
			res.FinalError = types.KindExplanationFailed
			explanation = fallbackExplanation(execResult)
			failuresTotal.WithLabelValues(string(types.KindExplanationFailed)).Inc()
			attemptLogger.Warn("explanation failed", zap.Error(explErr))
		}
		res.Explanation = explanation
		return nil
	}

	if lastErr == nil {
		lastErr = types.NewError(types.KindNoQueryFound, "no attempt produced a usable query")
	}
	return fmt.Errorf("exhausted %d attempts: %w", a.maxAttempts, lastErr)
}

// execute runs the statement, retrying transient failures once before the
// error costs a generation attempt.
func (a *Agent) execute(ctx context.Context, sqlText string, logger *zap.Logger) (*executor.Result, error) {
	var lastErr error
	for try := 0; try <= execRetries; try++ {
		start := time.Now()
		result, err := executor.Execute(ctx, a.db, sqlText, a.limits)
		executionSeconds.Observe(time.Since(start).Seconds())
		if err == nil {
			return result, nil
		}
		if types.KindOf(err) == types.KindCancelled {
			return nil, err
		}
		lastErr = err
		if try < execRetries {
			logger.Debug("execution failed, retrying once",
				zap.String("kind", string(types.KindOf(err))))
		}
	}
	return nil, lastErr
}

func fallbackExplanation(result *executor.Result) string {
	if result.Truncated {
		return fmt.Sprintf("The query returned %d rows (truncated by the row limit).", len(result.Rows))
	}
	return fmt.Sprintf("The query returned %d rows.", len(result.Rows))
}

func checkCancel(ctx context.Context, s state) error {
	if err := ctx.Err(); err != nil {
		return &types.AgentError{
			Kind: types.KindCancelled,
			Err:  fmt.Errorf("cancelled at %s: %w", s, err),
		}
	}
	return nil
}
