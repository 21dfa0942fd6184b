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

// Package executor runs validated statements with hard row and time bounds.
// It never inspects or rewrites SQL; safety decisions happen upstream.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teradata-labs/quill/pkg/types"
)

const (
	// DefaultMaxRows caps the rows fetched per query.
	DefaultMaxRows = 500

	// DefaultTimeout bounds query wall time.
	DefaultTimeout = 30 * time.Second
)

// Limits bounds one execution. The zero value uses the defaults above.
type Limits struct {
	MaxRows int
	Timeout time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultMaxRows
	}
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	return l
}

// Result is one bounded query result. Truncated reports that the row cap
// cut off further rows; Elapsed is wall time including fetch.
type Result struct {
	Columns   []string
	Rows      [][]interface{}
	Truncated bool
	Elapsed   time.Duration
}

// Execute runs one statement against the pool with the given limits.
// Errors are classified: deadline expiry is ExecutionTimeout, caller
// cancellation is Cancelled, everything else from the driver is
// ExecutionError.
func Execute(ctx context.Context, db *sql.DB, sqlText string, limits Limits) (*Result, error) {
	limits = limits.withDefaults()

	execCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := db.QueryContext(execCtx, sqlText)
	if err != nil {
		return nil, classify(ctx, execCtx, sqlText, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify(ctx, execCtx, sqlText, err)
	}

	result := &Result{Columns: cols}
	for len(result.Rows) < limits.MaxRows && rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(ctx, execCtx, sqlText, err)
		}
		result.Rows = append(result.Rows, values)
	}

	// One extra probe tells us whether the cap actually cut anything off.
	if len(result.Rows) == limits.MaxRows && rows.Next() {
		result.Truncated = true
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, execCtx, sqlText, err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// classify wraps a driver error with the right kind. The parent context is
// consulted first so a caller cancel that also trips the exec deadline is
// still reported as Cancelled.
func classify(parent, execCtx context.Context, sqlText string, err error) error {
	switch {
	case parent.Err() != nil && errors.Is(parent.Err(), context.Canceled):
		return &types.AgentError{Kind: types.KindCancelled, SQL: sqlText, Err: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(execCtx.Err(), context.DeadlineExceeded):
		return &types.AgentError{Kind: types.KindExecutionTimeout, SQL: sqlText,
			Err: fmt.Errorf("query exceeded execution bound: %w", err)}
	case errors.Is(err, context.Canceled):
		return &types.AgentError{Kind: types.KindCancelled, SQL: sqlText, Err: err}
	default:
		return &types.AgentError{Kind: types.KindExecutionError, SQL: sqlText, Err: err}
	}
}
