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
package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/quill/pkg/types"
)

func TestExecuteReturnsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT name, composer FROM tracks").WillReturnRows(
		sqlmock.NewRows([]string{"name", "composer"}).
			AddRow("Fugue", "Bach").
			AddRow("Aria", nil))

	res, err := Execute(context.Background(), db, "SELECT name, composer FROM tracks", Limits{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "composer"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.False(t, res.Truncated)
	assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRowCapSetsTruncated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 10; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT n FROM nums").WillReturnRows(rows)

	res, err := Execute(context.Background(), db, "SELECT n FROM nums", Limits{MaxRows: 5})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 5)
	assert.True(t, res.Truncated)
}

func TestExecuteExactCapIsNotTruncated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT n FROM nums").WillReturnRows(rows)

	res, err := Execute(context.Background(), db, "SELECT n FROM nums", Limits{MaxRows: 5})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 5)
	assert.False(t, res.Truncated)
}

func TestExecuteDriverErrorIsExecutionError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT bogus").WillReturnError(errors.New("no such column: bogus"))

	_, err = Execute(context.Background(), db, "SELECT bogus", Limits{})
	require.Error(t, err)
	assert.Equal(t, types.KindExecutionError, types.KindOf(err))

	var ae *types.AgentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "SELECT bogus", ae.SQL)
}

func TestExecuteTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT slow").WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))

	_, err = Execute(context.Background(), db, "SELECT slow", Limits{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, types.KindExecutionTimeout, types.KindOf(err))
}

func TestExecuteCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT slow").WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = Execute(ctx, db, "SELECT slow", Limits{})
	require.Error(t, err)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
}

func TestExecuteDefaultsApplied(t *testing.T) {
	l := Limits{}.withDefaults()
	assert.Equal(t, DefaultMaxRows, l.MaxRows)
	assert.Equal(t, DefaultTimeout, l.Timeout)
	// Explicit values survive.
	l = Limits{MaxRows: 7, Timeout: time.Second}.withDefaults()
	assert.Equal(t, 7, l.MaxRows)
	assert.Equal(t, time.Second, l.Timeout)
}

func TestExecuteScanErrorClassified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"n"}).AddRow(1).
		RowError(0, fmt.Errorf("driver glitch"))
	mock.ExpectQuery("SELECT n").WillReturnRows(rows)

	_, err = Execute(context.Background(), db, "SELECT n", Limits{})
	require.Error(t, err)
	assert.Equal(t, types.KindExecutionError, types.KindOf(err))
}
