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
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/quill/internal/log"
	"github.com/teradata-labs/quill/pkg/types"
)

// DefaultSampleRows is the number of rows sampled per table.
const DefaultSampleRows = 3

// Introspector reads table and column metadata plus a bounded row sample
// from a live connection.
type Introspector struct {
	db         *sql.DB
	dialect    Dialect
	sampleRows int
	logger     *zap.Logger
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithSampleRows overrides the per-table sample size. Zero disables sampling.
func WithSampleRows(n int) Option {
	return func(i *Introspector) { i.sampleRows = n }
}

// WithLogger overrides the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Introspector) { i.logger = l }
}

// NewIntrospector creates an introspector for the given connection pool.
func NewIntrospector(db *sql.DB, dialect Dialect, opts ...Option) *Introspector {
	i := &Introspector{
		db:         db,
		dialect:    dialect,
		sampleRows: DefaultSampleRows,
		logger:     log.Logger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Describe builds a schema descriptor. Failure to list metadata is a
// connection error; failure to sample a single table only degrades that
// table to an empty sample.
func (i *Introspector) Describe(ctx context.Context) (*Descriptor, error) {
	var (
		tables []Table
		err    error
	)

	switch i.dialect {
	case DialectSQLite:
		tables, err = i.describeSQLite(ctx)
	case DialectPostgres:
		tables, err = i.describePostgres(ctx)
	case DialectMySQL:
		tables, err = i.describeMySQL(ctx)
	default:
		return nil, types.NewError(types.KindConnectionError, "unsupported dialect %q", i.dialect)
	}
	if err != nil {
		return nil, types.WrapKind(types.KindConnectionError, err)
	}

	// Stable ordering: tables by name, columns already in declaration order.
	sort.Slice(tables, func(a, b int) bool { return tables[a].Name < tables[b].Name })

	for ti := range tables {
		if i.sampleRows <= 0 {
			continue
		}
		rows, sampleErr := i.sampleTable(ctx, tables[ti].Name)
		if sampleErr != nil {
			i.logger.Warn("table sampling failed, continuing with empty sample",
				zap.String("table", tables[ti].Name),
				zap.Error(sampleErr),
			)
			continue
		}
		tables[ti].SampleRows = rows
	}

	return &Descriptor{
		Dialect: i.dialect,
		Tables:  tables,
		BuiltAt: time.Now(),
	}, nil
}

func (i *Introspector) describeSQLite(ctx context.Context) ([]Table, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table list: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := i.sqliteColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	return tables, nil
}

func (i *Introspector) sqliteColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table, DialectSQLite)))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols = append(cols, Column{
			Name:     name,
			Type:     strings.ToUpper(ctype),
			Nullable: notnull == 0 && pk == 0,
			Key:      pk > 0,
		})
	}
	return cols, rows.Err()
}

func (i *Introspector) describePostgres(ctx context.Context) ([]Table, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON tc.constraint_name = kcu.constraint_name
		            AND tc.table_schema = kcu.table_schema
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		             AND tc.table_name = c.table_name
		             AND kcu.column_name = c.column_name
		       ) AS is_key
		FROM information_schema.columns c
		WHERE c.table_schema = 'public'
		ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	return scanGroupedColumns(rows, func(dataType, nullable string) (string, bool) {
		return strings.ToUpper(dataType), nullable == "YES"
	})
}

func (i *Introspector) describeMySQL(ctx context.Context) ([]Table, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable,
		       column_key = 'PRI' AS is_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	return scanGroupedColumns(rows, func(dataType, nullable string) (string, bool) {
		return strings.ToUpper(dataType), nullable == "YES"
	})
}

// scanGroupedColumns folds a (table, column, type, nullable, key) result set
// ordered by table into Table values.
func scanGroupedColumns(rows *sql.Rows, normalize func(dataType, nullable string) (string, bool)) ([]Table, error) {
	var tables []Table
	byName := map[string]int{}

	for rows.Next() {
		var (
			table    string
			column   string
			dataType string
			nullable string
			isKey    bool
		)
		if err := rows.Scan(&table, &column, &dataType, &nullable, &isKey); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}

		idx, ok := byName[table]
		if !ok {
			tables = append(tables, Table{Name: table})
			idx = len(tables) - 1
			byName[table] = idx
		}

		typ, null := normalize(dataType, nullable)
		tables[idx].Columns = append(tables[idx].Columns, Column{
			Name:     column,
			Type:     typ,
			Nullable: null && !isKey,
			Key:      isKey,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}
	return tables, nil
}

// sampleTable reads up to sampleRows rows from a table, rendering every
// value as a string.
func (i *Introspector) sampleTable(ctx context.Context, table string) ([][]string, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table, i.dialect), i.sampleRows)
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var samples [][]string
	for rows.Next() {
		raw := make([]interface{}, len(colNames))
		ptrs := make([]interface{}, len(colNames))
		for idx := range raw {
			ptrs[idx] = &raw[idx]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rendered := make([]string, len(raw))
		for idx, v := range raw {
			rendered[idx] = renderValue(v)
		}
		samples = append(samples, rendered)
	}
	return samples, rows.Err()
}

// renderValue formats a scanned value for the schema description.
func renderValue(v interface{}) string {
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

// quoteIdent quotes an identifier for the given dialect.
func quoteIdent(name string, dialect Dialect) string {
	if dialect == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
