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
package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNames(stmt *Statement) []string {
	names := make([]string, len(stmt.Tables))
	for i, ref := range stmt.Tables {
		names[i] = ref.Name
	}
	return names
}

func TestParseStatementType(t *testing.T) {
	cases := []struct {
		sql  string
		want StatementType
	}{
		{"SELECT 1", StmtSelect},
		{"WITH x AS (SELECT 1) SELECT * FROM x", StmtWith},
		{"INSERT INTO t VALUES (1)", StmtInsert},
		{"UPDATE t SET a = 1", StmtUpdate},
		{"DELETE FROM t", StmtDelete},
		{"CREATE TABLE t (a int)", StmtCreate},
		{"DROP TABLE t", StmtDrop},
		{"ALTER TABLE t ADD COLUMN b int", StmtAlter},
		{"EXPLAIN SELECT 1", StmtExplain},
		{"VACUUM", StmtOther},
	}
	for _, tc := range cases {
		stmt, err := Parse(tc.sql)
		require.NoError(t, err, tc.sql)
		assert.Equal(t, tc.want, stmt.Type, tc.sql)
	}
}

func TestParseCollectsTables(t *testing.T) {
	stmt, err := Parse("SELECT a.id, b.name FROM accounts a JOIN branches b ON a.branch_id = b.id")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"accounts", "branches"}, tableNames(stmt))
	assert.Equal(t, 1, stmt.JoinCount)
	assert.Equal(t, "accounts", stmt.Aliases["a"])
	assert.Equal(t, "branches", stmt.Aliases["b"])
}

func TestParseQualifiedColumns(t *testing.T) {
	stmt, err := Parse("SELECT u.name FROM users u WHERE u.active = 1")
	require.NoError(t, err)
	require.Len(t, stmt.QualifiedCols, 2)
	for _, col := range stmt.QualifiedCols {
		assert.Equal(t, "u", col.Qualifier)
	}
}

func TestParseBareColumnsSkipFunctions(t *testing.T) {
	stmt, err := Parse("SELECT count(total), name FROM orders")
	require.NoError(t, err)
	assert.Contains(t, stmt.BareCols, "total")
	assert.Contains(t, stmt.BareCols, "name")
	assert.NotContains(t, stmt.BareCols, "count")
}

func TestParseCTENamesCollected(t *testing.T) {
	stmt, err := Parse("WITH recent AS (SELECT * FROM orders), top AS (SELECT * FROM recent) SELECT * FROM top")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"recent", "top"}, stmt.CTEs)
	assert.Contains(t, tableNames(stmt), "orders")
}

func TestParseDerivedTableIsOpaque(t *testing.T) {
	stmt, err := Parse("SELECT d.n FROM (SELECT count(*) AS n FROM users) d")
	require.NoError(t, err)
	assert.True(t, stmt.HasDerived)
	assert.Equal(t, "", stmt.Aliases["d"])
	assert.Contains(t, tableNames(stmt), "users")
}

func TestParseSchemaQualifiedTable(t *testing.T) {
	stmt, err := Parse("SELECT * FROM public.users")
	require.NoError(t, err)
	assert.Contains(t, tableNames(stmt), "users")
}

func TestParseExprAliases(t *testing.T) {
	stmt, err := Parse("SELECT count(*) AS total FROM orders")
	require.NoError(t, err)
	assert.Contains(t, stmt.ExprAliases, "total")
}

func TestParseCastAsTypeIsNotAlias(t *testing.T) {
	stmt, err := Parse("SELECT CAST(amount AS INTEGER) FROM orders")
	require.NoError(t, err)
	assert.NotContains(t, stmt.ExprAliases, "INTEGER")
}

func TestParseCountsStatements(t *testing.T) {
	stmt, err := Parse("SELECT 1; SELECT 2")
	require.NoError(t, err)
	assert.Equal(t, 2, stmt.StatementCount)

	// Trailing semicolon is not a second statement.
	stmt, err = Parse("SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, 1, stmt.StatementCount)

	// Semicolons inside string literals do not split.
	stmt, err = Parse("SELECT * FROM t WHERE a = 'x; y'")
	require.NoError(t, err)
	assert.Equal(t, 1, stmt.StatementCount)
}

func TestParseWriteVerbsAcrossWholeStream(t *testing.T) {
	stmt, err := Parse("SELECT 1; DROP TABLE users")
	require.NoError(t, err)
	assert.Contains(t, stmt.WriteVerbs, "DROP")

	stmt, err = Parse("SELECT * FROM t WHERE note = 'DROP TABLE users'")
	require.NoError(t, err)
	assert.Empty(t, stmt.WriteVerbs)

	stmt, err = Parse("SELECT a FROM t -- UPDATE t SET a = 1")
	require.NoError(t, err)
	assert.Empty(t, stmt.WriteVerbs)
}

func TestParseJoinCount(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM a
		JOIN b ON a.id = b.a_id
		LEFT JOIN c ON b.id = c.b_id
		INNER JOIN d ON c.id = d.c_id`)
	require.NoError(t, err)
	assert.Equal(t, 3, stmt.JoinCount)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse("   ")
	assert.Error(t, err)
}
