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
	"fmt"
	"strings"
)

// StatementType is the leading verb of a SQL statement.
type StatementType string

const (
	StmtSelect  StatementType = "SELECT"
	StmtWith    StatementType = "WITH"
	StmtInsert  StatementType = "INSERT"
	StmtUpdate  StatementType = "UPDATE"
	StmtDelete  StatementType = "DELETE"
	StmtCreate  StatementType = "CREATE"
	StmtDrop    StatementType = "DROP"
	StmtAlter   StatementType = "ALTER"
	StmtExplain StatementType = "EXPLAIN"
	StmtOther   StatementType = "OTHER"
)

// TableRef is a physical table reference as written in the query.
type TableRef struct {
	Name string
	Pos  int
}

// ColumnRef is a qualifier.column reference.
type ColumnRef struct {
	Qualifier string
	Name      string
	Pos       int
}

// Statement is the minimal structure the validator needs: the statement
// type, every referenced table and column, join count, declared aliases,
// write verbs seen anywhere in the token stream, and the statement count.
type Statement struct {
	Type StatementType

	// Tables are physical table references from FROM/JOIN/INTO/UPDATE
	// positions of the first statement, CTE bodies included.
	Tables []TableRef

	// CTEs are common table expression names; they shadow schema tables.
	CTEs []string

	// Aliases maps a lowercased alias to the table it names. Derived
	// tables (subqueries) alias to "" and are opaque to column checks.
	Aliases map[string]string

	// QualifiedCols are qualifier.column references.
	QualifiedCols []ColumnRef

	// BareCols are unqualified identifiers in value positions.
	BareCols []string

	// ExprAliases are identifiers declared with AS outside table refs
	// (select-list aliases); they are legal bare column references.
	ExprAliases []string

	// JoinCount is the number of JOIN keywords in the first statement.
	JoinCount int

	// HasDerived marks presence of derived tables (FROM (subquery)).
	HasDerived bool

	// StatementCount is the number of non-empty statements in the text.
	StatementCount int

	// WriteVerbs lists write/DDL verbs found anywhere in the token
	// stream, across all statements and subqueries.
	WriteVerbs []string
}

// writeVerbs are verbs that can mutate state. The scan covers the whole
// token stream, so a verb buried in a subquery or a second statement is
// still caught. FOR UPDATE locking clauses are rejected too; that is the
// conservative direction for a read-only sandbox.
var writeVerbs = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true,
	"CREATE": true, "ALTER": true, "TRUNCATE": true, "REPLACE": true,
	"MERGE": true, "GRANT": true, "REVOKE": true, "ATTACH": true,
	"DETACH": true, "VACUUM": true, "REINDEX": true, "CALL": true,
	"EXEC": true, "EXECUTE": true, "COPY": true, "IMPORT": true,
	"LOAD": true, "UPSERT": true,
}

// keywords that are never bare column references. Includes common type
// names so CAST(x AS INTEGER) does not register an alias or column.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true, "FETCH": true,
	"AS": true, "ON": true, "USING": true, "AND": true, "OR": true, "NOT": true,
	"IN": true, "IS": true, "NULL": true, "LIKE": true, "ILIKE": true,
	"BETWEEN": true, "CASE": true, "WHEN": true, "THEN": true, "ELSE": true,
	"END": true, "JOIN": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"INNER": true, "OUTER": true, "CROSS": true, "NATURAL": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "ALL": true,
	"DISTINCT": true, "EXISTS": true, "ASC": true, "DESC": true,
	"WITH": true, "RECURSIVE": true, "VALUES": true, "SET": true,
	"INTO": true, "WINDOW": true, "OVER": true, "PARTITION": true,
	"CAST": true, "COLLATE": true, "ESCAPE": true, "FILTER": true,
	"FOR": true, "NULLS": true, "FIRST": true, "LAST": true, "TRUE": true,
	"FALSE": true, "ROW": true, "ROWS": true, "RANGE": true, "ONLY": true,
	"INTEGER": true, "INT": true, "BIGINT": true, "SMALLINT": true,
	"TEXT": true, "VARCHAR": true, "CHAR": true, "REAL": true,
	"FLOAT": true, "DOUBLE": true, "PRECISION": true, "NUMERIC": true,
	"DECIMAL": true, "BOOLEAN": true, "DATE": true, "TIME": true,
	"TIMESTAMP": true, "INTERVAL": true, "BLOB": true,
	"MATERIALIZED": true, "RETURNING": true, "LATERAL": true,
	"GLOB": true, "REGEXP": true,
}

// Parse lexes and analyzes a SQL text. It returns an error only when the
// text cannot be lexed or contains no statement at all; policy decisions
// are the validator's job.
func Parse(sql string) (*Statement, error) {
	tokens, err := Tokenize(sql)
	if err != nil {
		return nil, err
	}

	segments := splitStatements(tokens)
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	stmt := &Statement{
		Aliases:        map[string]string{},
		StatementCount: len(segments),
	}

	// Write verbs are collected from the whole stream, not just the
	// first statement: a trailing injected statement must not escape
	// the write check just because the multi-statement check runs later.
	for _, tok := range tokens {
		if tok.Type == TokenIdent && !tok.Quoted && writeVerbs[strings.ToUpper(tok.Text)] {
			stmt.WriteVerbs = append(stmt.WriteVerbs, strings.ToUpper(tok.Text))
		}
	}

	first := segments[0]
	stmt.Type = statementType(first)
	if stmt.Type == StmtWith {
		stmt.CTEs = collectCTENames(first)
	}
	analyze(first, stmt)
	return stmt, nil
}

// splitStatements splits the token stream on top-level semicolons,
// dropping empty segments.
func splitStatements(tokens []Token) [][]Token {
	var segments [][]Token
	depth := 0
	start := 0
	for i, tok := range tokens {
		switch {
		case tok.IsPunct("("):
			depth++
		case tok.IsPunct(")"):
			if depth > 0 {
				depth--
			}
		case tok.IsPunct(";") && depth == 0:
			if i > start {
				segments = append(segments, tokens[start:i])
			}
			start = i + 1
		}
	}
	if start < len(tokens) {
		segments = append(segments, tokens[start:])
	}
	return segments
}

// statementType reads the leading verb, skipping any wrapping parens.
func statementType(tokens []Token) StatementType {
	i := 0
	for i < len(tokens) && tokens[i].IsPunct("(") {
		i++
	}
	if i >= len(tokens) || tokens[i].Type != TokenIdent {
		return StmtOther
	}
	switch strings.ToUpper(tokens[i].Text) {
	case "SELECT":
		return StmtSelect
	case "WITH":
		return StmtWith
	case "INSERT":
		return StmtInsert
	case "UPDATE":
		return StmtUpdate
	case "DELETE":
		return StmtDelete
	case "CREATE":
		return StmtCreate
	case "DROP":
		return StmtDrop
	case "ALTER":
		return StmtAlter
	case "EXPLAIN":
		return StmtExplain
	default:
		return StmtOther
	}
}

// collectCTENames walks WITH [RECURSIVE] name [(cols)] AS (body) [, ...]
// and returns the declared names. Bodies are not skipped here; the main
// analyze pass scans them for table references like any other tokens.
func collectCTENames(tokens []Token) []string {
	var names []string
	i := 1 // past WITH
	if i < len(tokens) && tokens[i].IsKeyword("RECURSIVE") {
		i++
	}
	for i < len(tokens) {
		if tokens[i].Type != TokenIdent {
			break
		}
		names = append(names, tokens[i].Text)
		i++
		// optional column list
		if i < len(tokens) && tokens[i].IsPunct("(") {
			i = skipBalanced(tokens, i)
		}
		if i >= len(tokens) || !tokens[i].IsKeyword("AS") {
			break
		}
		i++
		// optional MATERIALIZED / NOT MATERIALIZED
		if i < len(tokens) && tokens[i].IsKeyword("NOT") {
			i++
		}
		if i < len(tokens) && tokens[i].IsKeyword("MATERIALIZED") {
			i++
		}
		if i >= len(tokens) || !tokens[i].IsPunct("(") {
			break
		}
		i = skipBalanced(tokens, i)
		if i < len(tokens) && tokens[i].IsPunct(",") {
			i++
			continue
		}
		break
	}
	return names
}

// skipBalanced advances past a balanced parenthesis group starting at
// index i (which must be "("). Returns the index after the close.
func skipBalanced(tokens []Token, i int) int {
	depth := 0
	for ; i < len(tokens); i++ {
		if tokens[i].IsPunct("(") {
			depth++
		} else if tokens[i].IsPunct(")") {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// analyze linearly scans one statement's tokens, collecting table refs,
// aliases, joins, and column references.
func analyze(tokens []Token, stmt *Statement) {
	i := 0
	for i < len(tokens) {
		tok := tokens[i]

		switch {
		case tok.IsKeyword("FROM") || tok.IsKeyword("INTO"):
			i = parseTableList(tokens, i+1, stmt)

		case tok.IsKeyword("JOIN"):
			stmt.JoinCount++
			i = parseTableRef(tokens, i+1, stmt)

		case tok.IsKeyword("UPDATE") && i == 0:
			i = parseTableRef(tokens, i+1, stmt)

		case tok.IsKeyword("AS"):
			// Expression alias in a select list. Table aliases are
			// consumed inside parseTableRef and never reach here.
			if i+1 < len(tokens) && tokens[i+1].Type == TokenIdent && !isKeywordToken(tokens[i+1]) {
				stmt.ExprAliases = append(stmt.ExprAliases, tokens[i+1].Text)
				i += 2
			} else {
				i++
			}

		case tok.Type == TokenIdent && !isKeywordToken(tok):
			// qualifier.column, qualifier.*, function call, or bare column.
			if i+2 < len(tokens) && tokens[i+1].IsPunct(".") {
				if tokens[i+2].Type == TokenIdent {
					stmt.QualifiedCols = append(stmt.QualifiedCols, ColumnRef{
						Qualifier: tok.Text,
						Name:      tokens[i+2].Text,
						Pos:       tok.Pos,
					})
				}
				// qualifier.* falls through silently
				i += 3
			} else if i+1 < len(tokens) && tokens[i+1].IsPunct("(") {
				// function call
				i += 2
			} else {
				stmt.BareCols = append(stmt.BareCols, tok.Text)
				i++
			}

		default:
			i++
		}
	}
}

// parseTableList parses comma-separated table refs after FROM/INTO.
func parseTableList(tokens []Token, i int, stmt *Statement) int {
	for {
		i = parseTableRef(tokens, i, stmt)
		if i < len(tokens) && tokens[i].IsPunct(",") {
			i++
			continue
		}
		return i
	}
}

// parseTableRef parses one table reference: a possibly schema-qualified
// name or a derived table, with an optional alias. Returns the index of
// the first unconsumed token.
func parseTableRef(tokens []Token, i int, stmt *Statement) int {
	// JOIN modifiers may sit between JOIN-introducing keywords and the
	// ref when called from the LEFT/INNER/... path; skip them.
	for i < len(tokens) && (tokens[i].IsKeyword("LATERAL")) {
		i++
	}
	if i >= len(tokens) {
		return i
	}

	if tokens[i].IsPunct("(") {
		// Derived table or parenthesized join. The body is scanned by
		// the caller's linear pass, so only the alias matters here.
		stmt.HasDerived = true
		end := skipBalancedShallow(tokens, i)
		// Re-scan the body through analyze so nested FROMs register.
		inner := tokens[i+1 : end-1]
		analyze(inner, stmt)
		i = end
		return parseOptionalAlias(tokens, i, "", stmt)
	}

	if tokens[i].Type != TokenIdent || isKeywordToken(tokens[i]) {
		return i
	}

	// name, possibly schema-qualified: a.b or a.b.c; the table the
	// schema knows is the last path part.
	name := tokens[i].Text
	pos := tokens[i].Pos
	i++
	for i+1 < len(tokens) && tokens[i].IsPunct(".") && tokens[i+1].Type == TokenIdent {
		name = tokens[i+1].Text
		i += 2
	}
	stmt.Tables = append(stmt.Tables, TableRef{Name: name, Pos: pos})

	return parseOptionalAlias(tokens, i, name, stmt)
}

// parseOptionalAlias consumes "AS alias" or a bare alias after a table
// ref. target is "" for derived tables.
func parseOptionalAlias(tokens []Token, i int, target string, stmt *Statement) int {
	if i < len(tokens) && tokens[i].IsKeyword("AS") {
		i++
	}
	if i < len(tokens) && tokens[i].Type == TokenIdent && !isKeywordToken(tokens[i]) {
		stmt.Aliases[strings.ToLower(tokens[i].Text)] = target
		i++
		// optional derived-table column list: alias(c1, c2)
		if i < len(tokens) && tokens[i].IsPunct("(") && target == "" {
			i = skipBalancedShallow(tokens, i)
		}
	}
	return i
}

// skipBalancedShallow is skipBalanced without CTE semantics; kept
// separate for clarity at call sites dealing with derived tables.
func skipBalancedShallow(tokens []Token, i int) int {
	return skipBalanced(tokens, i)
}

// isKeywordToken reports whether a token is a recognized SQL keyword.
// Quoted identifiers are never keywords.
func isKeywordToken(tok Token) bool {
	return tok.Type == TokenIdent && !tok.Quoted && keywords[strings.ToUpper(tok.Text)]
}
