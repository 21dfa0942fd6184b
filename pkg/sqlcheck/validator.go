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
	"sort"
	"strings"

	"github.com/teradata-labs/quill/pkg/schema"
	"github.com/teradata-labs/quill/pkg/types"
)

// Policy configures the sandbox.
type Policy struct {
	// AllowWrite permits write/DDL verbs. Default false.
	AllowWrite bool

	// MaxJoins caps JOIN clauses per statement. Zero means unlimited.
	MaxJoins int

	// AllowedStatements whitelists statement types. Empty means the
	// default read-only set (SELECT, WITH).
	AllowedStatements []StatementType
}

// DefaultPolicy returns the read-only sandbox policy.
func DefaultPolicy() Policy {
	return Policy{
		AllowWrite:        false,
		MaxJoins:          0,
		AllowedStatements: []StatementType{StmtSelect, StmtWith},
	}
}

func (p Policy) allowed(st StatementType) bool {
	allowed := p.AllowedStatements
	if len(allowed) == 0 {
		allowed = []StatementType{StmtSelect, StmtWith}
	}
	for _, a := range allowed {
		if a == st {
			return true
		}
	}
	return false
}

// Verdict is the deterministic outcome of validating one candidate SQL
// text against a schema snapshot and a policy.
type Verdict struct {
	OK               bool
	Kind             types.ErrorKind
	Detail           string
	ReferencedTables []string
}

func reject(kind types.ErrorKind, format string, args ...interface{}) Verdict {
	return Verdict{OK: false, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Validate statically checks a candidate statement. Checks run in a fixed
// order and short-circuit on the first failure: statement type, write
// verbs, identifier existence, single-statement, join ceiling.
func Validate(sql string, desc *schema.Descriptor, policy Policy) Verdict {
	if strings.TrimSpace(sql) == "" {
		return reject(types.KindNoQueryFound, "empty statement")
	}

	stmt, err := Parse(sql)
	if err != nil {
		return reject(types.KindNoQueryFound, "statement does not lex: %v", err)
	}

	if !policy.allowed(stmt.Type) {
		return reject(types.KindDisallowedStatement, "statement type %s is not permitted", stmt.Type)
	}

	if !policy.AllowWrite && len(stmt.WriteVerbs) > 0 {
		return reject(types.KindWriteNotPermitted, "write verb %s is not permitted", stmt.WriteVerbs[0])
	}

	verdict := checkIdentifiers(stmt, desc)
	if !verdict.OK {
		return verdict
	}

	if stmt.StatementCount > 1 {
		return reject(types.KindMultipleStatements, "%d statements supplied, expected one", stmt.StatementCount)
	}

	if policy.MaxJoins > 0 && stmt.JoinCount > policy.MaxJoins {
		return reject(types.KindDisallowedStatement, "%d joins exceed the limit of %d", stmt.JoinCount, policy.MaxJoins)
	}

	verdict.OK = true
	verdict.Kind = types.KindNone
	return verdict
}

// checkIdentifiers verifies every referenced table and column against the
// schema. Matching is case-insensitive. CTE names shadow schema tables;
// columns qualified by a CTE or derived-table alias are opaque and skipped.
func checkIdentifiers(stmt *Statement, desc *schema.Descriptor) Verdict {
	ctes := map[string]bool{}
	for _, name := range stmt.CTEs {
		ctes[strings.ToLower(name)] = true
	}

	var referenced []string
	seen := map[string]bool{}
	for _, ref := range stmt.Tables {
		lower := strings.ToLower(ref.Name)
		if ctes[lower] {
			continue
		}
		if desc.Table(ref.Name) == nil {
			return reject(types.KindUnknownIdentifier, "unknown table %q", ref.Name)
		}
		if !seen[lower] {
			seen[lower] = true
			referenced = append(referenced, lower)
		}
	}
	sort.Strings(referenced)

	for _, col := range stmt.QualifiedCols {
		table, opaque := resolveQualifier(col.Qualifier, stmt, ctes, desc)
		if opaque {
			continue
		}
		if table == "" {
			return reject(types.KindUnknownIdentifier, "unknown table or alias %q", col.Qualifier)
		}
		if !desc.HasColumn(table, col.Name) {
			return reject(types.KindUnknownIdentifier, "unknown column %q in table %q", col.Name, table)
		}
	}

	// Bare columns are only checkable when the statement reads exactly
	// one physical table and nothing can shadow names.
	if len(referenced) == 1 && len(ctes) == 0 && !stmt.HasDerived {
		table := referenced[0]
		aliases := map[string]bool{}
		for _, a := range stmt.ExprAliases {
			aliases[strings.ToLower(a)] = true
		}
		for a := range stmt.Aliases {
			aliases[a] = true
		}
		for _, col := range stmt.BareCols {
			if aliases[strings.ToLower(col)] {
				continue
			}
			if !desc.HasColumn(table, col) {
				return reject(types.KindUnknownIdentifier, "unknown column %q in table %q", col, table)
			}
		}
	}

	return Verdict{OK: true, ReferencedTables: referenced}
}

// resolveQualifier maps a column qualifier to a physical table name.
// Returns opaque=true when the qualifier names a CTE or derived table.
func resolveQualifier(qual string, stmt *Statement, ctes map[string]bool, desc *schema.Descriptor) (table string, opaque bool) {
	lower := strings.ToLower(qual)
	if ctes[lower] {
		return "", true
	}
	if target, ok := stmt.Aliases[lower]; ok {
		if target == "" || ctes[strings.ToLower(target)] {
			return "", true
		}
		return target, false
	}
	if desc.Table(qual) != nil {
		return qual, false
	}
	return "", false
}
