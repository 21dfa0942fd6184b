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

// Package schema introspects relational databases into an immutable,
// deterministically ordered descriptor used for prompt construction and
// query validation.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// Dialect identifies the SQL variant of the target database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Column describes one column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Key      bool
}

// Table describes one table: its columns in declaration order and a small
// sample of rows rendered as strings. Samples exist purely to help the
// language model infer value shapes.
type Table struct {
	Name       string
	Columns    []Column
	SampleRows [][]string
}

// Descriptor is a point-in-time snapshot of the database schema.
// Tables are sorted by name so identical schemas always render identically.
// Immutable after construction; safe for concurrent read sharing.
type Descriptor struct {
	Dialect Dialect
	Tables  []Table
	BuiltAt time.Time
}

// Table returns the table with the given name (case-insensitive), or nil.
func (d *Descriptor) Table(name string) *Table {
	for i := range d.Tables {
		if strings.EqualFold(d.Tables[i].Name, name) {
			return &d.Tables[i]
		}
	}
	return nil
}

// HasColumn reports whether the named table has the named column,
// both matched case-insensitively.
func (d *Descriptor) HasColumn(table, column string) bool {
	t := d.Table(table)
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, column) {
			return true
		}
	}
	return false
}

// TableNames returns the sorted table names.
func (d *Descriptor) TableNames() []string {
	names := make([]string, len(d.Tables))
	for i, t := range d.Tables {
		names[i] = t.Name
	}
	return names
}

// Render produces the compact textual schema description fed to the model.
// The output is fully determined by the descriptor contents.
func (d *Descriptor) Render() string {
	var b strings.Builder
	for i := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Tables[i].Render())
	}
	return b.String()
}

// Render produces the textual description of one table.
func (t *Table) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		b.WriteString("  ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.Type)
		if c.Key {
			b.WriteString(" PRIMARY KEY")
		}
		if !c.Nullable && !c.Key {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")\n")

	if len(t.SampleRows) > 0 {
		fmt.Fprintf(&b, "-- sample rows (%d):\n", len(t.SampleRows))
		for _, row := range t.SampleRows {
			fmt.Fprintf(&b, "--   (%s)\n", strings.Join(row, ", "))
		}
	}
	return b.String()
}
