// SPDX-License-Identifier: Apache-2.0

// Package render formats the engine's three kinds of tabular output:
// SHOW TABLES, EXPLAIN, and SELECT's fixed-width result table.
package render

import (
	"fmt"
	"strings"

	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
)

// ShowTables renders a dashed-rule-bracketed list of table names.
func ShowTables(names []string) string {
	var b strings.Builder
	rule := "----------"
	b.WriteString(rule + "\n")
	for _, n := range names {
		b.WriteString(n + "\n")
	}
	b.WriteString(rule + "\n")

	return b.String()
}

// ExplainTable renders a table's column listing: a header naming the
// table, then one tab-separated row per column giving its name, type,
// nullability, and PRI/FOR key membership.
func ExplainTable(t schema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "table_name [%s]\n", t.Name)

	for _, c := range t.Columns {
		null := "YES"
		if !c.Type.Nullable {
			null = "NO"
		}

		key := t.ForeignKeyColumnKinds(c.Name)
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", c.Name, typeString(c.Type), null, key)
	}

	if !t.HasDeclaredPrimaryKey() {
		b.WriteString("(generated primary key)\n")
	}

	return b.String()
}

func typeString(t dbtype.ColumnType) string {
	if t.Class == dbtype.CHAR {
		return fmt.Sprintf("CHAR(%d)", t.Length)
	}

	return t.Class.String()
}

// SelectResult is a rendered SELECT's inputs: column names in display
// order, and rows whose values align to those names.
type SelectResult struct {
	Columns []string
	Rows    []record.Record
}

// Select renders r as a fixed-width ASCII table: a top rule, a header row,
// a separator rule, the body rows, and a closing rule. Each column's width
// is the max of its header and widest cell; every cell is padded with one
// leading and one trailing space.
func Select(r SelectResult) string {
	widths := make([]int, len(r.Columns))
	for i, name := range r.Columns {
		widths[i] = len(name)
	}

	cellText := make([][]string, len(r.Rows))
	for ri, row := range r.Rows {
		cellText[ri] = make([]string, len(r.Columns))
		for ci, name := range r.Columns {
			text := "NULL"
			if v, isa := row.Get(name); isa && !v.IsNull() {
				text = v.String()
			}
			cellText[ri][ci] = text
			if len(text) > widths[ci] {
				widths[ci] = len(text)
			}
		}
	}

	var b strings.Builder
	rule := buildRule(widths)

	b.WriteString(rule + "\n")
	b.WriteString(buildRow(r.Columns, widths) + "\n")
	b.WriteString(rule + "\n")
	for _, row := range cellText {
		b.WriteString(buildRow(row, widths) + "\n")
	}
	b.WriteString(rule + "\n")

	return b.String()
}

func buildRule(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}

	return b.String()
}

func buildRow(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, cell := range cells {
		b.WriteByte(' ')
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
		b.WriteByte(' ')
		b.WriteByte('|')
	}

	return b.String()
}
