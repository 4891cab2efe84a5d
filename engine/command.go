// SPDX-License-Identifier: Apache-2.0

// Package engine implements the executor: it dispatches one structured
// command per parsed statement against the catalog, the constraint engine,
// and the WHERE evaluator, and renders a result.
package engine

import (
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
	"github.com/kvrel/kvrel/where"
)

// TableRef names a table and the alias it is addressed by in a FROM list.
// Alias is "" when the statement gave none, in which case the table's own
// name is also its addressing alias (see aliasOf).
type TableRef struct {
	Name  string
	Alias string
}

// ProjectionItem is one (ident, output-alias) pair of a SELECT's column list.
type ProjectionItem struct {
	Ident   record.Ident
	AliasOut string
}

// CreateTableCommand carries a fully-formed table definition to validate
// and persist.
type CreateTableCommand struct {
	Table schema.Table
}

// DropTableCommand names a table to remove.
type DropTableCommand struct {
	Name string
}

// InsertCommand carries one row's values for TableName. Columns is nil for
// a positional INSERT; otherwise it names which column each value in
// Values corresponds to.
type InsertCommand struct {
	TableName string
	Columns   []string
	Values    []dbtype.Attribute
}

// DeleteCommand removes every row of TableName matching Where. When HasWhere
// is false, Where is ignored and every row matches.
type DeleteCommand struct {
	TableName string
	Where     where.Node
	HasWhere  bool
}

// SelectCommand names the tables to read, an optional column projection,
// and an optional predicate. HasProjection false means SELECT *.
type SelectCommand struct {
	Projection   []ProjectionItem
	HasProjection bool
	Tables       []TableRef
	Where        where.Node
	HasWhere     bool
}

// ShowTablesCommand lists every table name in the catalog.
type ShowTablesCommand struct{}

// ExplainTableCommand describes one table's column layout.
type ExplainTableCommand struct {
	Name string
}
