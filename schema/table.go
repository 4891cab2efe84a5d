// SPDX-License-Identifier: Apache-2.0

// Package schema defines Table, the catalog's unit of storage: a name, its
// column definitions, its declared primary key (if any), and the foreign
// keys it declares against other tables.
package schema

import (
	"strings"

	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
)

// Table is a catalog entry: everything CREATE TABLE fixes for the lifetime
// of the table.
type Table struct {
	Name    string
	Columns []dbtype.Column
	// PrimaryKey is the ordered list of column names forming the primary
	// key. Empty means the table has no declared primary key, and rows are
	// keyed by a generated identifier instead (see record.PrimaryKey).
	PrimaryKey []string
	ForeignKeys []dbtype.ForeignKey
}

// HasDeclaredPrimaryKey reports whether this table has an explicit primary
// key, as opposed to relying on a generated row identifier. Carried as its
// own predicate (rather than len(PrimaryKey) > 0 scattered at call sites) so
// render/EXPLAIN can mark generated-key tables distinctly.
func (t Table) HasDeclaredPrimaryKey() bool {
	return len(t.PrimaryKey) > 0
}

// FindColumn returns the column named name, matched case-insensitively per
// spec.md's "column names within a table are unique (compared
// case-insensitively)", and whether it exists.
func (t Table) FindColumn(name string) (dbtype.Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}

	return dbtype.Column{}, false
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}

	return names
}

// IsPrimaryKeyColumn reports whether name is one of t's primary key
// columns, matched case-insensitively.
func (t Table) IsPrimaryKeyColumn(name string) bool {
	for _, p := range t.PrimaryKey {
		if strings.EqualFold(p, name) {
			return true
		}
	}

	return false
}

// ForeignKeyColumnKinds returns, for EXPLAIN, the "/"-joined subset of
// {PRI, FOR} that describes name's role in the table, in that order, or ""
// if name is neither a primary nor a foreign key column.
func (t Table) ForeignKeyColumnKinds(name string) string {
	kinds := ""
	if t.IsPrimaryKeyColumn(name) {
		kinds = "PRI"
	}

	for _, fk := range t.ForeignKeys {
		if _, isa := fk.ColumnMap[name]; isa {
			if kinds != "" {
				kinds += "/"
			}
			kinds += "FOR"
			break
		}
	}

	return kinds
}

// WithNormalizedPrimaryKey returns a copy of t with every primary key
// column forced non-nullable, the implicit coercion spec.md describes
// ("columns appearing in the primary key are implicitly non-nullable") -
// not a validation failure, a silent normalization CREATE TABLE applies
// before storing the schema.
func (t Table) WithNormalizedPrimaryKey() Table {
	if len(t.PrimaryKey) == 0 {
		return t
	}

	cols := make([]dbtype.Column, len(t.Columns))
	copy(cols, t.Columns)
	for i, c := range cols {
		if t.IsPrimaryKeyColumn(c.Name) {
			cols[i].Type.Nullable = false
		}
	}
	t.Columns = cols

	return t
}

// Validate checks the invariants a Table must satisfy on its own, without
// consulting the catalog for the tables it references: no column declared
// twice, every CHAR column has a positive length, no primary-key column
// listed twice, and every primary-key or foreign-key local column name is
// actually declared. A foreign key naming this table itself is deliberately
// not checked here: this table cannot exist in the catalog yet while it is
// being validated, so such a foreign key fails the constraint engine's
// reference-table-existence check instead, with no special case needed.
func (t Table) Validate() error {
	seenCol := map[string]bool{}
	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		if seenCol[lower] {
			return dberr.Of(dberr.DuplicateColumnDef, c.Name)
		}
		seenCol[lower] = true

		if c.Type.Class == dbtype.CHAR && c.Type.Length <= 0 {
			return dberr.Of(dberr.CharLength, c.Name)
		}
	}

	seenPK := map[string]bool{}
	for _, p := range t.PrimaryKey {
		lower := strings.ToLower(p)
		if seenPK[lower] {
			return dberr.Of(dberr.DuplicatePrimaryKeyDef, p)
		}
		seenPK[lower] = true

		if _, isa := t.FindColumn(p); !isa {
			return dberr.Of(dberr.NonExistingColumnDef, p)
		}
	}

	for _, fk := range t.ForeignKeys {
		for local := range fk.ColumnMap {
			if _, isa := t.FindColumn(local); !isa {
				return dberr.Of(dberr.NonExistingColumnDef, local)
			}
		}
	}

	return nil
}
