// SPDX-License-Identifier: Apache-2.0

package where

import (
	"strings"

	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
)

// ViewEntry is one column of the row-shape a predicate is validated
// against: the alias of the table it comes from, its name, and its type.
type ViewEntry struct {
	Alias  string
	Column string
	Type   dbtype.ColumnType
}

// View is the ordered concatenation of every table's columns named in a
// query's FROM clause, each re-tagged with that table's alias. Order is
// the order tables were listed, matching the order used to resolve
// unqualified-identifier ambiguity (first-to-last scan, counting matches).
type View struct {
	Entries []ViewEntry
	// Order is the list of aliases in FROM-clause order, used by Resolve
	// to check that a qualified identifier's alias names a listed table.
	Order []string
}

// ViewOfTables builds the composite View for a FROM clause: tables[i]'s
// columns, re-tagged with aliases[i], appended in order. Used both by
// SELECT (many tables) and by DELETE's single-table, single-alias
// predicate validation.
func ViewOfTables(tables []schema.Table, aliases []string) View {
	v := View{Order: aliases}
	for i, t := range tables {
		for _, c := range t.Columns {
			v.Entries = append(v.Entries, ViewEntry{Alias: aliases[i], Column: c.Name, Type: c.Type})
		}
	}

	return v
}

// Resolve locates the single view entry ident names. If ident.Alias is
// empty, it must match exactly one entry's column name (case-insensitive)
// across every aliased table; zero or more-than-one matches are errors.
func (v View) Resolve(ident record.Ident) (ViewEntry, error) {
	if ident.Alias != "" {
		found := false
		for _, alias := range v.Order {
			if alias == ident.Alias {
				found = true
				break
			}
		}
		if !found {
			return ViewEntry{}, dberr.Of(dberr.WhereTableNotSpecified, ident.Alias)
		}

		for _, e := range v.Entries {
			if e.Alias == ident.Alias && strings.EqualFold(e.Column, ident.Column) {
				return e, nil
			}
		}

		return ViewEntry{}, dberr.Of(dberr.WhereColumnNotExist, ident.Column)
	}

	var match *ViewEntry
	for i, e := range v.Entries {
		if strings.EqualFold(e.Column, ident.Column) {
			if match != nil {
				return ViewEntry{}, dberr.Of(dberr.WhereAmbiguousReference, ident.Column)
			}
			match = &v.Entries[i]
		}
	}

	if match == nil {
		return ViewEntry{}, dberr.Of(dberr.WhereColumnNotExist, ident.Column)
	}

	return *match, nil
}
