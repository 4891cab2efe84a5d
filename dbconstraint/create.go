// SPDX-License-Identifier: Apache-2.0

// Package dbconstraint is the constraint engine: the only place that
// mutates the catalog's schema entries and refcount families, enforcing
// type-checking, primary-key uniqueness, and referential integrity for
// CREATE TABLE, DROP TABLE, INSERT, and DELETE.
package dbconstraint

import (
	"errors"

	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/schema"
)

// CreateTable validates t in isolation, resolves and checks every foreign
// key against the catalog, and on success stores the schema and bumps the
// referenced-table refcount for each foreign key. The returned Diagnostic
// is meaningful whenever err is nil; err is reserved for failures of the
// underlying store itself.
func CreateTable(cat *catalog.Catalog, t schema.Table) (dberr.Diagnostic, error) {
	if err := t.Validate(); err != nil {
		if d, isa := err.(dberr.Diagnostic); isa {
			return d, nil
		}
		return dberr.Diagnostic{}, err
	}

	t = t.WithNormalizedPrimaryKey()

	for _, fk := range t.ForeignKeys {
		refTable, isa, err := cat.GetTable(fk.RefTableName)
		if err != nil {
			return dberr.Diagnostic{}, err
		}
		if !isa {
			return dberr.Of(dberr.ReferenceTableExistence, fk.RefTableName), nil
		}

		if d, ok := checkForeignKey(t, fk, refTable); !ok {
			return d, nil
		}
	}

	if err := cat.PutTable(t); err != nil {
		if errors.Is(err, kvstore.ErrKeyExists) {
			return dberr.Of(dberr.TableExistence, t.Name), nil
		}
		return dberr.Diagnostic{}, err
	}

	for _, fk := range t.ForeignKeys {
		if err := cat.AddTableRefcnt(fk.RefTableName, 1); err != nil {
			return dberr.Diagnostic{}, err
		}
	}

	return dberr.Of(dberr.CreateTableSuccess, t.Name), nil
}

// checkForeignKey verifies fk (declared on t) against its already-resolved
// referenced table: every referenced column exists, every mapped local/
// referenced column pair shares a type class, and the mapping covers
// exactly the referenced table's primary key - no more, no less. Returns
// (zero, true) when fk is sound, or the Diagnostic to report and false
// otherwise.
func checkForeignKey(t schema.Table, fk dbtype.ForeignKey, refTable schema.Table) (dberr.Diagnostic, bool) {
	if !refTable.HasDeclaredPrimaryKey() {
		return dberr.Of(dberr.ReferenceNonPrimaryKey, fk.RefTableName), false
	}

	refColumnsSeen := map[string]bool{}
	for local, refColName := range fk.ColumnMap {
		refCol, isa := refTable.FindColumn(refColName)
		if !isa {
			return dberr.Of(dberr.ReferenceColumnExistence, refColName), false
		}
		refColumnsSeen[refColName] = true

		localCol, _ := t.FindColumn(local)
		if localCol.Type.Class != refCol.Type.Class {
			return dberr.Of(dberr.ReferenceType, local), false
		}
		// Matching type class already implies matching CHAR-length
		// presence (every CHAR column carries a length, every INT/DATE
		// column carries none); the reference's match_fkey compares only
		// that presence, not the length value itself, so CHAR(3) ->
		// CHAR(5) is a valid foreign key.
	}

	if len(refColumnsSeen) != len(refTable.PrimaryKey) {
		return dberr.Of(dberr.ReferenceNonPrimaryKey, fk.RefTableName), false
	}
	for _, p := range refTable.PrimaryKey {
		if !refColumnsSeen[p] {
			return dberr.Of(dberr.ReferenceNonPrimaryKey, fk.RefTableName), false
		}
	}

	return dberr.Diagnostic{}, true
}
