// SPDX-License-Identifier: Apache-2.0

package dbconstraint

import (
	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dberr"
)

// DropTable removes name's schema entry, rejecting the drop if any other
// table still references it. The table's row namespace is left in place -
// spec.md does not require tearing it down atomically with the schema, and
// a dropped name can no longer be reached through the catalog regardless.
func DropTable(cat *catalog.Catalog, name string) (dberr.Diagnostic, error) {
	t, isa, err := cat.GetTable(name)
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if !isa {
		return dberr.Of(dberr.NoSuchTable, name), nil
	}

	refcnt, err := cat.GetTableRefcnt(t.Name)
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if refcnt != 0 {
		return dberr.Of(dberr.DropReferenced, t.Name), nil
	}

	if err := cat.DeleteTable(t.Name); err != nil {
		return dberr.Diagnostic{}, err
	}

	for _, fk := range t.ForeignKeys {
		if err := cat.AddTableRefcnt(fk.RefTableName, -1); err != nil {
			return dberr.Diagnostic{}, err
		}
	}

	return dberr.Of(dberr.DropTableSuccess, t.Name), nil
}
