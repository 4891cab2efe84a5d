// SPDX-License-Identifier: Apache-2.0

package dbconstraint

import (
	"errors"
	"strings"

	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
)

// Insert inserts one row into tableName. columns is nil for a positional
// INSERT (one value per declared column, in schema order); otherwise it
// names which columns values supplies, in the same order, with every other
// column defaulting to NULL. randomBytes mints a row key for tables with no
// declared primary key.
func Insert(
	cat *catalog.Catalog,
	tx *kvstore.Tx,
	tableName string,
	columns []string,
	values []dbtype.Attribute,
	randomBytes func(n int) ([]byte, error),
) (dberr.Diagnostic, error) {
	t, isa, err := cat.GetTable(tableName)
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if !isa {
		return dberr.Of(dberr.NoSuchTable, tableName), nil
	}

	resolvedColumns, diag, ok := resolveInsertColumns(t, columns, values)
	if !ok {
		return diag, nil
	}

	row := map[string]dbtype.Attribute{}
	for _, c := range t.Columns {
		row[c.Name] = dbtype.OfNull()
	}
	for i, name := range resolvedColumns {
		row[name] = values[i]
	}

	for _, c := range t.Columns {
		checked, diag, ok := checkAndCoerce(c, row[c.Name])
		if !ok {
			return diag, nil
		}
		row[c.Name] = checked
	}

	rec := record.New(row)

	type pendingRefcnt struct {
		tableName string
		pkey      []byte
	}
	var pending []pendingRefcnt

	for _, fk := range t.ForeignKeys {
		refTable, isa, err := cat.GetTable(fk.RefTableName)
		if err != nil {
			return dberr.Diagnostic{}, err
		}
		if !isa {
			return dberr.Diagnostic{}, errors.New("dbconstraint: foreign key references a table no longer in the catalog")
		}

		refKey, resolved, err := record.ForeignKeyReferencePKey(fk, refTable, rec)
		if err != nil {
			return dberr.Diagnostic{}, err
		}
		if !resolved {
			continue
		}

		refNS, isa := tx.NamespaceReadOnly(catalog.TableNamespace(refTable.Name))
		if !isa {
			return dberr.Of(dberr.ReferentialIntegrity, firstLocalColumn(t, fk)), nil
		}
		if _, isa := refNS.Get(refKey); !isa {
			return dberr.Of(dberr.ReferentialIntegrity, firstLocalColumn(t, fk)), nil
		}

		pending = append(pending, pendingRefcnt{tableName: refTable.Name, pkey: refKey})
	}

	pkey, err := record.PrimaryKey(t, rec, randomBytes)
	if err != nil {
		return dberr.Diagnostic{}, err
	}

	encoded, err := record.EncodeRow(t, rec)
	if err != nil {
		return dberr.Diagnostic{}, err
	}

	ns, err := tx.Namespace(catalog.TableNamespace(t.Name))
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if err := ns.Put(pkey, encoded, true); err != nil {
		if errors.Is(err, kvstore.ErrKeyExists) {
			return dberr.OfKind(dberr.DuplicatePrimaryKey), nil
		}
		return dberr.Diagnostic{}, err
	}

	for _, p := range pending {
		if err := cat.AddRowRefcnt(p.tableName, p.pkey, 1); err != nil {
			return dberr.Diagnostic{}, err
		}
	}

	return dberr.Of(dberr.InsertSuccess, t.Name), nil
}

// firstLocalColumn returns fk's first local column in t's declared column
// order, so a referential-integrity diagnostic's payload is reproducible
// across runs rather than depending on Go's randomized map iteration.
func firstLocalColumn(t schema.Table, fk dbtype.ForeignKey) string {
	for _, c := range t.Columns {
		if _, isa := fk.ColumnMap[c.Name]; isa {
			return c.Name
		}
	}
	return ""
}

// resolveInsertColumns determines, for an INSERT, which column each value
// in values corresponds to: the user-given column list if present
// (checked for duplicates and unknown names), otherwise the table's full
// column list positionally.
func resolveInsertColumns(t schema.Table, columns []string, values []dbtype.Attribute) ([]string, dberr.Diagnostic, bool) {
	if columns == nil {
		if len(values) != len(t.Columns) {
			return nil, dberr.OfKind(dberr.TypeMismatch), false
		}
		return t.ColumnNames(), dberr.Diagnostic{}, true
	}

	if len(columns) != len(values) {
		return nil, dberr.OfKind(dberr.TypeMismatch), false
	}

	seen := map[string]bool{}
	resolved := make([]string, len(columns))
	for i, name := range columns {
		lower := strings.ToLower(name)
		if seen[lower] {
			return nil, dberr.OfKind(dberr.TypeMismatch), false
		}
		seen[lower] = true

		col, isa := t.FindColumn(name)
		if !isa {
			return nil, dberr.Of(dberr.ColumnExistence, name), false
		}
		resolved[i] = col.Name
	}

	return resolved, dberr.Diagnostic{}, true
}

// checkAndCoerce validates attr against c's declared type, truncating an
// over-length CHAR value rather than rejecting it (spec.md: CHAR values
// are truncated to the declared cap, no error on overflow).
func checkAndCoerce(c dbtype.Column, attr dbtype.Attribute) (dbtype.Attribute, dberr.Diagnostic, bool) {
	if attr.IsNull() {
		if !c.Type.Nullable {
			return attr, dberr.Of(dberr.ColumnNonNullable, c.Name), false
		}
		return attr, dberr.Diagnostic{}, true
	}

	switch c.Type.Class {
	case dbtype.INT:
		if attr.Which() != dbtype.Int64 {
			return attr, dberr.Of(dberr.TypeMismatch, c.Name), false
		}
	case dbtype.DATE:
		if attr.Which() != dbtype.Date {
			return attr, dberr.Of(dberr.TypeMismatch, c.Name), false
		}
	case dbtype.CHAR:
		if attr.Which() != dbtype.Str {
			return attr, dberr.Of(dberr.TypeMismatch, c.Name), false
		}
		s := attr.MustStr()
		if len(s) > c.Type.Length {
			attr = dbtype.OfStr(s[:c.Type.Length])
		}
	}

	return attr, dberr.Diagnostic{}, true
}
