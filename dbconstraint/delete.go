// SPDX-License-Identifier: Apache-2.0

package dbconstraint

import (
	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
	"github.com/kvrel/kvrel/where"
)

// deleteAlias is the single-table alias DELETE validates and evaluates its
// predicate against; DELETE has no FROM clause, so there is never more
// than one table and no user-visible alias to preserve.
const deleteAlias = ""

// Delete removes every row of tableName matching pred, a two-pass
// operation: pass one counts matches and checks each candidate row's
// per-row refcount, aborting the entire delete if any candidate is still
// referenced; pass two (only reached if pass one found nothing blocked)
// deletes each matching row and decrements the refcount of every row it
// referenced.
func Delete(cat *catalog.Catalog, tx *kvstore.Tx, tableName string, pred where.Node) (dberr.Diagnostic, error) {
	t, isa, err := cat.GetTable(tableName)
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if !isa {
		return dberr.Of(dberr.NoSuchTable, tableName), nil
	}

	view := where.ViewOfTables([]schema.Table{t}, []string{deleteAlias})
	if err := where.Validate(pred, view); err != nil {
		if d, isa := err.(dberr.Diagnostic); isa {
			return d, nil
		}
		return dberr.Diagnostic{}, err
	}

	ns, isa := tx.NamespaceReadOnly(catalog.TableNamespace(t.Name))
	if !isa {
		return dberr.OfCount(dberr.DeleteSuccess, t.Name, 0), nil
	}

	matchedKeys, blocked, err := deleteScanPass1(cat, t, ns, pred)
	if err != nil {
		return dberr.Diagnostic{}, err
	}
	if blocked {
		return dberr.OfCount(dberr.ReferentialIntegrityPassed, t.Name, len(matchedKeys)), nil
	}

	if err := deleteScanPass2(cat, tx, t, pred); err != nil {
		return dberr.Diagnostic{}, err
	}

	return dberr.OfCount(dberr.DeleteSuccess, t.Name, len(matchedKeys)), nil
}

func deleteScanPass1(cat *catalog.Catalog, t schema.Table, ns *kvstore.Namespace, pred where.Node) ([][]byte, bool, error) {
	var matched [][]byte
	blocked := false

	cur := ns.Cursor()
	for {
		k, v, ok := cur.Next()
		if !ok {
			break
		}

		ok, err := rowMatches(t, v, pred)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		key := append([]byte(nil), k...)
		matched = append(matched, key)

		refcnt, err := cat.GetRowRefcnt(t.Name, key)
		if err != nil {
			return nil, false, err
		}
		if refcnt != 0 {
			blocked = true
		}
	}

	return matched, blocked, nil
}

func deleteScanPass2(cat *catalog.Catalog, tx *kvstore.Tx, t schema.Table, pred where.Node) error {
	ns, err := tx.Namespace(catalog.TableNamespace(t.Name))
	if err != nil {
		return err
	}

	cur := ns.Cursor()
	for {
		_, v, ok := cur.Next()
		if !ok {
			break
		}

		matched, err := rowMatches(t, v, pred)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		rec, err := record.DecodeRow(v)
		if err != nil {
			return err
		}

		if err := cur.DeleteCurrent(); err != nil {
			return err
		}

		for _, fk := range t.ForeignKeys {
			refTable, isa, err := cat.GetTable(fk.RefTableName)
			if err != nil {
				return err
			}
			if !isa {
				continue
			}

			refKey, resolved, err := record.ForeignKeyReferencePKey(fk, refTable, rec)
			if err != nil {
				return err
			}
			if !resolved {
				continue
			}

			if err := cat.AddRowRefcnt(refTable.Name, refKey, -1); err != nil {
				return err
			}
		}
	}

	return nil
}

func rowMatches(t schema.Table, encoded []byte, pred where.Node) (bool, error) {
	rec, err := record.DecodeRow(encoded)
	if err != nil {
		return false, err
	}

	qrec := record.QualifiedRecord{Tables: map[string]record.Record{deleteAlias: rec}}
	return where.Evaluate(pred, qrec, []string{deleteAlias})
}
