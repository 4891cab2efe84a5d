// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"crypto/rand"
	"errors"
	"sort"
	"strings"

	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dbconstraint"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/render"
	"github.com/kvrel/kvrel/schema"
	"github.com/kvrel/kvrel/where"
)

// ErrResultTooLarge is returned by Select when a query's matched row count
// exceeds the Engine's configured maxResultRows. It is a plain Go error,
// not a dberr.Diagnostic: spec.md's error taxonomy (§7) is closed over
// user-visible statement outcomes, and this cap is an ambient resource
// guard the config layer adds on top of it, not one of those outcomes.
var ErrResultTooLarge = errors.New("engine: result set exceeds the configured row limit")

// Engine ties the catalog, the constraint engine, the WHERE evaluator, and
// the result renderer together into one command-at-a-time executor: every
// exported method opens exactly one kvstore transaction, runs the command
// to completion inside it, and returns its outcome (a Diagnostic, a
// rendered string, or a SelectResult) or an error.
type Engine struct {
	store         *kvstore.Store
	randomBytes   func(n int) ([]byte, error)
	maxResultRows int
}

// New wraps an already-open Store. randomBytes mints primary keys for
// tables without a declared one; a nil value defaults to crypto/rand.
// maxResultRows caps how many rows a single SELECT may materialize before
// Select gives up with an error; 0 means unlimited, matching spec.md's
// documented non-goal of bounded-memory results - this cap is a config-
// driven safety valve on top of that non-goal, not a spec requirement.
func New(store *kvstore.Store, randomBytes func(n int) ([]byte, error), maxResultRows int) *Engine {
	if randomBytes == nil {
		randomBytes = cryptoRandomBytes
	}

	return &Engine{store: store, randomBytes: randomBytes, maxResultRows: maxResultRows}
}

func cryptoRandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// CreateTable runs a CREATE TABLE command to completion.
func (e *Engine) CreateTable(cmd CreateTableCommand) (dberr.Diagnostic, error) {
	var diag dberr.Diagnostic
	err := e.store.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		if err != nil {
			return err
		}

		diag, err = dbconstraint.CreateTable(cat, cmd.Table)
		return err
	})

	return diag, err
}

// DropTable runs a DROP TABLE command to completion.
func (e *Engine) DropTable(cmd DropTableCommand) (dberr.Diagnostic, error) {
	var diag dberr.Diagnostic
	err := e.store.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		if err != nil {
			return err
		}

		diag, err = dbconstraint.DropTable(cat, cmd.Name)
		return err
	})

	return diag, err
}

// Insert runs an INSERT command to completion.
func (e *Engine) Insert(cmd InsertCommand) (dberr.Diagnostic, error) {
	var diag dberr.Diagnostic
	err := e.store.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		if err != nil {
			return err
		}

		diag, err = dbconstraint.Insert(cat, tx, cmd.TableName, cmd.Columns, cmd.Values, e.randomBytes)
		return err
	})

	return diag, err
}

// Delete runs a DELETE command to completion.
func (e *Engine) Delete(cmd DeleteCommand) (dberr.Diagnostic, error) {
	pred := cmd.Where
	if !cmd.HasWhere {
		pred = where.OfTrue()
	}

	var diag dberr.Diagnostic
	err := e.store.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		if err != nil {
			return err
		}

		diag, err = dbconstraint.Delete(cat, tx, cmd.TableName, pred)
		return err
	})

	return diag, err
}

// ShowTables lists every table name currently in the catalog.
func (e *Engine) ShowTables(_ ShowTablesCommand) (string, error) {
	var names []string
	err := e.store.View(func(tx *kvstore.Tx) error {
		cat, isa := catalog.OpenReadOnly(tx)
		if !isa {
			return nil
		}

		return cat.IterateTableNames(func(name string) error {
			names = append(names, name)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	sort.Strings(names)

	return render.ShowTables(names), nil
}

// ExplainTable renders name's column layout, or dberr.NoSuchTable if it
// does not exist.
func (e *Engine) ExplainTable(cmd ExplainTableCommand) (string, dberr.Diagnostic, error) {
	var t schema.Table
	var found bool
	err := e.store.View(func(tx *kvstore.Tx) error {
		cat, isa := catalog.OpenReadOnly(tx)
		if !isa {
			return nil
		}

		var err error
		t, found, err = cat.GetTable(cmd.Name)
		return err
	})
	if err != nil {
		return "", dberr.Diagnostic{}, err
	}
	if !found {
		return "", dberr.Of(dberr.NoSuchTable, cmd.Name), nil
	}

	return render.ExplainTable(t), dberr.Diagnostic{}, nil
}

// resolvedTable pairs a TableRef with its schema, once resolved from the
// catalog, and the alias the rest of SELECT should address it by.
type resolvedTable struct {
	alias string
	table schema.Table
}

// aliasOf returns ref's addressing alias: the alias it was given, or its
// own table name when none was.
func aliasOf(ref TableRef) string {
	if ref.Alias != "" {
		return ref.Alias
	}

	return ref.Name
}

// Select runs a SELECT command to completion. ok is false when diag
// explains why the statement could not run (bad table/column reference);
// result and diag are otherwise mutually exclusive.
func (e *Engine) Select(cmd SelectCommand) (result render.SelectResult, diag dberr.Diagnostic, ok bool, err error) {
	err = e.store.View(func(tx *kvstore.Tx) error {
		cat, isa := catalog.OpenReadOnly(tx)
		if !isa {
			diag = dberr.Of(dberr.SelectTableExistence, cmd.Tables[0].Name)
			return nil
		}

		resolved := make([]resolvedTable, 0, len(cmd.Tables))
		for _, ref := range cmd.Tables {
			t, found, err := cat.GetTable(ref.Name)
			if err != nil {
				return err
			}
			if !found {
				diag = dberr.Of(dberr.SelectTableExistence, ref.Name)
				return nil
			}
			resolved = append(resolved, resolvedTable{alias: aliasOf(ref), table: t})
		}

		tables := make([]schema.Table, len(resolved))
		aliases := make([]string, len(resolved))
		for i, rt := range resolved {
			tables[i] = rt.table
			aliases[i] = rt.alias
		}
		view := where.ViewOfTables(tables, aliases)

		columns, projDiag, projOK := resolveProjection(cmd, view)
		if !projOK {
			diag = projDiag
			return nil
		}

		pred := cmd.Where
		if !cmd.HasWhere {
			pred = where.OfTrue()
		}
		if verr := where.Validate(pred, view); verr != nil {
			if d, isa := verr.(dberr.Diagnostic); isa {
				diag = d
				return nil
			}
			return verr
		}

		rowSets := make([][]record.Record, len(resolved))
		for i, rt := range resolved {
			ns, isa := tx.NamespaceReadOnly(catalog.TableNamespace(rt.table.Name))
			if !isa {
				continue
			}

			cur := ns.Cursor()
			for {
				_, v, hasNext := cur.Next()
				if !hasNext {
					break
				}

				rec, derr := record.DecodeRow(v)
				if derr != nil {
					return derr
				}
				rowSets[i] = append(rowSets[i], rec)
			}
		}

		var rows []record.Record
		cerr := cartesianProduct(resolved, rowSets, 0, record.QualifiedRecord{Tables: map[string]record.Record{}}, func(qrec record.QualifiedRecord) error {
			matched, eerr := where.Evaluate(pred, qrec, aliases)
			if eerr != nil {
				return eerr
			}
			if !matched {
				return nil
			}

			projected, perr := projectRow(cmd, qrec, aliases, columns)
			if perr != nil {
				return perr
			}
			rows = append(rows, projected)
			if e.maxResultRows > 0 && len(rows) > e.maxResultRows {
				return ErrResultTooLarge
			}
			return nil
		})
		if cerr != nil {
			return cerr
		}

		result = render.SelectResult{Columns: columns, Rows: rows}
		ok = true
		return nil
	})

	return result, diag, ok, err
}

// resolveProjection computes SELECT's output column list: for SELECT *,
// every view entry's column name, after checking case-insensitive
// uniqueness across the whole view; for an explicit projection, each
// ident's output alias, after checking every ident resolves and every
// output alias is unique. ok is false on failure, with diag explaining why.
func resolveProjection(cmd SelectCommand, view where.View) (columns []string, diag dberr.Diagnostic, ok bool) {
	if !cmd.HasProjection {
		seen := map[string]bool{}
		columns = make([]string, 0, len(view.Entries))
		for _, e := range view.Entries {
			lower := strings.ToLower(e.Column)
			if seen[lower] {
				return nil, dberr.Of(dberr.SelectColumnResolve, e.Column), false
			}
			seen[lower] = true
			columns = append(columns, e.Column)
		}

		return columns, dberr.Diagnostic{}, true
	}

	seenOut := map[string]bool{}
	columns = make([]string, 0, len(cmd.Projection))
	for _, item := range cmd.Projection {
		entry, err := view.Resolve(item.Ident)
		if err != nil {
			if d, isa := err.(dberr.Diagnostic); isa {
				return nil, dberr.Of(dberr.SelectColumnResolve, d.Name), false
			}
			return nil, dberr.Of(dberr.SelectColumnResolve, item.Ident.Column), false
		}

		out := item.AliasOut
		if out == "" {
			out = entry.Column
		}
		lower := strings.ToLower(out)
		if seenOut[lower] {
			return nil, dberr.Of(dberr.SelectColumnResolve, out), false
		}
		seenOut[lower] = true
		columns = append(columns, out)
	}

	return columns, dberr.Diagnostic{}, true
}

// projectRow builds one output row from a matched qualified record: the
// unqualified flattening of every joined table for SELECT *, or each
// projected ident's value renamed to its output column name otherwise.
func projectRow(cmd SelectCommand, qrec record.QualifiedRecord, order, columns []string) (record.Record, error) {
	if !cmd.HasProjection {
		return qrec.Unqual(order).Project(columns), nil
	}

	values := make(map[string]dbtype.Attribute, len(cmd.Projection))
	for i, item := range cmd.Projection {
		attr, err := qrec.Find(item.Ident, order)
		if err != nil {
			return record.Record{}, err
		}
		values[columns[i]] = attr
	}

	return record.New(values), nil
}

// cartesianProduct enumerates the n-ary cross product of rowSets[0..] in
// lexicographic order over cursor order (rowSets[i] is already in that
// order), invoking fn once per combination with a QualifiedRecord keyed by
// each table's alias.
func cartesianProduct(resolved []resolvedTable, rowSets [][]record.Record, i int, acc record.QualifiedRecord, fn func(record.QualifiedRecord) error) error {
	if i == len(resolved) {
		return fn(acc)
	}

	for _, row := range rowSets[i] {
		next := record.QualifiedRecord{Tables: make(map[string]record.Record, len(acc.Tables)+1)}
		for k, v := range acc.Tables {
			next.Tables[k] = v
		}
		next.Tables[resolved[i].alias] = row

		if err := cartesianProduct(resolved, rowSets, i+1, next, fn); err != nil {
			return err
		}
	}

	return nil
}
