// SPDX-License-Identifier: Apache-2.0

package dbconstraint

import (
	"path/filepath"
	"testing"

	"github.com/kvrel/kvrel/catalog"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
	"github.com/kvrel/kvrel/where"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	s, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func zeroRand(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func departmentTable() schema.Table {
	return schema.Table{
		Name:       "department",
		Columns:    []dbtype.Column{{Name: "id", Type: dbtype.NewInt(false)}, {Name: "name", Type: dbtype.NewChar(20, false)}},
		PrimaryKey: []string{"id"},
	}
}

func employeeTable() schema.Table {
	return schema.Table{
		Name: "employee",
		Columns: []dbtype.Column{
			{Name: "id", Type: dbtype.NewInt(false)},
			{Name: "dept_id", Type: dbtype.NewInt(true)},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []dbtype.ForeignKey{
			{ColumnMap: map[string]string{"dept_id": "id"}, RefTableName: "department"},
		},
	}
}

func TestCreateTable_SuccessThenDuplicate(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)

		d, err := CreateTable(cat, departmentTable())
		require.NoError(t, err)
		assert.Equal(t, dberr.CreateTableSuccess, d.Kind)

		d, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)
		assert.Equal(t, dberr.TableExistence, d.Kind)
		return nil
	}))
}

func TestCreateTable_ReferenceTableExistence(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)

		d, err := CreateTable(cat, employeeTable())
		require.NoError(t, err)
		assert.Equal(t, dberr.ReferenceTableExistence, d.Kind)
		return nil
	}))
}

func TestCreateTable_ForeignKeyAllowsDifferingCharLength(t *testing.T) {
	s := openTestStore(t)

	codeTable := schema.Table{
		Name:       "code",
		Columns:    []dbtype.Column{{Name: "code", Type: dbtype.NewChar(5, false)}},
		PrimaryKey: []string{"code"},
	}
	referencing := schema.Table{
		Name:       "item",
		Columns:    []dbtype.Column{{Name: "id", Type: dbtype.NewInt(false)}, {Name: "code", Type: dbtype.NewChar(3, false)}},
		PrimaryKey: []string{"id"},
		ForeignKeys: []dbtype.ForeignKey{
			{ColumnMap: map[string]string{"code": "code"}, RefTableName: "code"},
		},
	}

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)

		_, err = CreateTable(cat, codeTable)
		require.NoError(t, err)

		d, err := CreateTable(cat, referencing)
		require.NoError(t, err)
		assert.Equal(t, dberr.CreateTableSuccess, d.Kind, "CHAR(3) referencing CHAR(5) is a valid foreign key: only type class and length presence must match")
		return nil
	}))
}

func TestCreateTable_BumpsReferencedTableRefcnt(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)

		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)

		d, err := CreateTable(cat, employeeTable())
		require.NoError(t, err)
		assert.Equal(t, dberr.CreateTableSuccess, d.Kind)

		n, err := cat.GetTableRefcnt("department")
		require.NoError(t, err)
		assert.Equal(t, int32(1), n)
		return nil
	}))
}

func TestDropTable_Referenced(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)
		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)
		_, err = CreateTable(cat, employeeTable())
		require.NoError(t, err)

		d, err := DropTable(cat, "department")
		require.NoError(t, err)
		assert.Equal(t, dberr.DropReferenced, d.Kind)

		d, err = DropTable(cat, "employee")
		require.NoError(t, err)
		assert.Equal(t, dberr.DropTableSuccess, d.Kind)

		d, err = DropTable(cat, "department")
		require.NoError(t, err)
		assert.Equal(t, dberr.DropTableSuccess, d.Kind)
		return nil
	}))
}

func TestInsert_DuplicatePrimaryKey(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)
		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)

		vals := []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("eng")}
		d, err := Insert(cat, tx, "department", nil, vals, zeroRand)
		require.NoError(t, err)
		assert.Equal(t, dberr.InsertSuccess, d.Kind)

		d, err = Insert(cat, tx, "department", nil, vals, zeroRand)
		require.NoError(t, err)
		assert.Equal(t, dberr.DuplicatePrimaryKey, d.Kind)
		return nil
	}))
}

func TestInsert_CharTruncation(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)

		tbl := schema.Table{Name: "c", Columns: []dbtype.Column{{Name: "s", Type: dbtype.NewChar(3, false)}}}
		_, err = CreateTable(cat, tbl)
		require.NoError(t, err)

		d, err := Insert(cat, tx, "c", nil, []dbtype.Attribute{dbtype.OfStr("abcdef")}, zeroRand)
		require.NoError(t, err)
		assert.Equal(t, dberr.InsertSuccess, d.Kind)

		ns, isa := tx.NamespaceReadOnly(catalog.TableNamespace("c"))
		require.True(t, isa)
		cur := ns.Cursor()
		_, v, ok := cur.Next()
		require.True(t, ok)
		rec, err := record.DecodeRow(v)
		require.NoError(t, err)
		s, isa := rec.Get("s")
		require.True(t, isa)
		assert.Equal(t, "abc", s.MustStr())
		return nil
	}))
}

func TestInsert_ReferentialIntegrity(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)
		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)
		_, err = CreateTable(cat, employeeTable())
		require.NoError(t, err)

		d, err := Insert(cat, tx, "employee", nil, []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfInt64(99)}, zeroRand)
		require.NoError(t, err)
		assert.Equal(t, dberr.ReferentialIntegrity, d.Kind)
		assert.Equal(t, "dept_id", d.Name, "diagnostic names the foreign key's local column, stable across runs")
		return nil
	}))
}

func TestInsert_NullForeignKeyIsWaived(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)
		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)
		_, err = CreateTable(cat, employeeTable())
		require.NoError(t, err)

		d, err := Insert(cat, tx, "employee", nil, []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfNull()}, zeroRand)
		require.NoError(t, err)
		assert.Equal(t, dberr.InsertSuccess, d.Kind)
		return nil
	}))
}

func TestInsertThenDelete_Symmetry(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		cat, err := catalog.Open(tx)
		require.NoError(t, err)
		_, err = CreateTable(cat, departmentTable())
		require.NoError(t, err)
		_, err = CreateTable(cat, employeeTable())
		require.NoError(t, err)

		_, err = Insert(cat, tx, "department", nil, []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("eng")}, zeroRand)
		require.NoError(t, err)
		_, err = Insert(cat, tx, "employee", nil, []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfInt64(1)}, zeroRand)
		require.NoError(t, err)

		n, err := cat.GetRowRefcnt("department", []byte("[1]"))
		require.NoError(t, err)
		assert.Equal(t, int32(1), n)

		pred := where.OfComp(where.OperandOfIdent(record.Ident{Column: "id"}), where.Equal, where.OperandOfLiteral(dbtype.OfInt64(1)))
		d, err := Delete(cat, tx, "department", pred)
		require.NoError(t, err)
		assert.Equal(t, dberr.ReferentialIntegrityPassed, d.Kind, "department row 1 is still referenced by employee")

		d, err = Delete(cat, tx, "employee", pred)
		require.NoError(t, err)
		assert.Equal(t, dberr.DeleteSuccess, d.Kind)

		n, err = cat.GetRowRefcnt("department", []byte("[1]"))
		require.NoError(t, err)
		assert.Equal(t, int32(0), n, "deleting the referencing row restores the refcount")

		d, err = Delete(cat, tx, "department", pred)
		require.NoError(t, err)
		assert.Equal(t, dberr.DeleteSuccess, d.Kind)
		return nil
	}))
}

