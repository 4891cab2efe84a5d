// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"path/filepath"
	"testing"

	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/record"
	"github.com/kvrel/kvrel/schema"
	"github.com/kvrel/kvrel/where"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroRand(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return New(s, zeroRand, 0)
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
			{Name: "name", Type: dbtype.NewChar(20, false)},
			{Name: "dept_id", Type: dbtype.NewInt(true)},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []dbtype.ForeignKey{
			{ColumnMap: map[string]string{"dept_id": "id"}, RefTableName: "department"},
		},
	}
}

func TestEngine_CreateShowExplain(t *testing.T) {
	e := newTestEngine(t)

	d, err := e.CreateTable(CreateTableCommand{Table: departmentTable()})
	require.NoError(t, err)
	assert.True(t, dberr.IsSuccess(d.Kind))

	out, err := e.ShowTables(ShowTablesCommand{})
	require.NoError(t, err)
	assert.Contains(t, out, "department\n")

	explained, diag, err := e.ExplainTable(ExplainTableCommand{Name: "department"})
	require.NoError(t, err)
	assert.True(t, dberr.IsSuccess(diag.Kind))
	assert.Contains(t, explained, "table_name [department]")
	assert.Contains(t, explained, "id\tINT\tNO\tPRI")

	_, diag, err = e.ExplainTable(ExplainTableCommand{Name: "nope"})
	require.NoError(t, err)
	assert.Equal(t, dberr.NoSuchTable, diag.Kind)
}

func TestEngine_InsertThenSelectStar(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTable(CreateTableCommand{Table: departmentTable()})
	require.NoError(t, err)

	_, err = e.Insert(InsertCommand{TableName: "department", Values: []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("eng")}})
	require.NoError(t, err)
	_, err = e.Insert(InsertCommand{TableName: "department", Values: []dbtype.Attribute{dbtype.OfInt64(2), dbtype.OfStr("ops")}})
	require.NoError(t, err)

	result, diag, ok, err := e.Select(SelectCommand{Tables: []TableRef{{Name: "department"}}})
	require.NoError(t, err)
	require.True(t, ok, diag)
	assert.ElementsMatch(t, []string{"id", "name"}, result.Columns)
	assert.Len(t, result.Rows, 2)
}

func TestEngine_SelectJoinWithWhere(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTable(CreateTableCommand{Table: departmentTable()})
	require.NoError(t, err)
	_, err = e.CreateTable(CreateTableCommand{Table: employeeTable()})
	require.NoError(t, err)

	_, err = e.Insert(InsertCommand{TableName: "department", Values: []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("eng")}})
	require.NoError(t, err)
	_, err = e.Insert(InsertCommand{TableName: "employee", Values: []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("ada"), dbtype.OfInt64(1)}})
	require.NoError(t, err)
	_, err = e.Insert(InsertCommand{TableName: "employee", Values: []dbtype.Attribute{dbtype.OfInt64(2), dbtype.OfStr("bob"), dbtype.OfNull()}})
	require.NoError(t, err)

	pred := where.OfComp(
		where.OperandOfIdent(record.Ident{Alias: "e", Column: "dept_id"}),
		where.Equal,
		where.OperandOfIdent(record.Ident{Alias: "d", Column: "id"}),
	)

	result, diag, ok, err := e.Select(SelectCommand{
		Projection: []ProjectionItem{
			{Ident: record.Ident{Alias: "e", Column: "name"}, AliasOut: "employee_name"},
			{Ident: record.Ident{Alias: "d", Column: "name"}, AliasOut: "dept_name"},
		},
		HasProjection: true,
		Tables:        []TableRef{{Name: "employee", Alias: "e"}, {Name: "department", Alias: "d"}},
		Where:         pred,
		HasWhere:      true,
	})
	require.NoError(t, err)
	require.True(t, ok, diag)
	require.Len(t, result.Rows, 1)

	name, isa := result.Rows[0].Get("employee_name")
	require.True(t, isa)
	assert.Equal(t, "ada", name.MustStr())
	dept, isa := result.Rows[0].Get("dept_name")
	require.True(t, isa)
	assert.Equal(t, "eng", dept.MustStr())
}

func TestEngine_SelectStarAmbiguousColumn(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTable(CreateTableCommand{Table: departmentTable()})
	require.NoError(t, err)
	other := departmentTable()
	other.Name = "department2"
	_, err = e.CreateTable(CreateTableCommand{Table: other})
	require.NoError(t, err)

	_, diag, ok, err := e.Select(SelectCommand{Tables: []TableRef{{Name: "department"}, {Name: "department2"}}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, dberr.SelectColumnResolve, diag.Kind)
}

func TestEngine_SelectTableExistence(t *testing.T) {
	e := newTestEngine(t)
	_, diag, ok, err := e.Select(SelectCommand{Tables: []TableRef{{Name: "nope"}}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, dberr.SelectTableExistence, diag.Kind)
}

func TestEngine_DeleteThenVerifyEmpty(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTable(CreateTableCommand{Table: departmentTable()})
	require.NoError(t, err)
	_, err = e.Insert(InsertCommand{TableName: "department", Values: []dbtype.Attribute{dbtype.OfInt64(1), dbtype.OfStr("eng")}})
	require.NoError(t, err)

	pred := where.OfComp(where.OperandOfIdent(record.Ident{Column: "id"}), where.Equal, where.OperandOfLiteral(dbtype.OfInt64(1)))
	d, err := e.Delete(DeleteCommand{TableName: "department", Where: pred, HasWhere: true})
	require.NoError(t, err)
	assert.Equal(t, dberr.DeleteSuccess, d.Kind)

	result, _, ok, err := e.Select(SelectCommand{Tables: []TableRef{{Name: "department"}}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, result.Rows)
}
