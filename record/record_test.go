// SPDX-License-Identifier: Apache-2.0

package record

import (
	"testing"
	"time"

	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deptTable() schema.Table {
	return schema.Table{
		Name: "department",
		Columns: []dbtype.Column{
			{Name: "id", Type: dbtype.NewInt(false)},
			{Name: "name", Type: dbtype.NewChar(20, false)},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestPrimaryKey_Declared(t *testing.T) {
	tbl := deptTable()
	r := New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(7), "name": dbtype.OfStr("eng")})

	key, err := PrimaryKey(tbl, r, nil)
	require.NoError(t, err)
	assert.Equal(t, "[7]", string(key))
}

func TestPrimaryKey_DateComponent(t *testing.T) {
	tbl := schema.Table{
		Name:       "event",
		Columns:    []dbtype.Column{{Name: "d", Type: dbtype.NewDate(false)}},
		PrimaryKey: []string{"d"},
	}
	r := New(map[string]dbtype.Attribute{"d": dbtype.OfDate(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))})

	key, err := PrimaryKey(tbl, r, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[2024,3,4]]", string(key))
}

func TestPrimaryKey_Generated(t *testing.T) {
	tbl := deptTable()
	tbl.PrimaryKey = nil
	r := New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(1), "name": dbtype.OfStr("x")})

	key, err := PrimaryKey(tbl, r, func(n int) ([]byte, error) {
		return make([]byte, n), nil
	})
	require.NoError(t, err)
	assert.Len(t, key, GeneratedKeySize)
}

func TestPrimaryKey_MissingColumn(t *testing.T) {
	tbl := deptTable()
	r := New(map[string]dbtype.Attribute{"name": dbtype.OfStr("x")})

	_, err := PrimaryKey(tbl, r, nil)
	assert.Error(t, err)
}

func TestForeignKeyReferencePKey_Waived(t *testing.T) {
	fk := dbtype.ForeignKey{ColumnMap: map[string]string{"dept_id": "id"}, RefTableName: "department"}
	r := New(map[string]dbtype.Attribute{"dept_id": dbtype.OfNull()})

	key, ok, err := ForeignKeyReferencePKey(fk, deptTable(), r)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, key)
}

func TestForeignKeyReferencePKey_Resolved(t *testing.T) {
	fk := dbtype.ForeignKey{ColumnMap: map[string]string{"dept_id": "id"}, RefTableName: "department"}
	r := New(map[string]dbtype.Attribute{"dept_id": dbtype.OfInt64(3)})

	key, ok, err := ForeignKeyReferencePKey(fk, deptTable(), r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[3]", string(key))
}

func TestQualifiedRecord_Find(t *testing.T) {
	q := QualifiedRecord{Tables: map[string]Record{
		"e": New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(1)}),
		"d": New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(2)}),
	}}

	v, err := q.Find(Ident{Alias: "e", Column: "id"}, []string{"e", "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.MustInt64())

	_, err = q.Find(Ident{Column: "id"}, []string{"e", "d"})
	assert.Error(t, err, "unqualified id is ambiguous across e and d")
}

func TestEncodeDecodeRow_Roundtrip(t *testing.T) {
	tbl := schema.Table{
		Name: "mixed",
		Columns: []dbtype.Column{
			{Name: "id", Type: dbtype.NewInt(false)},
			{Name: "name", Type: dbtype.NewChar(10, true)},
			{Name: "d", Type: dbtype.NewDate(true)},
		},
	}
	r := New(map[string]dbtype.Attribute{
		"id":   dbtype.OfInt64(42),
		"name": dbtype.OfNull(),
		"d":    dbtype.OfDate(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)),
	})

	raw, err := EncodeRow(tbl, r)
	require.NoError(t, err)

	decoded, err := DecodeRow(raw)
	require.NoError(t, err)

	id, isa := decoded.Get("id")
	require.True(t, isa)
	assert.Equal(t, int64(42), id.MustInt64())

	name, isa := decoded.Get("name")
	require.True(t, isa)
	assert.True(t, name.IsNull())

	d, isa := decoded.Get("d")
	require.True(t, isa)
	assert.True(t, d.MustDate().Equal(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)))
}

func TestRecord_Get_CaseInsensitive(t *testing.T) {
	r := New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(7)})

	v, isa := r.Get("ID")
	require.True(t, isa)
	assert.Equal(t, int64(7), v.MustInt64())
}

func TestQualifiedRecord_Find_CaseInsensitive(t *testing.T) {
	q := QualifiedRecord{Tables: map[string]Record{
		"e": New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(1)}),
	}}

	v, err := q.Find(Ident{Alias: "e", Column: "ID"}, []string{"e"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.MustInt64())

	v, err = q.Find(Ident{Column: "ID"}, []string{"e"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.MustInt64())
}

func TestQualifiedRecord_Unqual(t *testing.T) {
	q := QualifiedRecord{Tables: map[string]Record{
		"e": New(map[string]dbtype.Attribute{"id": dbtype.OfInt64(1)}),
	}}

	flat := q.Unqual([]string{"e"})
	v, isa := flat.Get("id")
	require.True(t, isa)
	assert.Equal(t, int64(1), v.MustInt64())
}
