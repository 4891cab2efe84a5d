// SPDX-License-Identifier: Apache-2.0

// Package catalog is the engine's schema and refcount bookkeeping store: a
// single namespace, disjoint-prefixed, holding every table's schema and
// both refcount families, keyed the way spec's persisted layout describes.
package catalog

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kvrel/kvrel/kvstore"
	"github.com/kvrel/kvrel/schema"
)

// Namespace is the name of the single bbolt bucket every catalog entry -
// schema or refcount - lives in.
const Namespace = "catalog"

const (
	tablePrefix        = "ZZ_table_"
	refcntTablePrefix  = "ZZ_refcnt_table_"
	refcntRecordPrefix = "ZZ_refcnt_record_"
)

func tableKey(name string) []byte {
	return []byte(tablePrefix + strings.ToLower(name))
}

// TableNamespace returns the bbolt bucket name that holds name's rows, a
// distinct namespace from the catalog bucket despite sharing the same
// "ZZ_table_" prefix convention spec.md's persisted layout describes for
// both the catalog's schema entry and the table's own row store.
func TableNamespace(name string) string {
	return tablePrefix + strings.ToLower(name)
}

func refcntTableKey(name string) []byte {
	return []byte(refcntTablePrefix + strings.ToLower(name))
}

func refcntRecordKey(tableName string, pkey []byte) ([]byte, error) {
	encoded, err := json.Marshal([2]string{strings.ToLower(tableName), string(pkey)})
	if err != nil {
		return nil, err
	}

	return append([]byte(refcntRecordPrefix), encoded...), nil
}

// Catalog is a handle onto one open namespace within an already-open
// transaction. It is never held across transactions: every engine command
// opens one via Open, uses it, and lets it go out of scope when the
// enclosing kvstore.Tx's Update/View call returns.
type Catalog struct {
	ns *kvstore.Namespace
}

// Open acquires (creating if necessary) the catalog namespace within tx.
func Open(tx *kvstore.Tx) (*Catalog, error) {
	ns, err := tx.Namespace(Namespace)
	if err != nil {
		return nil, err
	}

	return &Catalog{ns: ns}, nil
}

// OpenReadOnly looks up the catalog namespace without creating it.
func OpenReadOnly(tx *kvstore.Tx) (*Catalog, bool) {
	ns, isa := tx.NamespaceReadOnly(Namespace)
	if !isa {
		return nil, false
	}

	return &Catalog{ns: ns}, true
}

// GetTable returns the stored schema for name, and whether it exists.
func (c *Catalog) GetTable(name string) (schema.Table, bool, error) {
	raw, isa := c.ns.Get(tableKey(name))
	if !isa {
		return schema.Table{}, false, nil
	}

	var t schema.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return schema.Table{}, false, err
	}

	return t, true, nil
}

// PutTable stores t's schema under its (lowercased) name. It fails with
// kvstore.ErrKeyExists if a table of that name is already present; callers
// translate that into dberr.TableExistence.
func (c *Catalog) PutTable(t schema.Table) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return c.ns.Put(tableKey(t.Name), raw, true)
}

// DeleteTable removes name's schema entry. It does not touch the table's
// row namespace or either refcount family; callers orchestrate those.
func (c *Catalog) DeleteTable(name string) error {
	return c.ns.Delete(tableKey(name))
}

// IterateTableNames calls fn once per user table name, in catalog key
// order, using the original (non-lowercased) name stored in the schema
// value. Iteration stops at the first error fn returns.
func (c *Catalog) IterateTableNames(fn func(name string) error) error {
	cur := c.ns.Cursor()
	prefix := []byte(tablePrefix)

	for {
		k, v, ok := cur.Next()
		if !ok {
			break
		}
		if !bytes.HasPrefix(k, prefix) {
			continue
		}

		var t schema.Table
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		if err := fn(t.Name); err != nil {
			return err
		}
	}

	return nil
}

func decodeCount(raw []byte) int32 {
	return int32(binary.LittleEndian.Uint32(raw))
}

func encodeCount(n int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	return buf
}

// GetTableRefcnt returns the number of tables referencing name by foreign
// key, 0 if no entry exists yet.
func (c *Catalog) GetTableRefcnt(name string) (int32, error) {
	raw, isa := c.ns.Get(refcntTableKey(name))
	if !isa {
		return 0, nil
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf(errCorruptRefcntMsg, refcntTableKey(name))
	}

	return decodeCount(raw), nil
}

// AddTableRefcnt adds delta to name's referenced-table refcount.
func (c *Catalog) AddTableRefcnt(name string, delta int32) error {
	cur, err := c.GetTableRefcnt(name)
	if err != nil {
		return err
	}

	return c.ns.Put(refcntTableKey(name), encodeCount(cur+delta), false)
}

// GetRowRefcnt returns the number of live rows, across every referring
// table, whose foreign key resolves to pkey in table tableName.
func (c *Catalog) GetRowRefcnt(tableName string, pkey []byte) (int32, error) {
	key, err := refcntRecordKey(tableName, pkey)
	if err != nil {
		return 0, err
	}

	raw, isa := c.ns.Get(key)
	if !isa {
		return 0, nil
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf(errCorruptRefcntMsg, key)
	}

	return decodeCount(raw), nil
}

// AddRowRefcnt adds delta to the per-row refcount for pkey in tableName.
func (c *Catalog) AddRowRefcnt(tableName string, pkey []byte, delta int32) error {
	key, err := refcntRecordKey(tableName, pkey)
	if err != nil {
		return err
	}

	cur, err := c.GetRowRefcnt(tableName, pkey)
	if err != nil {
		return err
	}

	return c.ns.Put(key, encodeCount(cur+delta), false)
}

const errCorruptRefcntMsg = "catalog: refcount entry %q is not a 4-byte value"
