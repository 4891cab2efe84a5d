// SPDX-License-Identifier: Apache-2.0

// Package record defines the row representation the engine stores and
// streams through WHERE evaluation and SELECT projection, and the
// deterministic primary-key codec rows are stored under.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/schema"
)

// Record is a single row: column name to attribute value, unqualified by
// any table alias. This is what INSERT builds and what a table store
// cursor yields.
type Record struct {
	Values map[string]dbtype.Attribute
}

// New builds a Record from a name/value map.
func New(values map[string]dbtype.Attribute) Record {
	return Record{Values: values}
}

// Get returns the value of column name, matched case-insensitively per
// spec.md's "column names within a table are unique (compared
// case-insensitively)", and whether the record has it.
func (r Record) Get(name string) (dbtype.Attribute, bool) {
	if v, isa := r.Values[name]; isa {
		return v, true
	}

	for k, v := range r.Values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}

	return dbtype.Attribute{}, false
}

// Project returns a new Record containing only the named columns, in the
// same order they're given conceptually (Record itself is unordered; order
// is imposed by the caller when rendering).
func (r Record) Project(names []string) Record {
	out := make(map[string]dbtype.Attribute, len(names))
	for _, n := range names {
		if v, isa := r.Values[n]; isa {
			out[n] = v
		}
	}

	return Record{Values: out}
}

// wireAttribute is the on-disk encoding of one Attribute: a discriminant
// plus whichever field its Which uses. Encoding/decoding rows this way,
// rather than storing a bare JSON scalar, is what lets a stored NULL be
// told apart from a stored zero value on decode.
type wireAttribute struct {
	Which dbtype.Which `json:"w"`
	I     int64        `json:"i,omitempty"`
	S     string       `json:"s,omitempty"`
	D     *[3]int      `json:"d,omitempty"`
}

func toWire(attr dbtype.Attribute) wireAttribute {
	switch attr.Which() {
	case dbtype.Int64:
		return wireAttribute{Which: dbtype.Int64, I: attr.MustInt64()}
	case dbtype.Str:
		return wireAttribute{Which: dbtype.Str, S: attr.MustStr()}
	case dbtype.Date:
		d := attr.MustDate()
		arr := [3]int{d.Year(), int(d.Month()), d.Day()}
		return wireAttribute{Which: dbtype.Date, D: &arr}
	}

	return wireAttribute{Which: dbtype.Null}
}

func fromWire(w wireAttribute) (dbtype.Attribute, error) {
	switch w.Which {
	case dbtype.Null:
		return dbtype.OfNull(), nil
	case dbtype.Int64:
		return dbtype.OfInt64(w.I), nil
	case dbtype.Str:
		return dbtype.OfStr(w.S), nil
	case dbtype.Date:
		if w.D == nil {
			return dbtype.Attribute{}, fmt.Errorf(errCorruptDateMsg)
		}
		return dbtype.OfDate(time.Date(w.D[0], time.Month(w.D[1]), w.D[2], 0, 0, 0, 0, time.UTC)), nil
	}

	return dbtype.Attribute{}, fmt.Errorf(errCorruptWhichMsg, int(w.Which))
}

const (
	errCorruptDateMsg  = "record: stored date attribute is missing its [y,m,d] payload"
	errCorruptWhichMsg = "record: %d is not a valid stored attribute discriminant"
)

// EncodeRow serializes r's values for t's columns deterministically, as a
// JSON object keyed by column name (encoding/json writes the keys in sorted
// order), for storage as a table namespace's value bytes.
func EncodeRow(t schema.Table, r Record) ([]byte, error) {
	wire := make(map[string]wireAttribute, len(t.Columns))
	for _, c := range t.Columns {
		attr, isa := r.Get(c.Name)
		if !isa {
			attr = dbtype.OfNull()
		}
		wire[c.Name] = toWire(attr)
	}

	return json.Marshal(wire)
}

// DecodeRow reverses EncodeRow, reconstructing a Record from stored bytes.
func DecodeRow(data []byte) (Record, error) {
	var wire map[string]wireAttribute
	if err := json.Unmarshal(data, &wire); err != nil {
		return Record{}, err
	}

	values := make(map[string]dbtype.Attribute, len(wire))
	for name, w := range wire {
		attr, err := fromWire(w)
		if err != nil {
			return Record{}, err
		}
		values[name] = attr
	}

	return Record{Values: values}, nil
}

// pkeyJSON is the JSON encoding of one primary key component: dates encode
// as a [year, month, day] array (matching the reference's json.dumps of a
// (y, m, d) tuple), everything else encodes as its natural JSON scalar.
func pkeyJSON(attr dbtype.Attribute) (any, error) {
	switch attr.Which() {
	case dbtype.Int64:
		return attr.MustInt64(), nil
	case dbtype.Str:
		return attr.MustStr(), nil
	case dbtype.Date:
		d := attr.MustDate()
		return [3]int{d.Year(), int(d.Month()), d.Day()}, nil
	}

	return nil, fmt.Errorf(errNullPrimaryKeyComponentMsg)
}

const errNullPrimaryKeyComponentMsg = "primary key column cannot be NULL"

// GeneratedKeySize is the length, in bytes, of a generated row key for a
// table with no declared primary key.
const GeneratedKeySize = 16

// PrimaryKey computes the storage key for r under table t: for a table with
// a declared primary key, the JSON array of its primary key column values
// in declaration order; for a table without one, randomBytes is used to
// mint a GeneratedKeySize-byte identifier. randomBytes is injected (rather
// than this package reaching for crypto/rand itself) so key generation
// stays testable with a deterministic source.
func PrimaryKey(t schema.Table, r Record, randomBytes func(n int) ([]byte, error)) ([]byte, error) {
	if !t.HasDeclaredPrimaryKey() {
		return randomBytes(GeneratedKeySize)
	}

	parts := make([]any, len(t.PrimaryKey))
	for i, col := range t.PrimaryKey {
		attr, isa := r.Get(col)
		if !isa {
			return nil, fmt.Errorf(errMissingPrimaryKeyColumnMsg, col)
		}

		part, err := pkeyJSON(attr)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}

	return json.Marshal(parts)
}

const errMissingPrimaryKeyColumnMsg = "record is missing primary key column %q"

// ForeignKeyReferencePKey computes the primary key bytes of the row that a
// foreign key fk, evaluated against the referencing record r, refers to in
// refTable. It returns (nil, false) when the reference is waived:
// the reference implementation waives a foreign key only when every one of
// its mapped local columns is NULL, not merely one of them, so a partially
// NULL foreign key is still enforced and must resolve to a real row.
func ForeignKeyReferencePKey(fk dbtype.ForeignKey, refTable schema.Table, r Record) ([]byte, bool, error) {
	allNull := true
	localValues := make(map[string]dbtype.Attribute, len(fk.ColumnMap))
	for local := range fk.ColumnMap {
		attr, isa := r.Get(local)
		if !isa {
			return nil, false, fmt.Errorf(errMissingForeignKeyColumnMsg, local)
		}
		localValues[local] = attr
		if !attr.IsNull() {
			allNull = false
		}
	}

	if allNull {
		return nil, false, nil
	}

	refValues := make(map[string]dbtype.Attribute, len(refTable.PrimaryKey))
	for local, refCol := range fk.ColumnMap {
		refValues[refCol] = localValues[local]
	}

	key, err := PrimaryKey(refTable, Record{Values: refValues}, nil)
	if err != nil {
		return nil, false, err
	}

	return key, true, nil
}

const errMissingForeignKeyColumnMsg = "record is missing foreign key column %q"

// Ident names a column, optionally qualified by the alias of the table it
// comes from. An empty Alias means "resolve against whichever joined table
// declares this column, erroring if more than one does."
type Ident struct {
	Alias  string
	Column string
}

// QualifiedRecord is one row of a SELECT's cartesian product: one Record
// per table alias named in the FROM clause.
type QualifiedRecord struct {
	Tables map[string]Record
}

// Find resolves ident against q, consulting order (the FROM clause's
// aliases, in order) to detect ambiguity when ident is unqualified.
func (q QualifiedRecord) Find(ident Ident, order []string) (dbtype.Attribute, error) {
	if ident.Alias != "" {
		rec, isa := q.Tables[ident.Alias]
		if !isa {
			return dbtype.Attribute{}, fmt.Errorf(errUnknownAliasMsg, ident.Alias)
		}
		attr, isa := rec.Get(ident.Column)
		if !isa {
			return dbtype.Attribute{}, fmt.Errorf(errUnknownQualifiedColumnMsg, ident.Alias, ident.Column)
		}
		return attr, nil
	}

	var found *dbtype.Attribute
	var foundAlias string
	for _, alias := range order {
		rec, isa := q.Tables[alias]
		if !isa {
			continue
		}
		if attr, isa := rec.Get(ident.Column); isa {
			if found != nil {
				return dbtype.Attribute{}, fmt.Errorf(errAmbiguousColumnMsg, ident.Column, foundAlias, alias)
			}
			attrCopy := attr
			found = &attrCopy
			foundAlias = alias
		}
	}

	if found == nil {
		return dbtype.Attribute{}, fmt.Errorf(errUnknownColumnMsg, ident.Column)
	}

	return *found, nil
}

// Unqual flattens q into a single unqualified Record, used once a SELECT's
// projection has resolved every column it needs and alias information is no
// longer required.
func (q QualifiedRecord) Unqual(order []string) Record {
	values := map[string]dbtype.Attribute{}
	for _, alias := range order {
		rec, isa := q.Tables[alias]
		if !isa {
			continue
		}
		for name, v := range rec.Values {
			values[name] = v
		}
	}

	return Record{Values: values}
}

const (
	errUnknownAliasMsg          = "%q is not a table alias in this query"
	errUnknownQualifiedColumnMsg = "table %q has no column %q"
	errAmbiguousColumnMsg       = "column %q is ambiguous between %q and %q"
	errUnknownColumnMsg         = "no table in this query has a column %q"
)
