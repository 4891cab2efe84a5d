// SPDX-License-Identifier: Apache-2.0

// Package dbtype defines the closed type model the engine validates every
// column, attribute, and literal against: column type classes, the column
// definition built from one, and the attribute closed sum that every stored
// or computed value is an instance of.
package dbtype

import "fmt"

// TypeClass is the closed set of column type classes a Column may declare.
type TypeClass int

const (
	INT TypeClass = iota
	CHAR
	DATE
)

var typeClassStr = map[TypeClass]string{
	INT:  "INT",
	CHAR: "CHAR",
	DATE: "DATE",
}

func (c TypeClass) String() string {
	if s, isa := typeClassStr[c]; isa {
		return s
	}

	panic(fmt.Errorf(errInvalidTypeClassMsg, int(c)))
}

const errInvalidTypeClassMsg = "%d is not a valid TypeClass"

// ColumnType is a type class plus the parameters that refine it: CHAR takes
// a positive length, INT and DATE take none, and any class may be declared
// nullable.
type ColumnType struct {
	Class    TypeClass
	Length   int
	Nullable bool
}

// NewInt constructs an INT column type.
func NewInt(nullable bool) ColumnType {
	return ColumnType{Class: INT, Nullable: nullable}
}

// NewDate constructs a DATE column type.
func NewDate(nullable bool) ColumnType {
	return ColumnType{Class: DATE, Nullable: nullable}
}

// NewChar constructs a CHAR(length) column type. Length must be positive;
// the caller (the CREATE TABLE parser/validator) is responsible for
// rejecting non-positive lengths before a ColumnType reaches this point.
func NewChar(length int, nullable bool) ColumnType {
	return ColumnType{Class: CHAR, Length: length, Nullable: nullable}
}

// Check reports whether attr is a legal value for this column type: the
// right Go type for the class (or nil, iff Nullable), and for CHAR, within
// the declared length.
func (t ColumnType) Check(attr Attribute) bool {
	if attr.IsNull() {
		return t.Nullable
	}

	switch t.Class {
	case INT:
		return attr.Which() == Int64
	case DATE:
		return attr.Which() == Date
	case CHAR:
		return attr.Which() == Str && len(attr.MustStr()) <= t.Length
	}

	panic(fmt.Errorf(errInvalidTypeClassMsg, int(t.Class)))
}

// Column is a name paired with the type it was declared with.
type Column struct {
	Name string
	Type ColumnType
}

// ForeignKey maps each of a table's own columns onto the column of another
// table it references, keyed by the local column name. The referenced
// table's primary key must be exactly the value set of this map (a "whole
// primary key" reference per spec), checked at CREATE TABLE time once the
// referenced table's catalog entry is available.
type ForeignKey struct {
	ColumnMap    map[string]string
	RefTableName string
}
