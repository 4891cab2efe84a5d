// SPDX-License-Identifier: Apache-2.0

// Package dberr is the engine's closed diagnostic taxonomy: every outcome a
// command can report, success or failure, is one Kind value carrying at
// most one payload (a name or a count), rendered by a switch over Kind that
// picks one format string per kind.
package dberr

import "fmt"

// Kind is the closed set of diagnostics a command can produce.
type Kind int

const (
	// Success diagnostics.
	CreateTableSuccess Kind = iota
	DropTableSuccess
	InsertSuccess
	DeleteSuccess

	// Schema errors, raised while validating CREATE TABLE.
	DuplicateColumnDef
	DuplicatePrimaryKeyDef
	CharLength
	NonExistingColumnDef
	TableExistence
	ReferenceTableExistence
	ReferenceColumnExistence
	ReferenceType
	ReferenceNonPrimaryKey

	// Table lifecycle errors.
	NoSuchTable
	DropReferenced

	// Insert errors.
	TypeMismatch
	ColumnExistence
	ColumnNonNullable
	DuplicatePrimaryKey
	ReferentialIntegrity

	// Delete errors.
	ReferentialIntegrityPassed

	// Select / WHERE errors.
	SelectTableExistence
	SelectColumnResolve
	WhereIncomparable
	WhereTableNotSpecified
	WhereColumnNotExist
	WhereAmbiguousReference

	// SyntaxError is reserved for the boundary with the external parser;
	// this package never constructs one.
	SyntaxError
)

// successKinds marks which Kind values are informational rather than
// erroneous, so the engine can decide whether a Diagnostic should be
// surfaced as a Go error or a plain success message.
var successKinds = map[Kind]bool{
	CreateTableSuccess: true,
	DropTableSuccess:   true,
	InsertSuccess:      true,
	DeleteSuccess:      true,
}

// IsSuccess reports whether k is an informational, non-error diagnostic.
func IsSuccess(k Kind) bool {
	return successKinds[k]
}

// Diagnostic is one instance of the taxonomy: a Kind plus whichever payload
// its format string needs.
type Diagnostic struct {
	Kind  Kind
	Name  string
	Count int
}

// Error renders the diagnostic's user-facing message. Diagnostic satisfies
// the error interface unconditionally (including success kinds) so the
// same type can flow through a single return path; callers check
// IsSuccess(d.Kind) to decide whether a non-nil Diagnostic is actually a
// failure.
func (d Diagnostic) Error() string {
	switch d.Kind {
	case CreateTableSuccess:
		return fmt.Sprintf("'%s' table is created", d.Name)
	case DropTableSuccess:
		return fmt.Sprintf("'%s' table is dropped", d.Name)
	case InsertSuccess:
		return fmt.Sprintf("1 row is inserted into '%s'", d.Name)
	case DeleteSuccess:
		return fmt.Sprintf("'%d' row(s) are deleted from '%s'", d.Count, d.Name)
	case DuplicateColumnDef:
		return fmt.Sprintf("column '%s' is defined more than once", d.Name)
	case DuplicatePrimaryKeyDef:
		return fmt.Sprintf("column '%s' is listed in the primary key more than once", d.Name)
	case CharLength:
		return fmt.Sprintf("CHAR column '%s' must have a length of at least 1", d.Name)
	case NonExistingColumnDef:
		return fmt.Sprintf("'%s' is not a declared column", d.Name)
	case TableExistence:
		return fmt.Sprintf("'%s' table already exists", d.Name)
	case ReferenceTableExistence:
		return fmt.Sprintf("referenced table '%s' does not exist", d.Name)
	case ReferenceColumnExistence:
		return fmt.Sprintf("referenced column '%s' does not exist", d.Name)
	case ReferenceType:
		return fmt.Sprintf("foreign key column '%s' does not match the referenced column's type", d.Name)
	case ReferenceNonPrimaryKey:
		return fmt.Sprintf("foreign key on '%s' must reference the entire primary key, not a subset", d.Name)
	case NoSuchTable:
		return fmt.Sprintf("'%s' table does not exist", d.Name)
	case DropReferenced:
		return fmt.Sprintf("drop table has failed: '%s' is referenced by other table", d.Name)
	case TypeMismatch:
		return fmt.Sprintf("value does not match the type of column '%s'", d.Name)
	case ColumnExistence:
		return fmt.Sprintf("'%s' is not a column of this table", d.Name)
	case ColumnNonNullable:
		return fmt.Sprintf("column '%s' does not allow NULL", d.Name)
	case DuplicatePrimaryKey:
		return "a row with this primary key already exists"
	case ReferentialIntegrity:
		return fmt.Sprintf("no row of the referenced table matches column '%s'", d.Name)
	case ReferentialIntegrityPassed:
		return fmt.Sprintf("'%d' row(s) are not deleted due to referential integrity", d.Count)
	case SelectTableExistence:
		return fmt.Sprintf("'%s' table does not exist", d.Name)
	case SelectColumnResolve:
		return fmt.Sprintf("column '%s' cannot be resolved", d.Name)
	case WhereIncomparable:
		return "comparison operands are not of comparable types"
	case WhereTableNotSpecified:
		return fmt.Sprintf("table '%s' is not specified in this query", d.Name)
	case WhereColumnNotExist:
		return fmt.Sprintf("column '%s' does not exist in this query", d.Name)
	case WhereAmbiguousReference:
		return fmt.Sprintf("column '%s' is ambiguous in this query", d.Name)
	case SyntaxError:
		return fmt.Sprintf("syntax error: %s", d.Name)
	}

	panic(fmt.Errorf(errInvalidKindMsg, int(d.Kind)))
}

const errInvalidKindMsg = "%d is not a valid dberr.Kind"

// Of constructs a name-qualified Diagnostic.
func Of(kind Kind, name string) Diagnostic {
	return Diagnostic{Kind: kind, Name: name}
}

// OfCount constructs a count-qualified Diagnostic.
func OfCount(kind Kind, name string, count int) Diagnostic {
	return Diagnostic{Kind: kind, Name: name, Count: count}
}

// OfKind constructs a payload-less Diagnostic.
func OfKind(kind Kind) Diagnostic {
	return Diagnostic{Kind: kind}
}
