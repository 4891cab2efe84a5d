// SPDX-License-Identifier: Apache-2.0

package dbtype

import (
	"fmt"
	"time"
)

// Which identifies which alternative of the Attribute closed sum is
// populated, the same role union.Which plays for union.Two/Three/Four.
type Which int

const (
	Null Which = iota
	Int64
	Str
	Date
)

var whichStr = map[Which]string{
	Null:  "Null",
	Int64: "Int64",
	Str:   "Str",
	Date:  "Date",
}

func (w Which) String() string {
	if s, isa := whichStr[w]; isa {
		return s
	}

	panic(fmt.Errorf(errInvalidWhichMsg, int(w)))
}

const errInvalidWhichMsg = "%d is not a valid Attribute Which"

// Attribute is the closed sum of every value the engine ever stores or
// compares: SQL NULL, a 64-bit signed integer, a fixed-length string, or a
// calendar date. Exactly one of the which-selected fields is meaningful;
// the others are the zero value. Construct one with OfNull/OfInt64/OfStr/
// OfDate rather than building the struct literal directly.
type Attribute struct {
	which Which
	i     int64
	s     string
	d     time.Time
}

// OfNull constructs the NULL attribute.
func OfNull() Attribute {
	return Attribute{which: Null}
}

// OfInt64 constructs an INT attribute.
func OfInt64(i int64) Attribute {
	return Attribute{which: Int64, i: i}
}

// OfStr constructs a CHAR attribute.
func OfStr(s string) Attribute {
	return Attribute{which: Str, s: s}
}

// OfDate constructs a DATE attribute.
func OfDate(d time.Time) Attribute {
	return Attribute{which: Date, d: d}
}

// Which reports which alternative is populated.
func (a Attribute) Which() Which {
	return a.which
}

// IsNull reports whether a holds SQL NULL.
func (a Attribute) IsNull() bool {
	return a.which == Null
}

// MustInt64 returns the Int64 alternative, panicking if a does not hold one.
func (a Attribute) MustInt64() int64 {
	if a.which != Int64 {
		panic(fmt.Errorf(errWrongWhichMsg, Int64, a.which))
	}

	return a.i
}

// MustStr returns the Str alternative, panicking if a does not hold one.
func (a Attribute) MustStr() string {
	if a.which != Str {
		panic(fmt.Errorf(errWrongWhichMsg, Str, a.which))
	}

	return a.s
}

// MustDate returns the Date alternative, panicking if a does not hold one.
func (a Attribute) MustDate() time.Time {
	if a.which != Date {
		panic(fmt.Errorf(errWrongWhichMsg, Date, a.which))
	}

	return a.d
}

const errWrongWhichMsg = "attribute does not hold a %s value, it holds a %s value"

// Equal compares two attributes for SQL equality: two NULLs are never equal
// to each other (callers that need that semantics use IsNull explicitly,
// the same way WHERE's COMP node does), mismatched Which is never equal.
func (a Attribute) Equal(b Attribute) bool {
	if a.which != b.which {
		return false
	}

	switch a.which {
	case Null:
		return false
	case Int64:
		return a.i == b.i
	case Str:
		return a.s == b.s
	case Date:
		return a.d.Equal(b.d)
	}

	panic(fmt.Errorf(errInvalidWhichMsg, int(a.which)))
}

// Compare orders two non-NULL attributes of the same Which, returning a
// negative number, zero, or a positive number as a is less than, equal to,
// or greater than b. Panics if either attribute is NULL or their Which
// differs: callers (the WHERE comparison evaluator) are expected to have
// already rejected NULL operands and type-mismatched comparisons.
func (a Attribute) Compare(b Attribute) int {
	if a.which != b.which {
		panic(fmt.Errorf(errCompareMismatchMsg, a.which, b.which))
	}

	switch a.which {
	case Int64:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case Str:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	case Date:
		switch {
		case a.d.Before(b.d):
			return -1
		case a.d.After(b.d):
			return 1
		default:
			return 0
		}
	}

	panic(fmt.Errorf(errCompareNullMsg))
}

const (
	errCompareMismatchMsg = "cannot compare a %s attribute to a %s attribute"
	errCompareNullMsg     = "cannot compare a NULL attribute"
)

// Cmp is an alias for Compare, spelled to satisfy constraint.Cmp[Attribute]
// so the generic ordered-comparison helper in the where package can operate
// on Attribute without a type-specific switch.
func (a Attribute) Cmp(b Attribute) int {
	return a.Compare(b)
}

// String renders a for EXPLAIN/SELECT output: NULL prints as the literal
// "NULL", a date prints as YYYY-MM-DD, everything else via fmt's default.
func (a Attribute) String() string {
	switch a.which {
	case Null:
		return "NULL"
	case Int64:
		return fmt.Sprintf("%d", a.i)
	case Str:
		return a.s
	case Date:
		return a.d.Format("2006-01-02")
	}

	panic(fmt.Errorf(errInvalidWhichMsg, int(a.which)))
}
