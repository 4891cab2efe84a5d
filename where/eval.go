// SPDX-License-Identifier: Apache-2.0

package where

import (
	"fmt"

	"github.com/kvrel/kvrel/constraint"
	"github.com/kvrel/kvrel/dberr"
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/record"
)

func operandTypeClass(op Operand, view View) (dbtype.TypeClass, error) {
	if op.IsIdent {
		entry, err := view.Resolve(op.Ident)
		if err != nil {
			return 0, err
		}
		return entry.Type.Class, nil
	}

	switch op.Literal.Which() {
	case dbtype.Int64:
		return dbtype.INT, nil
	case dbtype.Str:
		return dbtype.CHAR, nil
	case dbtype.Date:
		return dbtype.DATE, nil
	}

	panic(fmt.Errorf(errNullLiteralOperandMsg))
}

const errNullLiteralOperandMsg = "where: a COMP operand literal must not be NULL"

func isOrderedOp(op CompOp) bool {
	return op == LessThan || op == LessEqual || op == GreaterThan || op == GreaterEqual
}

// Validate checks node against view: every identifier resolves unambiguously,
// and every comparison's two sides share a type class, with ordered
// operators additionally restricted to INT or DATE.
func Validate(node Node, view View) error {
	switch node.Kind {
	case True:
		return nil
	case And, Or:
		for _, child := range node.Children {
			if err := Validate(child, view); err != nil {
				return err
			}
		}
		return nil
	case Not:
		return Validate(*node.Child, view)
	case IsNull:
		_, err := view.Resolve(node.Ident)
		return err
	case Comp:
		leftClass, err := operandTypeClass(node.Left, view)
		if err != nil {
			return err
		}
		rightClass, err := operandTypeClass(node.Right, view)
		if err != nil {
			return err
		}
		if leftClass != rightClass {
			return dberr.OfKind(dberr.WhereIncomparable)
		}
		if isOrderedOp(node.Op) && leftClass != dbtype.INT && leftClass != dbtype.DATE {
			return dberr.OfKind(dberr.WhereIncomparable)
		}
		return nil
	}

	panic(fmt.Errorf(errInvalidNodeKindMsg, int(node.Kind)))
}

const errInvalidNodeKindMsg = "where: %d is not a valid NodeKind"

func resolveOperand(op Operand, qrec record.QualifiedRecord, order []string) (dbtype.Attribute, error) {
	if op.IsIdent {
		return qrec.Find(op.Ident, order)
	}

	return op.Literal, nil
}

// compareCmp evaluates op over two values of any type satisfying
// constraint.Cmp, collapsing every ordering operator and equality test to
// a single three-way comparison the way Attribute.Cmp and the generic
// constraint package intend.
func compareCmp[T constraint.Cmp[T]](a, b T, op CompOp) bool {
	c := a.Cmp(b)

	switch op {
	case LessThan:
		return c < 0
	case LessEqual:
		return c <= 0
	case GreaterThan:
		return c > 0
	case GreaterEqual:
		return c >= 0
	case Equal:
		return c == 0
	case NotEqual:
		return c != 0
	}

	panic(fmt.Errorf(errInvalidCompOpMsg, int(op)))
}

const errInvalidCompOpMsg = "where: %d is not a valid CompOp"

// Evaluate runs node over qrec, a single row of a (possibly multi-table)
// cartesian product, with order giving the alias resolution order for
// unqualified identifiers. Any operand evaluating to NULL makes the
// enclosing comparison (and any IS_NULL-negated form of it) false: this is
// the collapsed two-valued interpretation spec.md documents, and NOT does
// not re-apply NULL propagation to its child's result - it simply inverts
// whatever boolean the child already settled on.
func Evaluate(node Node, qrec record.QualifiedRecord, order []string) (bool, error) {
	switch node.Kind {
	case True:
		return true, nil
	case And:
		for _, child := range node.Children {
			ok, err := Evaluate(child, qrec, order)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, child := range node.Children {
			ok, err := Evaluate(child, qrec, order)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Evaluate(*node.Child, qrec, order)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case IsNull:
		attr, err := qrec.Find(node.Ident, order)
		if err != nil {
			return false, err
		}
		return attr.IsNull(), nil
	case Comp:
		left, err := resolveOperand(node.Left, qrec, order)
		if err != nil {
			return false, err
		}
		right, err := resolveOperand(node.Right, qrec, order)
		if err != nil {
			return false, err
		}
		if left.IsNull() || right.IsNull() {
			return false, nil
		}
		return compareCmp(left, right, node.Op), nil
	}

	panic(fmt.Errorf(errInvalidNodeKindMsg, int(node.Kind)))
}
