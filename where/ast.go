// SPDX-License-Identifier: Apache-2.0

// Package where is the WHERE predicate AST, its view-based validator, and
// its evaluator. The AST is kept flat on purpose (a single tagged Node
// type, not an interface hierarchy) the same way dbtype.Attribute is a
// single tagged struct rather than one type per alternative.
package where

import (
	"github.com/kvrel/kvrel/dbtype"
	"github.com/kvrel/kvrel/record"
)

// CompOp is the closed set of comparison operators a COMP node may use.
// Spelled GreaterEqual/LessEqual throughout, canonicalizing the reference
// implementation's inconsistent GREATERTHANEQUAL/GREATEREQUAL naming.
type CompOp int

const (
	LessThan CompOp = iota
	LessEqual
	GreaterThan
	GreaterEqual
	Equal
	NotEqual
)

// NodeKind is the closed set of WHERE AST node shapes.
type NodeKind int

const (
	True NodeKind = iota
	And
	Or
	Not
	IsNull
	Comp
)

// Operand is one side of a COMP node or the subject of an IS_NULL node:
// either a column reference or a literal value, never both.
type Operand struct {
	Ident      record.Ident
	Literal    dbtype.Attribute
	IsIdent    bool
}

// OperandOfIdent builds a column-reference operand.
func OperandOfIdent(ident record.Ident) Operand {
	return Operand{Ident: ident, IsIdent: true}
}

// OperandOfLiteral builds a literal-value operand.
func OperandOfLiteral(v dbtype.Attribute) Operand {
	return Operand{Literal: v}
}

// Node is one predicate, or one node of a predicate tree. Exactly the
// fields relevant to Kind are meaningful; construct nodes with the
// Of*-style constructors below rather than building the struct directly.
type Node struct {
	Kind     NodeKind
	Children []Node // AND, OR
	Child    *Node  // NOT
	Ident    record.Ident
	Left     Operand
	Right    Operand
	Op       CompOp
}

// OfTrue builds the predicate that matches every row.
func OfTrue() Node {
	return Node{Kind: True}
}

// OfAnd builds a conjunction of children, ordered as given.
func OfAnd(children ...Node) Node {
	return Node{Kind: And, Children: children}
}

// OfOr builds a disjunction of children, ordered as given.
func OfOr(children ...Node) Node {
	return Node{Kind: Or, Children: children}
}

// OfNot builds the negation of child.
func OfNot(child Node) Node {
	return Node{Kind: Not, Child: &child}
}

// OfIsNull builds a predicate testing whether ident is NULL.
func OfIsNull(ident record.Ident) Node {
	return Node{Kind: IsNull, Ident: ident}
}

// OfComp builds a comparison between left and right using op.
func OfComp(left Operand, op CompOp, right Operand) Node {
	return Node{Kind: Comp, Left: left, Op: op, Right: right}
}
