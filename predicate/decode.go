// Package predicate implements the predicate decoder (C4): recognizing a
// comparison predicate against a column and normalizing it to
// (direction, strictness, equality, literal operand).
package predicate

import (
	"github.com/kartikbazzad/idxquery/column"
	"github.com/kartikbazzad/idxquery/expr"
)

// Comparison is the normalized output of predicate recognition.
type Comparison struct {
	IsEquality   bool
	IsUpperBound bool // meaningful for inequalities: true = </<=,  false = >/>=
	IsExclusive  bool // meaningful for inequalities: strict inequality; for equality, "!="
	Operand      *expr.Node
}

// Decode recognizes e as a comparison predicate against col, with e's
// occurrences of the row variable unified against col's row-expression, and
// normalizes it. It returns (nil, false) if e is not a recognized predicate
// shape, and rejects any outermost "!=" per §4.4 step 4 — whether written
// literally or produced by negating an equality, e.g. "!(x == a)".
func Decode(col *column.Descriptor, rowVar *expr.Param, e *expr.Node) (*Comparison, bool) {
	c := decode(col, rowVar, e, true)
	if c == nil {
		return nil, false
	}
	return c, true
}

// decode implements §4.4's classify/recurse/swap algorithm. topLevel
// disables the literal-"!=" acceptance that only NOT's recursive call may use.
func decode(col *column.Descriptor, rowVar *expr.Param, e *expr.Node, topLevel bool) *Comparison {
	if e == nil {
		return nil
	}

	if e.Kind == expr.KindUnary && e.UnaryOp == expr.UnaryNot {
		inner := decode(col, rowVar, e.Operand, false)
		if inner == nil {
			return nil
		}
		if inner.IsEquality {
			inner.IsExclusive = !inner.IsExclusive
		} else {
			inner.IsExclusive = !inner.IsExclusive
			inner.IsUpperBound = !inner.IsUpperBound
		}
		if topLevel && inner.IsEquality && inner.IsExclusive {
			// !(x == a) flips to a top-level "!=", exactly as unindexable as
			// the literal token form; !(x != a) flips the other way and is
			// accepted back as plain equality by this same check passing.
			return nil
		}
		return inner
	}

	if e.Kind != expr.KindBinary {
		return nil
	}

	var c *Comparison
	switch e.BinaryOp {
	case expr.BinaryEqual:
		c = &Comparison{IsEquality: true, IsExclusive: false}
	case expr.BinaryNotEqual:
		c = &Comparison{IsEquality: true, IsExclusive: true}
	case expr.BinaryLess:
		c = &Comparison{IsUpperBound: true, IsExclusive: true}
	case expr.BinaryLessEqual:
		c = &Comparison{IsUpperBound: true, IsExclusive: false}
	case expr.BinaryGreater:
		c = &Comparison{IsUpperBound: false, IsExclusive: true}
	case expr.BinaryGreaterEqual:
		c = &Comparison{IsUpperBound: false, IsExclusive: false}
	default:
		return nil
	}

	lhs, rhs := e.Left, e.Right
	c.Operand = rhs

	switch {
	case col.Matches(rowVar, lhs):
		// direction as classified
	case col.Matches(rowVar, rhs):
		if !c.IsEquality {
			c.IsUpperBound = !c.IsUpperBound
		}
		c.Operand = lhs
	default:
		return nil
	}

	if topLevel && c.IsEquality && c.IsExclusive {
		// a bare top-level "!=" excludes a single point; it is never an
		// indexable restriction, so the decoder rejects it here only.
		return nil
	}

	return c
}
