// Package planindex implements index-column match attribution (C5): folding
// a flat list of predicate terms into per-column intervals over an ordered
// index, consuming each term against the leftmost column it restricts.
package planindex

import (
	"github.com/kartikbazzad/idxquery/column"
	"github.com/kartikbazzad/idxquery/expr"
	"github.com/kartikbazzad/idxquery/interval"
	"github.com/kartikbazzad/idxquery/predicate"
)

// ColumnMatch is the accumulated restriction on one index column.
type ColumnMatch struct {
	Column   *column.Descriptor
	Interval interval.Interval[any]
}

// anyComparator type-erases an ordered column's Comparator so it satisfies
// interval.Comparator[any].
func anyComparator(order column.Comparator) interval.Comparator[any] {
	return func(a, b any) int { return order(a, b) }
}

// matchPredicate implements §4.4's match-predicate: decode term against
// slot's column, require a literal operand, fold it into an interval, and
// intersect it into slot.Interval. Returns true iff term restricted this
// column (and may therefore be consumed by the caller).
func matchPredicate(slot *ColumnMatch, rowVar *expr.Param, term *expr.Node) bool {
	c, ok := predicate.Decode(slot.Column, rowVar, term)
	if !ok {
		return false
	}
	if c.Operand == nil || c.Operand.Kind != expr.KindConst {
		// Non-literal operand: not foldable into an interval at plan time.
		return false
	}

	var iv interval.Interval[any]
	switch {
	case c.IsEquality:
		iv = interval.SinglePoint[any](c.Operand.ConstValue)
	default:
		iv = interval.OneSidedBound[any](c.Operand.ConstValue, c.IsExclusive, c.IsUpperBound)
	}

	slot.Interval = slot.Interval.Intersect(iv, anyComparator(slot.Column.Order))
	return true
}

// Attribute implements §4.5's compute-matches: walk terms in order, and for
// each walk columns in order, attributing the term to the first column it
// restricts. Consumed terms are nil'd out of terms in place, so Leftover(terms)
// afterward yields every term that matched nothing, in original order.
func Attribute(index *column.TableIndex, rowVar *expr.Param, terms []*expr.Node) []*ColumnMatch {
	matches := make([]*ColumnMatch, len(index.Columns))
	for i, col := range index.Columns {
		matches[i] = &ColumnMatch{Column: col, Interval: interval.Universe[any]()}
	}

	for i, term := range terms {
		if term == nil {
			continue
		}
		for _, slot := range matches {
			if matchPredicate(slot, rowVar, term) {
				terms[i] = nil
				break
			}
		}
	}

	return matches
}

// Leftover returns the terms Attribute did not consume, in original order.
func Leftover(terms []*expr.Node) []*expr.Node {
	out := make([]*expr.Node, 0, len(terms))
	for _, t := range terms {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
