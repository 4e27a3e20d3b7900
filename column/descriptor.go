// Package column implements ColumnDescriptor (C3): a column's key-extraction
// expression together with the total order or equivalence it's compared
// under, and the "does this expression extract me?" structural check.
package column

import (
	"github.com/kartikbazzad/idxquery/expr"
)

// Comparator is the type-erased total-order comparator carried by an
// ordered column: compare(a, b) -> {<0, 0, >0}.
type Comparator func(a, b any) int

// Equivalence is the type-erased equivalence comparator carried by an
// unordered column.
type Equivalence func(a, b any) bool

// Descriptor carries a column's row-expression placeholder, its
// column-extraction expression, and exactly one of a total-order comparator
// or an equivalence comparator.
type Descriptor struct {
	Name string

	RowExpr    *expr.Param
	ColumnExpr *expr.Node

	Order Comparator  // present iff the column is ordered
	Equiv Equivalence // present iff the column is not ordered

	IsUnique bool
}

// NewOrdered builds a Descriptor for an ordered column.
func NewOrdered(name string, rowExpr *expr.Param, columnExpr *expr.Node, order Comparator, unique bool) *Descriptor {
	return &Descriptor{
		Name:       name,
		RowExpr:    rowExpr,
		ColumnExpr: columnExpr,
		Order:      order,
		IsUnique:   unique,
	}
}

// NewUnordered builds a Descriptor for a column compared only by equivalence.
func NewUnordered(name string, rowExpr *expr.Param, columnExpr *expr.Node, equiv Equivalence, unique bool) *Descriptor {
	return &Descriptor{
		Name:       name,
		RowExpr:    rowExpr,
		ColumnExpr: columnExpr,
		Equiv:      equiv,
		IsUnique:   unique,
	}
}

// IsOrdered reports whether the column carries a total order rather than a
// bare equivalence.
func (d *Descriptor) IsOrdered() bool {
	return d.Order != nil
}

// Matches reports whether e is structurally equal to d's column-expression
// once d's row-expression is unified with rowVar (§4.3). This is the sole
// entry point C4's decoder uses to recognize "this subtree extracts column d".
func (d *Descriptor) Matches(rowVar *expr.Param, e *expr.Node) bool {
	return expr.Equal(d.ColumnExpr, e, d.RowExpr, rowVar)
}
