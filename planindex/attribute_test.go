package planindex

import (
	"testing"

	"github.com/kartikbazzad/idxquery/column"
	"github.com/kartikbazzad/idxquery/expr"
)

func int64Order(a, b any) int {
	x, y := a.(int64), b.(int64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func buildIndex(t *testing.T) (*column.TableIndex, *expr.Env) {
	t.Helper()
	env, err := expr.NewEnv("row")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	c0Expr, err := env.Parse("row.c0")
	if err != nil {
		t.Fatal(err)
	}
	c1Expr, err := env.Parse("row.c1")
	if err != nil {
		t.Fatal(err)
	}
	c0 := column.NewOrdered("c0", env.Row, c0Expr, int64Order, false)
	c1 := column.NewOrdered("c1", env.Row, c1Expr, int64Order, false)
	return column.NewTableIndex(c0, c1), env
}

func TestAttributeSingleColumnRange(t *testing.T) {
	idx, env := buildIndex(t)

	lower, err := env.Parse("row.c0 > 2")
	if err != nil {
		t.Fatal(err)
	}
	upper, err := env.Parse("row.c0 <= 5")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{lower, upper}
	matches := Attribute(idx, env.Row, terms)

	if len(Leftover(terms)) != 0 {
		t.Errorf("expected both terms consumed, leftover = %v", Leftover(terms))
	}

	iv := matches[0].Interval
	if !iv.HasLower || iv.Lower.(int64) != 2 || !iv.LowerExclusive {
		t.Errorf("unexpected lower bound: %+v", iv)
	}
	if !iv.HasUpper || iv.Upper.(int64) != 5 || iv.UpperExclusive {
		t.Errorf("unexpected upper bound: %+v", iv)
	}
	if matches[1].Interval.HasLower || matches[1].Interval.HasUpper {
		t.Errorf("c1 should remain unconstrained, got %+v", matches[1].Interval)
	}
}

func TestAttributeLeftmostColumnWins(t *testing.T) {
	env, err := expr.NewEnv("row")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	colExpr, err := env.Parse("row.c0")
	if err != nil {
		t.Fatal(err)
	}
	// Both columns extract row.c0, so the term restricts either one; it
	// must be attributed to the leftmost column only.
	first := column.NewOrdered("first", env.Row, colExpr, int64Order, false)
	second := column.NewOrdered("second", env.Row, colExpr, int64Order, false)
	idx := column.NewTableIndex(first, second)

	term, err := env.Parse("row.c0 == 3")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{term}
	matches := Attribute(idx, env.Row, terms)

	if !matches[0].Interval.HasLower || matches[0].Interval.Lower.(int64) != 3 {
		t.Errorf("expected the first column attributed, got %+v", matches[0].Interval)
	}
	if matches[1].Interval.HasLower || matches[1].Interval.HasUpper {
		t.Errorf("the second column should be untouched, got %+v", matches[1].Interval)
	}
}

func TestAttributeUnmatchedTermLeftover(t *testing.T) {
	idx, env := buildIndex(t)

	unrelatedEnv, err := expr.NewEnv("row")
	if err != nil {
		t.Fatal(err)
	}
	unrelated, err := unrelatedEnv.Parse("row.other == 9")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{unrelated}
	Attribute(idx, env.Row, terms)

	leftover := Leftover(terms)
	if len(leftover) != 1 || leftover[0] != unrelated {
		t.Errorf("expected unrelated term left over intact, got %v", leftover)
	}
}

func TestAttributeTopLevelNotEqualLeftover(t *testing.T) {
	idx, env := buildIndex(t)

	term, err := env.Parse("row.c0 != 3")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{term}
	Attribute(idx, env.Row, terms)

	if len(Leftover(terms)) != 1 {
		t.Error("top-level != should not be attributed to any column")
	}
}

func TestAttributeNonLiteralOperandLeftover(t *testing.T) {
	idx, env := buildIndex(t)

	term, err := env.Parse("row.c0 == row.c1")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{term}
	matches := Attribute(idx, env.Row, terms)

	if len(Leftover(terms)) != 1 {
		t.Error("a comparison against another column reference should not be attributed to any column")
	}
	if matches[0].Interval.HasLower || matches[0].Interval.HasUpper {
		t.Errorf("c0's interval should remain unconstrained, got %+v", matches[0].Interval)
	}
}

func TestAttributeEqualityNarrowsToPoint(t *testing.T) {
	idx, env := buildIndex(t)

	term, err := env.Parse("row.c0 == 7")
	if err != nil {
		t.Fatal(err)
	}

	terms := []*expr.Node{term}
	matches := Attribute(idx, env.Row, terms)

	iv := matches[0].Interval
	if !iv.HasLower || !iv.HasUpper || iv.Lower.(int64) != 7 || iv.Upper.(int64) != 7 {
		t.Errorf("expected single-point interval at 7, got %+v", iv)
	}
}
