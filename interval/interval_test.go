package interval

import "testing"

func intCmp(a, b int) int { return a - b }

func TestIntersectCommutative(t *testing.T) {
	cases := []struct {
		a, b Interval[int]
	}{
		{LowerBounded(3, false), UpperBounded(10, true)},
		{SinglePoint(5), SinglePoint(5)},
		{SinglePoint(5), SinglePoint(6)},
		{Universe[int](), LowerBounded(0, false)},
		{Interval[int]{Empty: true}, Universe[int]()},
	}
	for _, c := range cases {
		ab := c.a.Intersect(c.b, intCmp)
		ba := c.b.Intersect(c.a, intCmp)
		if ab != ba {
			t.Errorf("intersect not commutative for %+v, %+v: %+v vs %+v", c.a, c.b, ab, ba)
		}
	}
}

func TestIntersectAssociative(t *testing.T) {
	a := LowerBounded(2, false)
	b := UpperBounded(8, false)
	c := LowerBounded(4, true)

	left := a.Intersect(b, intCmp).Intersect(c, intCmp)
	right := a.Intersect(b.Intersect(c, intCmp), intCmp)
	if left != right {
		t.Errorf("intersect not associative: %+v vs %+v", left, right)
	}
}

func TestIntersectIdentityAndAbsorbing(t *testing.T) {
	a := LowerBounded(2, false)

	if got := a.Intersect(Universe[int](), intCmp); got != a {
		t.Errorf("universe is not identity: got %+v want %+v", got, a)
	}

	empty := Interval[int]{Empty: true}
	if got := a.Intersect(empty, intCmp); !got.Empty {
		t.Errorf("empty is not absorbing: got %+v", got)
	}
}

func TestSinglePointIntersect(t *testing.T) {
	same := SinglePoint(5).Intersect(SinglePoint(5), intCmp)
	if same.Empty || same.Lower != 5 || same.Upper != 5 {
		t.Errorf("single-point self-intersect should be [5,5], got %+v", same)
	}

	diff := SinglePoint(5).Intersect(SinglePoint(6), intCmp)
	if !diff.Empty {
		t.Errorf("disjoint single points should intersect to empty, got %+v", diff)
	}
}

func TestCoincidentExclusiveBoundIsEmpty(t *testing.T) {
	closed := SinglePoint(5)                  // [5,5]
	openLower := LowerBounded(5, true)         // (5, +inf)
	result := closed.Intersect(openLower, intCmp)
	if !result.Empty {
		t.Errorf("coincident bound with exclusivity should be empty, got %+v", result)
	}
}

func TestIntersectTieBreakExclusiveWins(t *testing.T) {
	a := LowerBounded(5, false)
	b := LowerBounded(5, true)
	got := a.Intersect(b, intCmp)
	if !got.LowerExclusive {
		t.Errorf("tie on lower bound should OR exclusivity, got %+v", got)
	}
	if got.Lower != 5 {
		t.Errorf("tie on lower bound should keep the value, got %+v", got)
	}
}

func TestIntersectIdempotent(t *testing.T) {
	a := LowerBounded(2, false).Intersect(UpperBounded(9, true), intCmp)
	got := a.Intersect(a, intCmp)
	if got != a {
		t.Errorf("intersect not idempotent: got %+v want %+v", got, a)
	}
}

func TestContains(t *testing.T) {
	iv := LowerBounded(2, false).Intersect(UpperBounded(9, true), intCmp) // [2, 9)
	cases := []struct {
		v    int
		want bool
	}{
		{1, false},
		{2, true},
		{8, true},
		{9, false},
		{10, false},
	}
	for _, c := range cases {
		if got := iv.Contains(c.v, intCmp); got != c.want {
			t.Errorf("Contains(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}
