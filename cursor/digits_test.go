package cursor

import (
	"fmt"
	"testing"

	"github.com/kartikbazzad/idxquery/column"
	"github.com/kartikbazzad/idxquery/internal/apperr"
	"github.com/kartikbazzad/idxquery/interval"
	"github.com/kartikbazzad/idxquery/planindex"
)

// digitsCursor enumerates all length-n sequences of decimal digits in
// lexicographic order; row = digit tuple, key = the tuple itself, column i
// is the i-th most significant digit. It is a minimal, self-contained
// SeekableCursor used only to exercise FilteredCursor's state machine
// against its documented scan/seek scenarios.
type digitsCursor struct {
	n      int
	pos    int64
	max    int64
	closed bool
}

func newDigitsCursor(n int) *digitsCursor {
	max := int64(1)
	for i := 0; i < n; i++ {
		max *= 10
	}
	return &digitsCursor{n: n, pos: -1, max: max - 1}
}

func (d *digitsCursor) digitAt(pos int64, col int) int64 {
	shift := d.n - 1 - col
	div := int64(1)
	for i := 0; i < shift; i++ {
		div *= 10
	}
	return (pos / div) % 10
}

func (d *digitsCursor) MoveNext() (bool, error) {
	if d.closed {
		return false, apperr.ErrDisposed
	}
	if d.pos > d.max {
		return false, nil
	}
	d.pos++
	if d.pos > d.max {
		return false, nil
	}
	return true, nil
}

func (d *digitsCursor) GetColumnValue(i int) (any, error) {
	if d.closed {
		return nil, apperr.ErrDisposed
	}
	if i < 0 || i >= d.n {
		return nil, apperr.ErrOutOfRange
	}
	return d.digitAt(d.pos, i), nil
}

func (d *digitsCursor) Row() any {
	digits := make([]int64, d.n)
	for i := 0; i < d.n; i++ {
		digits[i] = d.digitAt(d.pos, i)
	}
	return digits
}

func (d *digitsCursor) Reset() error {
	if d.closed {
		return apperr.ErrDisposed
	}
	d.pos = -1
	return nil
}

func (d *digitsCursor) Close() error {
	d.closed = true
	return nil
}

func (d *digitsCursor) SeekTo(prefixLength int, keyValues []any, following bool) (bool, error) {
	if d.closed {
		return false, apperr.ErrDisposed
	}
	if prefixLength < 0 || prefixLength > d.n {
		return false, apperr.ErrOutOfRange
	}

	var prefixNum int64
	for i := 0; i < prefixLength; i++ {
		v, ok := keyValues[i].(int64)
		if !ok {
			return false, fmt.Errorf("digitsCursor: bad key value %v (%T)", keyValues[i], keyValues[i])
		}
		prefixNum = prefixNum*10 + v
	}
	scale := int64(1)
	for i := 0; i < d.n-prefixLength; i++ {
		scale *= 10
	}

	target := prefixNum * scale
	if following {
		target = (prefixNum + 1) * scale
	}
	if target > d.max {
		d.pos = d.max + 1
		return false, nil
	}
	d.pos = target
	return true, nil
}

// digitOrder is the total order shared by every digit column in these tests.
func digitOrder(a, b any) int {
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

func digitColumn(name string) *column.Descriptor {
	return column.NewOrdered(name, nil, nil, digitOrder, false)
}

// digitMatches builds an n-column match table with the given per-column
// intervals (nil entries default to the universal interval).
func digitMatches(n int, ivs map[int]interval.Interval[any]) []*planindex.ColumnMatch {
	matches := make([]*planindex.ColumnMatch, n)
	for i := 0; i < n; i++ {
		iv, ok := ivs[i]
		if !ok {
			iv = interval.Universe[any]()
		}
		matches[i] = &planindex.ColumnMatch{
			Column:   digitColumn(fmt.Sprintf("c%d", i)),
			Interval: iv,
		}
	}
	return matches
}

func closedRange(lo, hi int64) interval.Interval[any] {
	return interval.Interval[any]{HasLower: true, Lower: lo, HasUpper: true, Upper: hi}
}

func rowDigits(t *testing.T, row any) []int64 {
	t.Helper()
	digits, ok := row.([]int64)
	if !ok {
		t.Fatalf("unexpected row type %T", row)
	}
	return digits
}

func drainAll(t *testing.T, fc *FilteredCursor) [][]int64 {
	t.Helper()
	var out [][]int64
	for {
		ok, err := fc.MoveNext()
		if err != nil {
			t.Fatalf("MoveNext: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, rowDigits(t, fc.Row()))
	}
	return out
}

// Scenario 1: N=5, c0∈[3,7], c1∈[1,8], c2=9, c3∈[0,2]; tail column c4 unconstrained.
func TestFilteredCursorScenario1(t *testing.T) {
	matches := digitMatches(5, map[int]interval.Interval[any]{
		0: closedRange(3, 7),
		1: closedRange(1, 8),
		2: interval.SinglePoint[any](int64(9)),
		3: closedRange(0, 2),
	})
	underlying := newDigitsCursor(5)
	fc, err := New(underlying, matches, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	rows := drainAll(t, fc)
	if len(rows) != 1200 {
		t.Fatalf("expected 1200 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r[0] < 3 || r[0] > 7 || r[1] < 1 || r[1] > 8 || r[2] != 9 || r[3] < 0 || r[3] > 2 {
			t.Fatalf("row %v violates constraints", r)
		}
	}
	assertStrictlyIncreasing(t, rows)
}

// Scenario 2: N=3, no constraints.
func TestFilteredCursorScenario2(t *testing.T) {
	matches := digitMatches(3, nil)
	underlying := newDigitsCursor(3)
	fc, err := New(underlying, matches, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	rows := drainAll(t, fc)
	if len(rows) != 1000 {
		t.Fatalf("expected 1000 rows, got %d", len(rows))
	}
	for i, r := range rows {
		want := int64(i)
		got := r[0]*100 + r[1]*10 + r[2]
		if got != want {
			t.Fatalf("row %d = %v, want numeric value %d", i, r, want)
		}
	}
}

// Scenario 3: N=3, c0=4, c2=7.
func TestFilteredCursorScenario3(t *testing.T) {
	matches := digitMatches(3, map[int]interval.Interval[any]{
		0: interval.SinglePoint[any](int64(4)),
		2: interval.SinglePoint[any](int64(7)),
	})
	underlying := newDigitsCursor(3)
	fc, err := New(underlying, matches, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	rows := drainAll(t, fc)
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r[0] != 4 || r[2] != 7 || r[1] != int64(i) {
			t.Fatalf("row %d = %v, want 4%d7", i, r, i)
		}
	}
}

// Scenario 4: N=4, c0∈(2,5] (lower-exclusive).
func TestFilteredCursorScenario4(t *testing.T) {
	matches := digitMatches(4, map[int]interval.Interval[any]{
		0: {HasLower: true, Lower: int64(2), LowerExclusive: true, HasUpper: true, Upper: int64(5)},
	})
	underlying := newDigitsCursor(4)
	fc, err := New(underlying, matches, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	rows := drainAll(t, fc)
	if len(rows) != 3000 {
		t.Fatalf("expected 3000 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r[0] < 3 || r[0] > 5 {
			t.Fatalf("row %v has c0 outside {3,4,5}", r)
		}
	}
}

// Scenario 5: N=2, c0∈[5,5], c1∈[8,3] (empty interval) ⇒ 0 rows.
func TestFilteredCursorScenario5(t *testing.T) {
	matches := digitMatches(2, map[int]interval.Interval[any]{
		0: interval.SinglePoint[any](int64(5)),
		1: closedRange(8, 3), // lower > upper; Empty is set explicitly below
	})
	matches[1].Interval.Empty = true
	underlying := newDigitsCursor(2)
	fc, err := New(underlying, matches, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	ok, err := fc.MoveNext()
	if err != nil {
		t.Fatalf("MoveNext: %v", err)
	}
	if ok {
		t.Fatal("expected immediate false from an empty interval")
	}
}

// Scenario 6: reset idempotence.
func TestFilteredCursorResetIdempotence(t *testing.T) {
	matches := digitMatches(3, map[int]interval.Interval[any]{
		0: interval.SinglePoint[any](int64(4)),
		2: interval.SinglePoint[any](int64(7)),
	})
	underlying := newDigitsCursor(3)
	fc, err := New(underlying, matches, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	first := drainAll(t, fc)
	if err := fc.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	second := drainAll(t, fc)

	if len(first) != len(second) {
		t.Fatalf("reset replay produced %d rows, want %d", len(second), len(first))
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("row %d differs after reset: %v vs %v", i, first[i], second[i])
			}
		}
	}
}

func assertStrictlyIncreasing(t *testing.T, rows [][]int64) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		if !lessDigits(rows[i-1], rows[i]) {
			t.Fatalf("rows not strictly increasing at %d: %v then %v", i, rows[i-1], rows[i])
		}
	}
}

func lessDigits(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// TestFilteredCursorUniversalMembership checks that, for a random-ish
// interval combination, a row appears in the output iff it satisfies every
// column's interval independently.
func TestFilteredCursorUniversalMembership(t *testing.T) {
	n := 3
	matches := digitMatches(n, map[int]interval.Interval[any]{
		0: closedRange(2, 6),
		1: {HasLower: true, Lower: int64(1), LowerExclusive: true, HasUpper: true, Upper: int64(9)},
	})
	underlying := newDigitsCursor(n)
	fc, err := New(underlying, matches, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fc.Close()

	rows := drainAll(t, fc)
	got := map[[3]int64]bool{}
	for _, r := range rows {
		got[[3]int64{r[0], r[1], r[2]}] = true
	}

	for a := int64(0); a < 10; a++ {
		for b := int64(0); b < 10; b++ {
			for c := int64(0); c < 10; c++ {
				inA := matches[0].Interval.Contains(a, digitOrder)
				inB := matches[1].Interval.Contains(b, digitOrder)
				want := inA && inB
				if got[[3]int64{a, b, c}] != want {
					t.Fatalf("membership mismatch for %d%d%d: got %v want %v", a, b, c, got[[3]int64{a, b, c}], want)
				}
			}
		}
	}
}
