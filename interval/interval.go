// Package interval implements a half-open/closed interval over a
// totally-ordered value domain, with a monoidal intersection operation.
package interval

// Comparator reports the sign of a-b under a total order: negative if
// a < b, zero if a == b, positive if a > b.
type Comparator[T any] func(a, b T) int

// Interval describes a contiguous subset of a totally-ordered domain T.
// The zero value is the universal interval.
type Interval[T any] struct {
	HasLower       bool
	Lower          T
	LowerExclusive bool

	HasUpper       bool
	Upper          T
	UpperExclusive bool

	Empty bool
}

// Universe returns the unbounded interval containing every value.
func Universe[T any]() Interval[T] {
	return Interval[T]{}
}

// SinglePoint returns the closed interval [v, v].
func SinglePoint[T any](v T) Interval[T] {
	return Interval[T]{
		HasLower: true,
		Lower:    v,
		HasUpper: true,
		Upper:    v,
	}
}

// LowerBounded returns (v, +inf) if exclusive, else [v, +inf).
func LowerBounded[T any](v T, exclusive bool) Interval[T] {
	return Interval[T]{
		HasLower:       true,
		Lower:          v,
		LowerExclusive: exclusive,
	}
}

// UpperBounded returns (-inf, v) if exclusive, else (-inf, v].
func UpperBounded[T any](v T, exclusive bool) Interval[T] {
	return Interval[T]{
		HasUpper:       true,
		Upper:          v,
		UpperExclusive: exclusive,
	}
}

// OneSidedBound dispatches to LowerBounded or UpperBounded depending on isUpper.
func OneSidedBound[T any](v T, exclusive bool, isUpper bool) Interval[T] {
	if isUpper {
		return UpperBounded(v, exclusive)
	}
	return LowerBounded(v, exclusive)
}

// Intersect combines iv with other under cmp, following the tie-breaking
// rules from the interval algebra: for each side, the tighter bound wins;
// on a coincident bound, the result is exclusive iff either operand is.
func (iv Interval[T]) Intersect(other Interval[T], cmp Comparator[T]) Interval[T] {
	if iv.Empty || other.Empty {
		return Interval[T]{Empty: true}
	}

	result := Interval[T]{}

	switch {
	case iv.HasLower && other.HasLower:
		c := cmp(iv.Lower, other.Lower)
		switch {
		case c > 0:
			result.HasLower, result.Lower, result.LowerExclusive = true, iv.Lower, iv.LowerExclusive
		case c < 0:
			result.HasLower, result.Lower, result.LowerExclusive = true, other.Lower, other.LowerExclusive
		default:
			result.HasLower, result.Lower = true, iv.Lower
			result.LowerExclusive = iv.LowerExclusive || other.LowerExclusive
		}
	case iv.HasLower:
		result.HasLower, result.Lower, result.LowerExclusive = true, iv.Lower, iv.LowerExclusive
	case other.HasLower:
		result.HasLower, result.Lower, result.LowerExclusive = true, other.Lower, other.LowerExclusive
	}

	switch {
	case iv.HasUpper && other.HasUpper:
		c := cmp(iv.Upper, other.Upper)
		switch {
		case c < 0:
			result.HasUpper, result.Upper, result.UpperExclusive = true, iv.Upper, iv.UpperExclusive
		case c > 0:
			result.HasUpper, result.Upper, result.UpperExclusive = true, other.Upper, other.UpperExclusive
		default:
			result.HasUpper, result.Upper = true, iv.Upper
			result.UpperExclusive = iv.UpperExclusive || other.UpperExclusive
		}
	case iv.HasUpper:
		result.HasUpper, result.Upper, result.UpperExclusive = true, iv.Upper, iv.UpperExclusive
	case other.HasUpper:
		result.HasUpper, result.Upper, result.UpperExclusive = true, other.Upper, other.UpperExclusive
	}

	if result.HasLower && result.HasUpper {
		c := cmp(result.Lower, result.Upper)
		if c > 0 || (c == 0 && (result.LowerExclusive || result.UpperExclusive)) {
			return Interval[T]{Empty: true}
		}
	}

	return result
}

// Contains reports whether v lies within iv under cmp.
func (iv Interval[T]) Contains(v T, cmp Comparator[T]) bool {
	if iv.Empty {
		return false
	}
	if iv.HasLower {
		c := cmp(v, iv.Lower)
		if c < 0 || (c == 0 && iv.LowerExclusive) {
			return false
		}
	}
	if iv.HasUpper {
		c := cmp(v, iv.Upper)
		if c > 0 || (c == 0 && iv.UpperExclusive) {
			return false
		}
	}
	return true
}
