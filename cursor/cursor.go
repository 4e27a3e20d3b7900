// Package cursor implements the filtered cursor (C6): given an underlying
// ordered cursor over all rows of a chosen index and a per-column interval
// table, yields exactly the rows whose key tuple lies in the product of
// those intervals, in index order, without a full scan.
package cursor

import (
	"github.com/kartikbazzad/idxquery/internal/apperr"
	"github.com/kartikbazzad/idxquery/planindex"
)

// OrderedCursor is the minimal read surface a filtered cursor needs from an
// underlying per-index row iterator.
type OrderedCursor interface {
	// MoveNext advances to the next row in index order; false means past
	// the end.
	MoveNext() (bool, error)
	// GetColumnValue returns the i-th key column's value at the current
	// row. Undefined before the first successful MoveNext/SeekTo.
	GetColumnValue(i int) (any, error)
	// Row returns the current row (only valid after MoveNext/SeekTo
	// returned true).
	Row() any
	// Reset rewinds to before the first row.
	Reset() error
	// Close releases any resources the cursor owns.
	Close() error
}

// SeekableCursor additionally supports positioning by key prefix.
type SeekableCursor interface {
	OrderedCursor
	// SeekTo positions at the lower bound (following = false) or the
	// strict upper bound (following = true) of key tuples whose first
	// prefixLength components equal keyValues[0:prefixLength]. Returns
	// false iff no such position exists; on true the cursor is already
	// positioned on a row (no extra MoveNext needed).
	SeekTo(prefixLength int, keyValues []any, following bool) (bool, error)
}

// startColumn/checkRoll/checkThis below are named per §4.6's state-machine
// table; they are plain methods rather than separate types since the state
// they share (j, started, currentKey) belongs to a single FilteredCursor.

// FilteredCursor implements §4.6's algorithm over an underlying
// SeekableCursor and a per-column interval table produced by planindex.Attribute.
type FilteredCursor struct {
	underlying SeekableCursor
	matches    []*planindex.ColumnMatch
	k          int // number of leading columns actually constrained/used

	started  bool
	anyEmpty bool

	currentKey []any

	closed bool
}

// New constructs a FilteredCursor over underlying, constrained by the first
// k columns of matches. k may be less than len(matches); the tail columns
// are left unconstrained and traversed naturally by the underlying cursor.
func New(underlying SeekableCursor, matches []*planindex.ColumnMatch, k int) (*FilteredCursor, error) {
	if underlying == nil {
		return nil, apperr.ErrNilArgument
	}
	if matches == nil {
		return nil, apperr.ErrNilArgument
	}
	if k < 0 || k > len(matches) {
		return nil, apperr.ErrOutOfRange
	}
	anyEmpty := false
	for i := 0; i < k; i++ {
		if matches[i].Interval.Empty {
			anyEmpty = true
			break
		}
	}
	return &FilteredCursor{
		underlying: underlying,
		matches:    matches,
		k:          k,
		anyEmpty:   anyEmpty,
		currentKey: make([]any, k),
	}, nil
}

// Close releases the underlying cursor. After Close, MoveNext, Reset and
// GetColumnValue fail with apperr.ErrDisposed; a second Close is a no-op
// returning nil, and Row, which has no error result, does not check for
// disposal.
func (f *FilteredCursor) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.underlying.Close()
}

// Reset rewinds the underlying cursor and clears the started flag.
func (f *FilteredCursor) Reset() error {
	if f.closed {
		return apperr.ErrDisposed
	}
	f.started = false
	for i := range f.currentKey {
		f.currentKey[i] = nil
	}
	return f.underlying.Reset()
}

// Row returns the current row, valid only after MoveNext returned true.
func (f *FilteredCursor) Row() any {
	return f.underlying.Row()
}

// GetColumnValue delegates to the underlying cursor.
func (f *FilteredCursor) GetColumnValue(i int) (any, error) {
	if f.closed {
		return nil, apperr.ErrDisposed
	}
	return f.underlying.GetColumnValue(i)
}

// violatesUpper reports whether v is past match's upper bound.
func violatesUpper(match *planindex.ColumnMatch, v any) bool {
	iv := match.Interval
	if !iv.HasUpper {
		return false
	}
	c := match.Column.Order(v, iv.Upper)
	return c > 0 || (c == 0 && iv.UpperExclusive)
}

// MoveNext implements §4.6's algorithm.
func (f *FilteredCursor) MoveNext() (bool, error) {
	if f.closed {
		return false, apperr.ErrDisposed
	}

	if f.anyEmpty {
		return false, nil
	}

	if f.k == 0 {
		return f.underlying.MoveNext()
	}

	if !f.started {
		f.started = true
		return f.startColumn(0)
	}

	ok, err := f.underlying.MoveNext()
	if err != nil || !ok {
		return false, err
	}
	return f.checkRoll(f.k - 1)
}

// startColumn implements "Start a column (j)".
func (f *FilteredCursor) startColumn(j int) (bool, error) {
	match := f.matches[j]
	iv := match.Interval
	if iv.HasLower {
		f.currentKey[j] = iv.Lower
		ok, err := f.underlying.SeekTo(j+1, f.currentKey, iv.LowerExclusive)
		if err != nil || !ok {
			return false, err
		}
		return f.checkRoll(j)
	}
	return f.updateThis(j)
}

// checkRoll implements "Check for roll" for working ordinal j.
func (f *FilteredCursor) checkRoll(j int) (bool, error) {
	for i := 0; i < j; i++ {
		v, err := f.underlying.GetColumnValue(i)
		if err != nil {
			return false, err
		}
		if f.matches[i].Column.Order(v, f.currentKey[i]) != 0 {
			f.currentKey[i] = v
			return f.checkThis(i)
		}
	}
	return f.updateThis(j)
}

// updateThis refreshes currentKey[j] and dispatches to "Check this column".
func (f *FilteredCursor) updateThis(j int) (bool, error) {
	v, err := f.underlying.GetColumnValue(j)
	if err != nil {
		return false, err
	}
	f.currentKey[j] = v
	return f.checkThis(j)
}

// checkThis implements "Check this column (j)".
func (f *FilteredCursor) checkThis(j int) (bool, error) {
	match := f.matches[j]
	if violatesUpper(match, f.currentKey[j]) {
		ok, err := f.underlying.SeekTo(j, f.currentKey, true)
		j--
		if err != nil || !ok {
			return false, err
		}
		if j < 0 {
			// The first column already exceeded its bound: nothing
			// upstream to re-check, start over at column 0.
			return f.startColumn(0)
		}
		return f.checkRoll(j)
	}

	if j == f.k-1 {
		return true, nil
	}
	return f.startColumn(j + 1)
}
