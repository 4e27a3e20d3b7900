package storage

import "github.com/kartikbazzad/idxquery/internal/apperr"

// TreeCursor adapts a BPlusTree's leaf-chain traversal to the filtered
// cursor's underlying-cursor contract: composite encoded keys decoded
// per-column via keycodec.go, seeking by byte-lexicographic prefix search
// (valid because composite keys are self-delimiting: a proper prefix of a
// key always sorts strictly before any key that extends it).
type TreeCursor struct {
	tree  *BPlusTree
	kinds []ValueKind

	page    *Page
	entries []Entry
	idx     int

	currentKey []any
	started    bool
	exhausted  bool
	closed     bool
}

// NewTreeCursor builds a TreeCursor over tree, whose composite keys are
// encoded component-wise according to kinds.
func NewTreeCursor(tree *BPlusTree, kinds []ValueKind) (*TreeCursor, error) {
	if tree == nil {
		return nil, apperr.ErrNilArgument
	}
	return &TreeCursor{tree: tree, kinds: kinds}, nil
}

func (c *TreeCursor) releasePage() {
	if c.page != nil {
		c.tree.UnpinLeaf(c.page)
		c.page = nil
		c.entries = nil
		c.idx = 0
	}
}

// Close releases any leaf page pin the cursor currently holds.
func (c *TreeCursor) Close() error {
	if c.closed {
		return nil
	}
	c.releasePage()
	c.closed = true
	return nil
}

// Reset rewinds to before the first row.
func (c *TreeCursor) Reset() error {
	if c.closed {
		return apperr.ErrDisposed
	}
	c.releasePage()
	c.currentKey = nil
	c.started = false
	c.exhausted = false
	return nil
}

// MoveNext advances to the next entry in key order, crossing leaf
// boundaries transparently.
func (c *TreeCursor) MoveNext() (bool, error) {
	if c.closed {
		return false, apperr.ErrDisposed
	}
	if c.exhausted {
		return false, nil
	}

	if !c.started {
		c.started = true
		page, entries, idx, ok, err := c.tree.SeekLowerBound(nil)
		if err != nil {
			return false, err
		}
		if !ok {
			c.exhausted = true
			return false, nil
		}
		c.page, c.entries, c.idx = page, entries, idx
		return c.decodeCurrent()
	}

	c.idx++
	for c.idx >= len(c.entries) {
		next, entries, ok, err := c.tree.NextLeaf(c.page)
		if err != nil {
			c.page = nil
			c.exhausted = true
			return false, err
		}
		if !ok {
			c.page = nil
			c.exhausted = true
			return false, nil
		}
		c.page, c.entries, c.idx = next, entries, 0
	}
	return c.decodeCurrent()
}

// SeekTo implements the lower/upper-bound prefix positioning the filtered
// cursor relies on: following = false seeks to the first key whose leading
// prefixLength components equal keyValues; following = true seeks to the
// first key strictly past every key sharing that prefix.
func (c *TreeCursor) SeekTo(prefixLength int, keyValues []any, following bool) (bool, error) {
	if c.closed {
		return false, apperr.ErrDisposed
	}
	if prefixLength < 0 || prefixLength > len(c.kinds) {
		return false, apperr.ErrOutOfRange
	}

	prefix, err := EncodeKeyPrefix(c.kinds, keyValues[:prefixLength])
	if err != nil {
		return false, err
	}

	seekKey := prefix
	if following {
		succ, ok := IncrementKeyPrefix(prefix)
		if !ok {
			c.releasePage()
			c.started, c.exhausted = true, true
			return false, nil
		}
		seekKey = succ
	}

	c.releasePage()
	c.started = true
	page, entries, idx, ok, err := c.tree.SeekLowerBound(seekKey)
	if err != nil {
		c.exhausted = true
		return false, err
	}
	if !ok {
		c.exhausted = true
		return false, nil
	}
	c.exhausted = false
	c.page, c.entries, c.idx = page, entries, idx
	return c.decodeCurrent()
}

// GetColumnValue returns the i-th key column's decoded value at the current row.
func (c *TreeCursor) GetColumnValue(i int) (any, error) {
	if c.closed {
		return nil, apperr.ErrDisposed
	}
	if i < 0 || i >= len(c.currentKey) {
		return nil, apperr.ErrOutOfRange
	}
	return c.currentKey[i], nil
}

// Row returns the current entry's raw stored value (the document bytes).
func (c *TreeCursor) Row() any {
	if c.page == nil || c.idx >= len(c.entries) {
		return nil
	}
	return c.entries[c.idx].Value
}

func (c *TreeCursor) decodeCurrent() (bool, error) {
	key, err := DecodeKey(c.kinds, c.entries[c.idx].Key)
	if err != nil {
		return false, err
	}
	c.currentKey = key
	return true, nil
}
