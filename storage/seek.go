package storage

import "bytes"

// seekLeaf descends from the root to the leaf page that would contain key,
// pinning and returning it. Mirrors Search's traversal pattern but leaves
// the leaf pinned for the caller rather than unpinning it immediately.
func (t *BPlusTree) seekLeaf(key []byte) (*Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootPage, err := t.bp.FetchPage(t.rootID)
	if err != nil {
		return nil, err
	}

	leafPage, err := t.findLeafPage(rootPage, key)
	if err != nil {
		t.bp.UnpinPage(rootPage.ID, false)
		return nil, err
	}
	if leafPage.ID != rootPage.ID {
		t.bp.UnpinPage(rootPage.ID, false)
	}
	return leafPage, nil
}

// lowerBoundIndex returns the index of the first entry with Key >= seekKey,
// or len(entries) if every entry's key is less than seekKey.
func lowerBoundIndex(entries []Entry, seekKey []byte) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(entries[mid].Key, seekKey) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// SeekLowerBound positions at the first entry with Key >= seekKey, crossing
// leaf boundaries via NextPage when the target leaf's entries are all below
// seekKey (possible at a leaf split boundary). On success the returned page
// is pinned and owned by the caller; release it with UnpinLeaf or by
// handing it to NextLeaf. ok is false iff no such entry exists.
func (t *BPlusTree) SeekLowerBound(seekKey []byte) (page *Page, entries []Entry, index int, ok bool, err error) {
	page, err = t.seekLeaf(seekKey)
	if err != nil {
		return nil, nil, 0, false, err
	}

	for {
		entries = t.getLeafEntries(page)
		index = lowerBoundIndex(entries, seekKey)
		if index < len(entries) {
			return page, entries, index, true, nil
		}

		nextID := page.GetNextPage()
		t.bp.UnpinPage(page.ID, false)
		if nextID == 0 {
			return nil, nil, 0, false, nil
		}
		page, err = t.bp.FetchPage(nextID)
		if err != nil {
			return nil, nil, 0, false, err
		}
	}
}

// NextLeaf follows the leaf chain from page (which must currently be pinned
// by the caller) to the next leaf, releasing page's pin in the process. ok
// is false at the end of the chain, in which case no further pin is held.
func (t *BPlusTree) NextLeaf(page *Page) (next *Page, entries []Entry, ok bool, err error) {
	nextID := page.GetNextPage()
	t.bp.UnpinPage(page.ID, false)
	if nextID == 0 {
		return nil, nil, false, nil
	}
	next, err = t.bp.FetchPage(nextID)
	if err != nil {
		return nil, nil, false, err
	}
	return next, t.getLeafEntries(next), true, nil
}

// UnpinLeaf releases a leaf page previously returned by SeekLowerBound or
// NextLeaf without having been passed back into NextLeaf.
func (t *BPlusTree) UnpinLeaf(page *Page) {
	t.bp.UnpinPage(page.ID, false)
}
