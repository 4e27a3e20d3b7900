package column

// TableIndex is an ordered sequence of ColumnDescriptors over a table; the
// flattened key has the lexicographic total order induced by column order.
// The in-scope core requires IsOrdered = true.
type TableIndex struct {
	Columns   []*Descriptor
	IsOrdered bool
}

// NewTableIndex builds an ordered TableIndex over columns, in the given order.
func NewTableIndex(columns ...*Descriptor) *TableIndex {
	return &TableIndex{Columns: columns, IsOrdered: true}
}

// Len returns the number of columns in the index.
func (t *TableIndex) Len() int { return len(t.Columns) }
