package storage

import (
	"bytes"
	"sync"
)

// defaultBufferPool recycles *bytes.Buffer values used by Document.Serialize
// to avoid allocating a fresh buffer per document write.
var defaultBufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer gets a buffer from the pool
func GetBuffer() *bytes.Buffer {
	return defaultBufferPool.Get().(*bytes.Buffer)
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	buf.Reset()
	defaultBufferPool.Put(buf)
}

// keyBufferPool recycles the backing arrays EncodeKey appends composite-key
// components into. A table index encodes one key per row inserted or
// scanned, so pooling this scratch space keeps key encoding from churning
// the allocator on the hot insert/seek path.
var keyBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 32)
		return &buf
	},
}

// getKeyBuffer returns a zero-length byte slice with spare capacity for
// building one composite key.
func getKeyBuffer() []byte {
	p := keyBufferPool.Get().(*[]byte)
	return (*p)[:0]
}

// putKeyBuffer returns buf's backing array to the pool. Callers must copy
// out any bytes they need to keep first: the array backing buf may be
// handed back out by the next getKeyBuffer call.
func putKeyBuffer(buf []byte) {
	keyBufferPool.Put(&buf)
}
