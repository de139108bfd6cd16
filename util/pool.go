package util

import "sync"

// bufPool recycles DefaultBufSize relay buffers between copies.
var bufPool = sync.Pool{ //nolint:gochecknoglobals
	New: func() any {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf takes a relay buffer; hand it back with [PutBuf].
func GetBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

// PutBuf returns buf to the pool.  A nil buf is ignored.
func PutBuf(buf *[]byte) {
	if buf == nil || len(*buf) != DefaultBufSize {
		return
	}
	bufPool.Put(buf)
}
