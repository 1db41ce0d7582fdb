package vpk

import "sync"

// copyBufPool reuses the byte slices the writer uses to stream a source
// file's body into its destination archive, avoiding a fresh allocation per
// file when packing a tree with tens of thousands of entries.
var copyBufPool = sync.Pool{
	New: func() any { b := make([]byte, 256<<10); return &b }, // 256 KiB buf once
}

// getCopyBuf obtains a copy buffer from the pool.
func getCopyBuf() []byte { return *copyBufPool.Get().(*[]byte) }

// putCopyBuf returns a copy buffer to the pool for reuse.
func putCopyBuf(b []byte) { copyBufPool.Put(&b) }
