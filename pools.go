package mercury

import "sync"

var writeBufferPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

// Buffers that grew far beyond the usual file size are left to the GC.
const maxPooledWriteBuffer = 16 << 20

func releaseWriteBuffer(b []byte) {
	if cap(b) <= maxPooledWriteBuffer {
		writeBufferPool.Put(b[:0])
	}
}
