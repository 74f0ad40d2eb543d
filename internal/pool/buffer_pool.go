package pool

import "sync"

// BufferSize is the length of the buffers handed out by GetBuffer.
const BufferSize = 64

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// GetBuffer returns a read buffer of BufferSize bytes from the pool.
//
// Return back the buffer to the pool with PutBuffer.
func GetBuffer() *[]byte {
	buf, _ := bufferPool.Get().(*[]byte) // only *[]byte is put into the pool
	*buf = (*buf)[:BufferSize]

	return buf
}

// PutBuffer returns buf to the pool.
//
// buf and any slice of it cannot be accessed after returning to the pool.
func PutBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) < BufferSize {
		return
	}
	bufferPool.Put(buf)
}
