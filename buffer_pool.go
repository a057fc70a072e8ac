package serialmon

import (
	"sync"

	"go.uber.org/atomic"
)

// readChunkSize is the size of the scratch buffer each Connection reads
// device bytes into before they are appended to the pending record.
const readChunkSize = 256

// BufferPool recycles fixed-size read chunks between connections.
type BufferPool struct {
	pool sync.Pool
	size int

	gets    atomic.Int64
	puts    atomic.Int64
	creates atomic.Int64
}

// PoolStats counts BufferPool traffic. Creates counts chunks allocated
// because the pool was empty.
type PoolStats struct {
	Size    int
	Gets    int64
	Puts    int64
	Creates int64
}

func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		bp.creates.Inc()
		return make([]byte, size)
	}
	return bp
}

func (bp *BufferPool) Get() []byte {
	bp.gets.Inc()
	return bp.pool.Get().([]byte)
}

// Put zeroes buf and returns it to the pool. Chunks of another size are
// dropped.
func (bp *BufferPool) Put(buf []byte) {
	if len(buf) != bp.size {
		return
	}
	bp.puts.Inc()
	clear(buf)
	bp.pool.Put(buf)
}

func (bp *BufferPool) Stats() PoolStats {
	return PoolStats{
		Size:    bp.size,
		Gets:    bp.gets.Load(),
		Puts:    bp.puts.Load(),
		Creates: bp.creates.Load(),
	}
}

var readBufPool = NewBufferPool(readChunkSize)

func getReadBuf() []byte { return readBufPool.Get() }

func putReadBuf(buf []byte) { readBufPool.Put(buf) }
