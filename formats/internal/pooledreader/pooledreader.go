// Package pooledreader recycles frame buffers between a RequestReader and the
// code that decodes its output.
package pooledreader

import (
	"github.com/ozontech/arriwire/formats/model"
	"github.com/ozontech/arriwire/utils/pool"
)

// retained buffers per reader; the converter keeps about this many frames in flight
const poolSize = 256

type PooledReader struct {
	pool *pool.SlicePool[[]byte]
	r    model.RequestReader
}

func New(r model.RequestReader) *PooledReader {
	return &PooledReader{pool.NewSlicePoolSize[[]byte](poolSize), r}
}

func (r *PooledReader) ReadNext() ([]byte, error) {
	b, _ := r.pool.Acquire()
	return r.r.ReadNext(b[:0])
}

func (r *PooledReader) Release(b []byte) {
	if cap(b) == 0 {
		return
	}
	r.pool.Release(b)
}

var _ model.PooledRequestReader = &PooledReader{}
