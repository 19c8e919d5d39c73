package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlicePool(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	p := NewSlicePool[[]byte]()
	_, ok := p.Acquire()
	a.False(ok)

	a.True(p.Release([]byte("first")))
	a.True(p.Release([]byte("second")))
	a.Equal(2, p.Len())

	v, ok := p.Acquire()
	a.True(ok)
	a.Equal("second", string(v))
	v, ok = p.Acquire()
	a.True(ok)
	a.Equal("first", string(v))
	a.Zero(p.Len())
}

func TestSlicePoolSizeLimit(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	p := NewSlicePoolSize[int](2)
	a.True(p.Release(1))
	a.True(p.Release(2))
	a.False(p.Release(3))
	a.Equal(2, p.Len())

	v, _ := p.Acquire()
	a.Equal(2, v)
	a.True(p.Release(4))
}
