package pool

import (
	"sync"

	"github.com/kittxd/vhs-decode/pkg/frame"
)

type YIQPool struct {
	pool sync.Pool
}

func NewYIQPool() *YIQPool {
	return &YIQPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &frame.YIQ{}
			},
		},
	}
}

func (p *YIQPool) Get(width, height int) *frame.YIQ {
	yiq := p.pool.Get().(*frame.YIQ)
	yiq.Resize(width, height)
	return yiq
}

func (p *YIQPool) Put(yiq *frame.YIQ) {
	if yiq != nil {
		p.pool.Put(yiq)
	}
}

type SlicePool struct {
	float64Pool sync.Pool
}

func NewSlicePool() *SlicePool {
	return &SlicePool{
		float64Pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

func (p *SlicePool) GetFloat64(size int) []float64 {
	slice := p.float64Pool.Get().([]float64)
	if cap(slice) < size {
		slice = make([]float64, size)
	} else {
		slice = slice[:size]
		for i := range slice {
			slice[i] = 0
		}
	}
	return slice
}

func (p *SlicePool) PutFloat64(slice []float64) {
	if slice != nil && cap(slice) >= 64 {
		p.float64Pool.Put(slice[:0])
	}
}

var (
	DefaultYIQPool   = NewYIQPool()
	DefaultSlicePool = NewSlicePool()
)
