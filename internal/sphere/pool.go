package sphere

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fftPool hands out FFT plans of a fixed length. A plan owns its work
// buffers, so one plan must not be shared between concurrent callers.
type fftPool struct {
	pool sync.Pool
	size int
}

func newFFTPool(n int) *fftPool {
	return &fftPool{
		size: n,
		pool: sync.Pool{
			New: func() interface{} {
				return fourier.NewFFT(n)
			},
		},
	}
}

func (p *fftPool) Get() *fourier.FFT {
	return p.pool.Get().(*fourier.FFT)
}

func (p *fftPool) Put(f *fourier.FFT) {
	if f.Len() == p.size {
		p.pool.Put(f)
	}
}
