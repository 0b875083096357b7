package filter

import (
	"math"
	"math/cmplx"
)

// Filter is a single-sample convolution unit with internal delay state.
// It holds a feedforward kernel b and an optional feedback kernel a; with
// a == nil it is a plain FIR filter. One instance covers one channel of
// one scan: construct a fresh filter (or call Reset) per line, since the
// history must never leak between unrelated lines.
type Filter struct {
	b []float64
	a []float64
	x []float64 // input history, x[0] is the newest sample
	y []float64 // output history for the feedback path
}

// NewFIR returns a filter with the given feedforward kernel and zeroed
// history.
func NewFIR(b []float64) *Filter {
	return &Filter{
		b: b,
		x: make([]float64, len(b)),
	}
}

// NewIIR returns a recursive filter. a[0] is the output normalisation
// term; the remaining a coefficients weight prior outputs.
func NewIIR(b, a []float64) *Filter {
	return &Filter{
		b: b,
		a: a,
		x: make([]float64, len(b)),
		y: make([]float64, len(a)),
	}
}

// Feed accepts one input sample and returns one filtered output: the dot
// product of the history (newest first) with the kernel, minus the
// weighted output history when a feedback kernel is present.
func (f *Filter) Feed(sample float64) float64 {
	for i := len(f.x) - 1; i > 0; i-- {
		f.x[i] = f.x[i-1]
	}
	f.x[0] = sample

	out := 0.0
	for i, c := range f.b {
		out += c * f.x[i]
	}

	if f.a != nil {
		for i := 1; i < len(f.a); i++ {
			out -= f.a[i] * f.y[i-1]
		}
		out /= f.a[0]
		for i := len(f.y) - 1; i > 0; i-- {
			f.y[i] = f.y[i-1]
		}
		f.y[0] = out
	}

	return out
}

// Reset clears the delay lines, as if the filter had just been built.
func (f *Filter) Reset() {
	for i := range f.x {
		f.x[i] = 0
	}
	for i := range f.y {
		f.y[i] = 0
	}
}

// Prime fills the history as if the filter had already consumed an
// infinite run of v, so a constant line produces the warmed-up DC
// response from its first sample.
func (f *Filter) Prime(v float64) {
	for i := range f.x {
		f.x[i] = v
	}
	if f.a != nil {
		sb := 0.0
		for _, c := range f.b {
			sb += c
		}
		sa := 0.0
		for _, c := range f.a {
			sa += c
		}
		dc := 0.0
		if sa != 0 {
			dc = v * sb / sa
		}
		for i := range f.y {
			f.y[i] = dc
		}
	}
}

// DFT computes the discrete Fourier transform of data. Used to verify
// kernel frequency responses.
func DFT(data []float64) []complex128 {
	n := len(data)
	result := make([]complex128, n)

	for k := 0; k < n; k++ {
		sum := complex(0, 0)
		for j := 0; j < n; j++ {
			angle := -2 * math.Pi * float64(k) * float64(j) / float64(n)
			sum += complex(data[j], 0) * cmplx.Exp(complex(0, angle))
		}
		result[k] = sum
	}

	return result
}
