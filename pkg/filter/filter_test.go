package filter

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFeedComputesDotProduct(t *testing.T) {
	f := NewFIR([]float64{0.5, 0.3, 0.2})

	inputs := []float64{1, 2, 3, 4}
	want := []float64{
		0.5,
		0.5*2 + 0.3*1,
		0.5*3 + 0.3*2 + 0.2*1,
		0.5*4 + 0.3*3 + 0.2*2,
	}

	for i, in := range inputs {
		got := f.Feed(in)
		if math.Abs(got-want[i]) > 1e-12 {
			t.Errorf("sample %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestIIRRecurrence(t *testing.T) {
	// One-pole smoother: y = 0.25*x + 0.75*y_prev.
	f := NewIIR([]float64{0.25}, []float64{1, -0.75})

	prev := 0.0
	for i := 0; i < 50; i++ {
		x := float64(i%7) - 3
		want := 0.25*x + 0.75*prev
		got := f.Feed(x)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
		prev = want
	}
}

// Filtering the same line through two freshly constructed instances must
// yield identical results: no state leaks between scans.
func TestFreshInstancesMatch(t *testing.T) {
	line := make([]float64, 256)
	for i := range line {
		line[i] = math.Sin(float64(i)*0.37) * 100
	}

	a := NewFIR(ColorLPI)
	b := NewFIR(ColorLPI)
	c := NewFIR(ColorLPI)
	c.Feed(12345) // dirty it, then reset
	c.Reset()

	for i, v := range line {
		va, vb, vc := a.Feed(v), b.Feed(v), c.Feed(v)
		if va != vb || va != vc {
			t.Fatalf("sample %d: fresh instances diverged: %v %v %v", i, va, vb, vc)
		}
	}
}

func TestPrimeDCSteadyState(t *testing.T) {
	const v = 12345.0

	lp := NewFIR(ColorLPI)
	lp.Prime(v)
	if got := lp.Feed(v); math.Abs(got-v) > 1e-6 {
		t.Errorf("primed low-pass on constant input: got %v, want %v", got, v)
	}

	hp := NewFIR(NRHighPass)
	hp.Prime(v)
	if got := hp.Feed(v); math.Abs(got) > 1e-5 {
		t.Errorf("primed high-pass on constant input: got %v, want ~0", got)
	}

	ir := NewIIR([]float64{0.25}, []float64{1, -0.75})
	ir.Prime(v)
	if got := ir.Feed(v); math.Abs(got-v) > 1e-6 {
		t.Errorf("primed one-pole on constant input: got %v, want %v", got, v)
	}
}

// Spectral sanity of the fixed kernels: the chroma low-passes are unity
// at DC and near-zero at Nyquist, the noise-reduction high-pass is the
// other way around.
func TestKernelResponses(t *testing.T) {
	response := func(kernel []float64, bin, n int) float64 {
		padded := make([]float64, n)
		copy(padded, kernel)
		return cmplx.Abs(DFT(padded)[bin])
	}

	const n = 64
	tests := []struct {
		name        string
		kernel      []float64
		dc, nyq     float64
		dcTol, nTol float64
	}{
		{"ColorLPI", ColorLPI, 1, 0, 1e-6, 0.01},
		{"ColorLPQ", ColorLPQ, 1, 0, 1e-6, 0.01},
		{"NRHighPass", NRHighPass, 0, 1, 1e-6, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := response(tt.kernel, 0, n); math.Abs(got-tt.dc) > tt.dcTol {
				t.Errorf("DC gain %v, want %v", got, tt.dc)
			}
			if got := response(tt.kernel, n/2, n); math.Abs(got-tt.nyq) > tt.nTol {
				t.Errorf("Nyquist gain %v, want %v", got, tt.nyq)
			}
		})
	}
}

func TestNRDelayMatchesKernel(t *testing.T) {
	// The kernel is linear phase, so its group delay is the centre tap.
	if want := (len(NRHighPass) - 1) / 2; NRDelay != want {
		t.Fatalf("NRDelay = %d, kernel centre = %d", NRDelay, want)
	}
}
