package random

import (
	"math"
	"time"
)

// XorWow is a small deterministic PRNG used to synthesise noisy test
// signals without pulling in math/rand ordering guarantees.
type XorWow struct {
	x, y, z, w, v, d uint32
}

func New(seed uint32) *XorWow {
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	return &XorWow{
		x: seed,
		y: 362436069,
		z: 521288629,
		w: 88675123,
		v: 5783321,
		d: 6615241,
	}
}

func (r *XorWow) Next() uint32 {
	t := r.x ^ (r.x >> 2)
	r.x = r.y
	r.y = r.z
	r.z = r.w
	r.w = r.v
	r.v = (r.v ^ (r.v << 4)) ^ (t ^ (t << 1))
	r.d += 362437
	return r.d + r.v
}

func (r *XorWow) Float64() float64 {
	return float64(r.Next()) / float64(uint32(0xFFFFFFFF))
}

// Uniform returns a value in [min, max].
func (r *XorWow) Uniform(min, max float64) float64 {
	return min + (max-min)*r.Float64()
}

// Normal returns a gaussian sample via the Box-Muller transform.
func (r *XorWow) Normal(mean, stddev float64) float64 {
	u1 := r.Float64()
	u2 := r.Float64()
	z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return z0*stddev + mean
}
