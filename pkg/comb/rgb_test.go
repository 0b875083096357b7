package comb

import (
	"math"
	"testing"

	"github.com/kittxd/vhs-decode/pkg/frame"
)

// builds a YIQ image with a single coloured sample for converter tests.
func singleSampleYIQ(d *Decoder, line, h int, y, i, q float64) *frame.YIQ {
	w := d.cfg.FieldWidth
	plane := w * d.frameHeight
	img := frame.NewYIQ(w, d.frameHeight)
	idx := line*w + h
	img.Data[idx] = y
	img.Data[plane+idx] = i
	img.Data[2*plane+idx] = q
	return img
}

func TestBurstSaturationCompensation(t *testing.T) {
	d := NewDecoder()
	cfg := d.Configuration()

	const line, h = 100, 400
	const mid = 33280.0
	img := singleSampleYIQ(d, line, h, mid, 10, 0)

	yScale := 65535.0 / (cfg.WhiteIRE - cfg.BlackIRE)
	luma := (mid - cfg.BlackIRE) * yScale

	// At the nominal burst the chroma gain is 1; at twice the nominal
	// it is halved.
	nominal := d.yiqToRGB(img, nominalBurstIRE)
	doubled := d.yiqToRGB(img, 2*nominalBurstIRE)

	x := h + outputAlignOffset
	rNom, _, _ := nominal.At(x, line)
	rDbl, _, _ := doubled.At(x, line)

	wantNom := luma + riCoeff*10*yScale
	wantDbl := luma + riCoeff*10*yScale/2
	if math.Abs(float64(rNom)-wantNom) > 1 {
		t.Errorf("nominal burst: R = %d, want about %v", rNom, wantNom)
	}
	if math.Abs(float64(rDbl)-wantDbl) > 1 {
		t.Errorf("doubled burst: R = %d, want about %v", rDbl, wantDbl)
	}

	// A non-positive burst measurement disables the renormalisation.
	unmeasured := d.yiqToRGB(img, 0)
	rUn, _, _ := unmeasured.At(x, line)
	if rUn != rNom {
		t.Errorf("zero burst: R = %d, want gain 1 result %d", rUn, rNom)
	}
}

func TestBlackAndWhiteDropsChroma(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.BlackAndWhite = true
	d := NewDecoder()
	if err := d.SetConfiguration(cfg); err != nil {
		t.Fatal(err)
	}

	const line, h = 100, 400
	img := singleSampleYIQ(d, line, h, 33280, 500, -300)

	rgb := d.yiqToRGB(img, nominalBurstIRE)
	r, g, b := rgb.At(h+outputAlignOffset, line)
	if r != g || r != b {
		t.Fatalf("black-and-white output %d/%d/%d, want equal channels", r, g, b)
	}
}

func TestWhitePoint100Expansion(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.WhitePoint100 = true
	d := NewDecoder()
	if err := d.SetConfiguration(cfg); err != nil {
		t.Fatal(err)
	}

	const line, h = 100, 400
	const mid = 33280.0
	img := singleSampleYIQ(d, line, h, mid, 0, 0)

	rgb := d.yiqToRGB(img, nominalBurstIRE)
	r, _, _ := rgb.At(h+outputAlignOffset, line)

	want := (mid - cfg.BlackIRE) * 65535.0 / (cfg.WhiteIRE - cfg.BlackIRE) * 125.0 / 100.0
	if math.Abs(float64(r)-want) > 1 {
		t.Errorf("expanded luma %d, want about %v", r, want)
	}

	// The white level itself overshoots and must clip, not wrap.
	img.Data[line*d.cfg.FieldWidth+h] = cfg.WhiteIRE
	rgb = d.yiqToRGB(img, nominalBurstIRE)
	r, _, _ = rgb.At(h+outputAlignOffset, line)
	if r != 65535 {
		t.Errorf("white level = %d, want clipped 65535", r)
	}
}
