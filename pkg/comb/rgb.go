package comb

import (
	"github.com/kittxd/vhs-decode/pkg/frame"
)

// YIQ to RGB colour-space coefficients.
const (
	riCoeff = 0.956
	rqCoeff = 0.619
	giCoeff = -0.272
	gqCoeff = -0.647
	biCoeff = -1.106
	bqCoeff = 1.703
)

// yiqToRGB converts the filtered YIQ image to a 16-bit RGB frame. Luma
// is scaled so the configured black and white IRE levels map to 0 and
// 65535; chroma is renormalised against the frame's measured burst
// level. Output is written two samples right of the input grid to undo
// the luma-correction shift.
func (d *Decoder) yiqToRGB(yiq *frame.YIQ, burstLevel float64) *frame.RGB {
	cfg := d.cfg
	out := frame.NewRGB(cfg.FieldWidth, d.frameHeight)

	yScale := 65535.0 / (cfg.WhiteIRE - cfg.BlackIRE)
	if cfg.WhitePoint100 {
		// The source white point sits at 75 IRE; expand to the full
		// range and let the clamp absorb any overshoot.
		yScale *= 125.0 / 100.0
	}

	chromaGain := 1.0
	if burstLevel > 0 {
		chromaGain = nominalBurstIRE / burstLevel
	}
	iqScale := yScale * chromaGain

	plane := cfg.FieldWidth * d.frameHeight

	for line := cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		o := (line*cfg.FieldWidth + cfg.ActiveVideoStart + outputAlignOffset) * 3

		for h := cfg.ActiveVideoStart; h < cfg.ActiveVideoEnd; h++ {
			idx := line*cfg.FieldWidth + h

			y := clamp((yiq.Data[idx]-cfg.BlackIRE)*yScale, 0, 65535)
			i, q := yiq.Data[plane+idx], yiq.Data[2*plane+idx]
			if cfg.BlackAndWhite {
				i, q = 0, 0
			}
			i *= iqScale
			q *= iqScale

			r := y + riCoeff*i + rqCoeff*q
			g := y + giCoeff*i + gqCoeff*q
			b := y + biCoeff*i + bqCoeff*q

			out.Data[o] = uint16(clamp(r, 0, 65535))
			out.Data[o+1] = uint16(clamp(g, 0, 65535))
			out.Data[o+2] = uint16(clamp(b, 0, 65535))
			o += 3
		}
	}

	return out
}

// overlayMotionMap tints the RGB output toward magenta in proportion to
// the motion weights, for visual inspection of the 2D/3D blend. The
// primary output path is untouched when the overlay is disabled.
func (d *Decoder) overlayMotionMap(buf *frame.Buffer, rgb *frame.RGB) {
	w := d.cfg.FieldWidth

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			intensity := buf.K[line*w+h] * 65535

			idx := (line*w + h) * 3
			r := float64(rgb.Data[idx]) + intensity
			b := float64(rgb.Data[idx+2]) + intensity
			rgb.Data[idx] = uint16(clamp(r, 0, 65535))
			rgb.Data[idx+2] = uint16(clamp(b, 0, 65535))
		}
	}
}
