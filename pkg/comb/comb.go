package comb

import (
	"fmt"
	"math"

	"github.com/kittxd/vhs-decode/pkg/filter"
	"github.com/kittxd/vhs-decode/pkg/frame"
	"github.com/kittxd/vhs-decode/pkg/pool"
)

// Hardware limits for NTSC frames sampled at 4x the subcarrier rate.
const (
	maxFieldWidth       = 910
	maxFrameHeight      = 525
	minActiveVideoStart = 16
)

// Empirically tuned 2D comparison constants. Do not re-derive these;
// they were arrived at by eye against real captures.
const (
	chroma2DRangeIRE    = 45.0
	chroma2DDiscount    = 0.10
	chroma2DAgreeBand   = 0.20
	chroma2DRatioCutoff = 3.0
)

const (
	defaultLumaNRLevel   = 1.0
	defaultChromaNRLevel = 0.0

	// Nominal colour burst amplitude; the measured per-frame burst
	// level is normalised against this to compensate signal-path gain.
	nominalBurstIRE = 20.0

	// The luma correction shifts the image two samples left; the RGB
	// writer shifts it back.
	outputAlignOffset = 2
)

// Configuration is the immutable-per-run parameter set for a Decoder.
type Configuration struct {
	FieldWidth            int // samples per line
	FieldHeight           int // lines per field
	ActiveVideoStart      int // first active sample, inclusive
	ActiveVideoEnd        int // last active sample, exclusive
	FirstVisibleFrameLine int

	BlackIRE float64 // black level in raw 16-bit sample units
	WhiteIRE float64 // white level in raw 16-bit sample units

	BlackAndWhite bool // discard chroma entirely
	WhitePoint100 bool // expand a 75% white point to full range

	ColorLPF   bool // band-limit the split chroma
	ColorLPFHQ bool // use the wider I kernel on both channels

	Use3D         bool // enable the temporal (frame-difference) stage
	ShowMotionMap bool // tint the output by the motion weights

	LumaNRLevel   float64 // luma noise coring threshold, IRE units
	ChromaNRLevel float64 // chroma noise coring threshold, IRE units
}

// DefaultConfiguration matches a standard NTSC LaserDisc capture.
func DefaultConfiguration() Configuration {
	return Configuration{
		FieldWidth:            910,
		FieldHeight:           263,
		ActiveVideoStart:      40,
		ActiveVideoEnd:        840,
		FirstVisibleFrameLine: 43,
		BlackIRE:              15360,
		WhiteIRE:              51200,
		ColorLPF:              true,
		ColorLPFHQ:            true,
		LumaNRLevel:           defaultLumaNRLevel,
		ChromaNRLevel:         defaultChromaNRLevel,
	}
}

func (c Configuration) validate() error {
	if c.FieldWidth <= 0 || c.FieldWidth > maxFieldWidth {
		return fmt.Errorf("comb: field width %d out of range (1-%d)", c.FieldWidth, maxFieldWidth)
	}
	frameHeight := c.FieldHeight*2 - 1
	if c.FieldHeight <= 0 || frameHeight > maxFrameHeight {
		return fmt.Errorf("comb: frame height %d exceeds the allowed maximum %d", frameHeight, maxFrameHeight)
	}
	if c.ActiveVideoStart < minActiveVideoStart {
		return fmt.Errorf("comb: active video start %d leaves no room for filter look-behind (minimum %d)",
			c.ActiveVideoStart, minActiveVideoStart)
	}
	// The separator reads two samples past the active range and the RGB
	// writer realigns two samples right, so the end must stay clear of
	// the line edge.
	if c.ActiveVideoEnd <= c.ActiveVideoStart || c.ActiveVideoEnd > c.FieldWidth-outputAlignOffset {
		return fmt.Errorf("comb: active video range [%d,%d) invalid for field width %d",
			c.ActiveVideoStart, c.ActiveVideoEnd, c.FieldWidth)
	}
	if c.FirstVisibleFrameLine < 0 || c.FirstVisibleFrameLine >= frameHeight {
		return fmt.Errorf("comb: first visible frame line %d outside frame of %d lines",
			c.FirstVisibleFrameLine, frameHeight)
	}
	if c.WhiteIRE <= c.BlackIRE {
		return fmt.Errorf("comb: white IRE level %v not above black level %v", c.WhiteIRE, c.BlackIRE)
	}
	return nil
}

// MotionEstimator supplies a per-pixel motion weight map for a frame's
// YIQ image: 0 for fully stationary pixels through 1 for fully moving,
// flattened as line*fieldWidth+sample. The decoder treats the estimator
// as opaque; anything satisfying this interface can drive the 2D/3D
// blend.
type MotionEstimator interface {
	MotionWeights(yiq *frame.YIQ) []float64
}

// Decoder separates luma and chroma from interlaced composite field
// pairs and produces RGB frames. A Decoder is cheap to construct; use
// one instance per stream. It is not safe for concurrent use because of
// the retained previous frame in temporal mode.
type Decoder struct {
	cfg         Configuration
	irescale    float64
	frameHeight int

	motion MotionEstimator

	// prev is the retained previous frame, only populated in temporal
	// mode and replaced wholesale after each processed frame.
	prev *frame.Buffer
}

// NewDecoder returns a decoder with the default configuration.
func NewDecoder() *Decoder {
	d := &Decoder{}
	if err := d.SetConfiguration(DefaultConfiguration()); err != nil {
		panic(err) // the default configuration is valid
	}
	return d
}

// Configuration returns the active parameter set.
func (d *Decoder) Configuration() Configuration {
	return d.cfg
}

// SetConfiguration validates and installs a new parameter set. On error
// the previous configuration stays active. Reconfiguring drops any
// retained previous frame.
func (d *Decoder) SetConfiguration(cfg Configuration) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	d.cfg = cfg
	d.irescale = (cfg.WhiteIRE - cfg.BlackIRE) / 100
	d.frameHeight = cfg.FieldHeight*2 - 1
	d.prev = nil
	return nil
}

// SetMotionEstimator injects the collaborator that drives the 2D/3D
// blend in temporal mode. With no estimator (or an empty map) the
// blend falls back to the 2D candidate alone.
func (d *Decoder) SetMotionEstimator(m MotionEstimator) {
	d.motion = m
}

// Process decodes one frame from two equal-length field sample buffers.
// burstLevel is the measured colour burst amplitude in IRE and the two
// phase IDs give each field's position (1-4) in the subcarrier cycle.
// The transform is total over well-formed input; mismatched field
// lengths are a caller error.
func (d *Decoder) Process(firstField, secondField []uint16, burstLevel float64,
	firstPhaseID, secondPhaseID int) *frame.RGB {
	buf := frame.NewBuffer(firstField, secondField, d.cfg.FieldWidth, d.cfg.FieldHeight,
		burstLevel, firstPhaseID, secondPhaseID)

	work := pool.DefaultYIQPool.Get(d.cfg.FieldWidth, d.frameHeight)
	defer pool.DefaultYIQPool.Put(work)

	d.split1D(buf)
	d.split2D(buf)
	d.splitIQ(buf)
	d.postProcess(buf, work)

	if d.cfg.Use3D {
		// The first pass built the YIQ image the motion estimator
		// consumes; re-split with the temporal candidate blended in.
		if d.motion != nil {
			buf.K = d.motion.MotionWeights(buf.YIQ)
		}
		if d.prev != nil {
			d.split3D(buf, d.prev)
		}
		d.splitIQ(buf)
		d.postProcess(buf, work)
	}

	rgb := d.yiqToRGB(work, buf.BurstLevel)
	if d.cfg.ShowMotionMap && len(buf.K) != 0 {
		d.overlayMotionMap(buf, rgb)
	}
	if d.cfg.Use3D {
		d.prev = buf
	}
	return rgb
}

// postProcess corrects and noise-reduces a working copy of the frame's
// YIQ image (the copy feeds the colour converter) and band-limits the
// frame's own chroma (which feeds the motion estimator).
func (d *Decoder) postProcess(buf *frame.Buffer, work *frame.YIQ) {
	work.CopyFrom(buf.YIQ)
	d.adjustY(work, buf.FirstFieldPhaseID, buf.SecondFieldPhaseID)
	if d.cfg.ColorLPF {
		d.filterIQ(buf.YIQ)
	}
	d.doYNR(work)
	d.doCNR(work)
}

// lineToggle carries the alternating phase-inversion state for the even
// (first-field) and odd (second-field) frame lines. Phase IDs 2 and 3
// start the first field inverted; IDs 1 and 4 start the second field
// inverted; the flag for a parity flips on every line of that parity.
type lineToggle struct {
	top, bottom bool
}

func newLineToggle(firstPhaseID, secondPhaseID int) lineToggle {
	return lineToggle{
		top:    firstPhaseID == 2 || firstPhaseID == 3,
		bottom: secondPhaseID == 1 || secondPhaseID == 4,
	}
}

// advance flips the toggle for the line's parity and reports whether
// this line's chroma phase is inverted.
func (t lineToggle) advance(line int) (lineToggle, bool) {
	if line%2 == 0 {
		t.top = !t.top
		return t, t.top
	}
	t.bottom = !t.bottom
	return t, t.bottom
}

// split1D computes the 1D chroma candidate: each sample against the
// average of its +-2 neighbours, the subcarrier quadrature pair kept
// warm through the band-limiting filters. The raw delta (not the
// filtered value) is what the 2D stage consumes.
func (d *Decoder) split1D(buf *frame.Buffer) {
	w := d.cfg.FieldWidth
	c1 := buf.Chroma[frame.Chroma1D]
	toggle := newLineToggle(buf.FirstFieldPhaseID, buf.SecondFieldPhaseID)

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		var invert bool
		toggle, invert = toggle.advance(line)

		row := buf.Raw[line*w : (line+1)*w]
		fI := filter.NewFIR(filter.ColorLPI)
		fQ := filter.NewFIR(filter.ColorLPQ)

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			tc1 := (float64(row[h+2])+float64(row[h-2]))/2 - float64(row[h])
			if !invert {
				tc1 = -tc1
			}

			// phase 0 -> +I, 1 -> -Q, 2 -> -I, 3 -> +Q
			switch h % 4 {
			case 0:
				fI.Feed(tc1)
			case 1:
				fQ.Feed(-tc1)
			case 2:
				fI.Feed(-tc1)
			case 3:
				fQ.Feed(tc1)
			}

			if !invert {
				tc1 = -tc1
			}
			c1[line*w+h] = tc1
		}
	}
}

// split2D computes the 2D candidate by blending the current line's 1D
// candidate against the lines two above and two below, weighted by how
// closely each neighbour agrees. Runs only where both neighbours exist.
func (d *Decoder) split2D(buf *frame.Buffer) {
	w := d.cfg.FieldWidth
	c1 := buf.Chroma[frame.Chroma1D]
	c2 := buf.Chroma[frame.Chroma2D]
	rangeLimit := chroma2DRangeIRE * d.irescale

	for line := d.cfg.FirstVisibleFrameLine + 2; line < d.frameHeight-2; line++ {
		prev := c1[(line-2)*w : (line-1)*w]
		cur := c1[line*w : (line+1)*w]
		next := c1[(line+2)*w : (line+3)*w]

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			kp := math.Abs(math.Abs(cur[h]) - math.Abs(prev[h]))
			kp += math.Abs(math.Abs(cur[h-1]) - math.Abs(prev[h-1]))
			kp -= (math.Abs(cur[h]) + math.Abs(cur[h-1])) * chroma2DDiscount
			kn := math.Abs(math.Abs(cur[h]) - math.Abs(next[h]))
			kn += math.Abs(math.Abs(cur[h-1]) - math.Abs(next[h-1]))
			kn -= (math.Abs(cur[h]) + math.Abs(cur[h-1])) * chroma2DDiscount

			kp /= 2
			kn /= 2

			kp = clamp(1-kp/rangeLimit, 0, 1)
			kn = clamp(1-kn/rangeLimit, 0, 1)

			sc := 1.0
			if kn > 0 || kp > 0 {
				if kn > chroma2DRatioCutoff*kp {
					kp = 0
				} else if kp > chroma2DRatioCutoff*kn {
					kn = 0
				}
				sc = 2.0 / (kn + kp)
				if sc < 1.0 {
					sc = 1.0
				}
			} else if math.Abs(math.Abs(prev[h])-math.Abs(next[h]))-math.Abs((next[h]+prev[h])*chroma2DAgreeBand) <= 0 {
				// neither neighbour matched on its own, but the two
				// neighbours agree with each other
				kp, kn = 1, 1
			}

			tc1 := (cur[h]-prev[h])*kp*sc + (cur[h]-next[h])*kn*sc
			c2[line*w+h] = tc1 / 8
		}
	}
}

// split3D computes the temporal candidate as half the raw difference
// against the retained previous frame. Only meaningful for stationary
// pixels, so it is never consumed directly; the motion blend in splitIQ
// gates it.
func (d *Decoder) split3D(buf, prev *frame.Buffer) {
	w := d.cfg.FieldWidth
	c3 := buf.Chroma[frame.Chroma3D]

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			idx := line*w + h
			c3[idx] = (float64(prev.Raw[idx]) - float64(buf.Raw[idx])) / 2
		}
	}
}

// splitIQ routes the blended chroma candidate into the I and Q planes
// by subcarrier phase and copies the raw samples through as luma. When
// temporal mode is active and a motion weight map is present, the 2D
// and 3D candidates are mixed per pixel; otherwise the 2D candidate is
// used alone.
func (d *Decoder) splitIQ(buf *frame.Buffer) {
	w := d.cfg.FieldWidth
	plane := w * d.frameHeight
	c2 := buf.Chroma[frame.Chroma2D]
	c3 := buf.Chroma[frame.Chroma3D]
	yiq := buf.YIQ
	yiq.Clear()

	toggle := newLineToggle(buf.FirstFieldPhaseID, buf.SecondFieldPhaseID)

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		var invert bool
		toggle, invert = toggle.advance(line)

		row := buf.Raw[line*w : (line+1)*w]
		si, sq := 0.0, 0.0

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			idx := line*w + h

			cavg := c2[idx]
			if d.cfg.Use3D && len(buf.K) != 0 {
				// k is 0 for stationary pixels, 1 for moving ones
				k := buf.K[idx]
				cavg = c2[idx]*k + c3[idx]*(1-k)
			}

			if !invert {
				cavg = -cavg
			}

			// phase 0 -> +Q, 1 -> -I, 2 -> -Q, 3 -> +I
			switch h % 4 {
			case 0:
				sq = cavg
			case 1:
				si = -cavg
			case 2:
				sq = -cavg
			case 3:
				si = cavg
			}

			yiq.Data[idx] = float64(row[h])
			yiq.Data[plane+idx] = si
			yiq.Data[2*plane+idx] = sq
		}
	}
}

// adjustY removes the chroma crosstalk left in the luma channel by
// reconstructing the local chroma contribution from the already-split
// I/Q values two samples ahead. The whole corrected sample lands two
// positions left; the colour converter shifts it back.
func (d *Decoder) adjustY(yiq *frame.YIQ, firstPhaseID, secondPhaseID int) {
	w := d.cfg.FieldWidth
	plane := w * d.frameHeight
	toggle := newLineToggle(firstPhaseID, secondPhaseID)

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		var invert bool
		toggle, invert = toggle.advance(line)

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			src := line*w + h + 2
			yv := yiq.Data[src]
			iv := yiq.Data[plane+src]
			qv := yiq.Data[2*plane+src]

			var comp float64
			switch h % 4 {
			case 0:
				comp = qv
			case 1:
				comp = -iv
			case 2:
				comp = -qv
			case 3:
				comp = iv
			}
			if invert {
				comp = -comp
			}

			dst := line*w + h
			yiq.Data[dst] = yv + comp
			yiq.Data[plane+dst] = iv
			yiq.Data[2*plane+dst] = qv
		}
	}
}

// filterIQ band-limits the I and Q channels across each line, a fresh
// filter pair per line, writing two samples behind the read position to
// absorb the group delay.
func (d *Decoder) filterIQ(yiq *frame.YIQ) {
	w := d.cfg.FieldWidth
	plane := w * d.frameHeight

	qKernel := filter.ColorLPQ
	if d.cfg.ColorLPFHQ {
		qKernel = filter.ColorLPI
	}

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		fI := filter.NewFIR(filter.ColorLPI)
		fQ := filter.NewFIR(qKernel)

		filti, filtq := 0.0, 0.0
		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			idx := line*w + h
			switch h % 4 {
			case 0, 2:
				filti = fI.Feed(yiq.Data[plane+idx])
			case 1, 3:
				filtq = fQ.Feed(yiq.Data[2*plane+idx])
			}
			yiq.Data[plane+idx-outputAlignOffset] = filti
			yiq.Data[2*plane+idx-outputAlignOffset] = filtq
		}
	}
}

// doYNR soft-limits high-frequency luma noise: high-pass the line, core
// the residual at the configured threshold, and subtract it (read
// NRDelay samples ahead to absorb the filter delay).
func (d *Decoder) doYNR(yiq *frame.YIQ) {
	nr := d.cfg.LumaNRLevel * d.irescale
	w := d.cfg.FieldWidth

	hpline := pool.DefaultSlicePool.GetFloat64(w + 32)
	defer pool.DefaultSlicePool.PutFloat64(hpline)

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		f := filter.NewFIR(filter.NRHighPass)
		f.Prime(yiq.Data[line*w+d.cfg.ActiveVideoStart])

		for h := d.cfg.ActiveVideoStart; h <= d.cfg.ActiveVideoEnd; h++ {
			hpline[h] = f.Feed(yiq.Data[line*w+h])
		}

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			a := hpline[h+filter.NRDelay]
			if math.Abs(a) > nr {
				if a > 0 {
					a = nr
				} else {
					a = -nr
				}
			}
			yiq.Data[line*w+h] -= a
		}
	}
}

// doCNR is the chroma counterpart of doYNR, run independently on the I
// and Q channels. The default threshold is zero, which makes it a no-op
// until reconfigured.
func (d *Decoder) doCNR(yiq *frame.YIQ) {
	nr := d.cfg.ChromaNRLevel * d.irescale
	w := d.cfg.FieldWidth
	plane := w * d.frameHeight

	hpI := pool.DefaultSlicePool.GetFloat64(w + 32)
	defer pool.DefaultSlicePool.PutFloat64(hpI)
	hpQ := pool.DefaultSlicePool.GetFloat64(w + 32)
	defer pool.DefaultSlicePool.PutFloat64(hpQ)

	for line := d.cfg.FirstVisibleFrameLine; line < d.frameHeight; line++ {
		fI := filter.NewFIR(filter.NRHighPass)
		fQ := filter.NewFIR(filter.NRHighPass)
		fI.Prime(yiq.Data[plane+line*w+d.cfg.ActiveVideoStart])
		fQ.Prime(yiq.Data[2*plane+line*w+d.cfg.ActiveVideoStart])

		for h := d.cfg.ActiveVideoStart; h <= d.cfg.ActiveVideoEnd; h++ {
			hpI[h] = fI.Feed(yiq.Data[plane+line*w+h])
			hpQ[h] = fQ.Feed(yiq.Data[2*plane+line*w+h])
		}

		for h := d.cfg.ActiveVideoStart; h < d.cfg.ActiveVideoEnd; h++ {
			ai := hpI[h+filter.NRDelay]
			if math.Abs(ai) > nr {
				if ai > 0 {
					ai = nr
				} else {
					ai = -nr
				}
			}
			aq := hpQ[h+filter.NRDelay]
			if math.Abs(aq) > nr {
				if aq > 0 {
					aq = nr
				} else {
					aq = -nr
				}
			}
			yiq.Data[plane+line*w+h] -= ai
			yiq.Data[2*plane+line*w+h] -= aq
		}
	}
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
