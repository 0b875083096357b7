package frame

// Chroma candidate plane indices within Buffer.Chroma.
const (
	Chroma1D = 0
	Chroma2D = 1
	Chroma3D = 2
)

// YIQ is a full-frame luma/chroma buffer stored as three flat planes:
// Y first, then I, then Q, each Height*Width samples.
type YIQ struct {
	Width  int
	Height int
	Data   []float64
}

func NewYIQ(width, height int) *YIQ {
	return &YIQ{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height*3),
	}
}

// Resize adjusts the buffer dimensions, reusing the backing storage
// when it is large enough.
func (p *YIQ) Resize(width, height int) {
	p.Width = width
	p.Height = height
	n := width * height * 3
	if cap(p.Data) < n {
		p.Data = make([]float64, n)
	} else {
		p.Data = p.Data[:n]
	}
}

func (p *YIQ) Clear() {
	for i := range p.Data {
		p.Data[i] = 0
	}
}

// CopyFrom overwrites this buffer with the contents of src. The two
// buffers must have the same dimensions.
func (p *YIQ) CopyFrom(src *YIQ) {
	p.Width = src.Width
	p.Height = src.Height
	if cap(p.Data) < len(src.Data) {
		p.Data = make([]float64, len(src.Data))
	} else {
		p.Data = p.Data[:len(src.Data)]
	}
	copy(p.Data, src.Data)
}

// Buffer is one interlaced composite frame under decode: the raw sample
// buffer, the three chroma candidate planes, the motion weight map and
// the split YIQ image, plus the per-frame calibration metadata.
type Buffer struct {
	FieldWidth  int
	FrameHeight int

	// Raw holds FrameHeight lines of FieldWidth composite samples.
	Raw []uint16

	// Chroma holds the 1D, 2D and 3D candidate planes, each addressed
	// by line*FieldWidth + sample.
	Chroma [3][]float64

	// K is the motion weight map (0 stationary .. 1 moving), flattened
	// like the chroma planes. Nil until an estimator supplies one.
	K []float64

	YIQ *YIQ

	BurstLevel         float64
	FirstFieldPhaseID  int
	SecondFieldPhaseID int
}

// Interlace merges two equal-length field buffers into one frame buffer,
// first field on the even lines, second field on the odd lines. The
// frame is 2*fieldHeight-1 lines tall, so the second field's last line
// falls off the end. Mismatched field lengths are a caller error.
func Interlace(firstField, secondField []uint16, fieldWidth, fieldHeight int) []uint16 {
	frameHeight := fieldHeight*2 - 1
	raw := make([]uint16, frameHeight*fieldWidth)
	for fieldLine := 0; fieldLine < fieldHeight; fieldLine++ {
		src := firstField[fieldLine*fieldWidth : (fieldLine+1)*fieldWidth]
		copy(raw[(2*fieldLine)*fieldWidth:], src)
		if 2*fieldLine+1 < frameHeight {
			src = secondField[fieldLine*fieldWidth : (fieldLine+1)*fieldWidth]
			copy(raw[(2*fieldLine+1)*fieldWidth:], src)
		}
	}
	return raw
}

// NewBuffer assembles a frame from a field pair, carrying the burst
// level and field phase identifiers through unchanged.
func NewBuffer(firstField, secondField []uint16, fieldWidth, fieldHeight int,
	burstLevel float64, firstPhaseID, secondPhaseID int) *Buffer {
	frameHeight := fieldHeight*2 - 1
	b := &Buffer{
		FieldWidth:         fieldWidth,
		FrameHeight:        frameHeight,
		Raw:                Interlace(firstField, secondField, fieldWidth, fieldHeight),
		YIQ:                NewYIQ(fieldWidth, frameHeight),
		BurstLevel:         burstLevel,
		FirstFieldPhaseID:  firstPhaseID,
		SecondFieldPhaseID: secondPhaseID,
	}
	for i := range b.Chroma {
		b.Chroma[i] = make([]float64, fieldWidth*frameHeight)
	}
	return b
}

// RGB is a 16-bit-per-channel output frame, R, G, B interleaved, one row
// per frame line.
type RGB struct {
	Width  int
	Height int
	Data   []uint16
}

func NewRGB(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Data:   make([]uint16, width*height*3),
	}
}

func (f *RGB) At(x, y int) (r, g, b uint16) {
	idx := (y*f.Width + x) * 3
	return f.Data[idx], f.Data[idx+1], f.Data[idx+2]
}

func (f *RGB) Set(x, y int, r, g, b uint16) {
	idx := (y*f.Width + x) * 3
	f.Data[idx] = r
	f.Data[idx+1] = g
	f.Data[idx+2] = b
}
