package filter

// Fixed kernels for NTSC decoding at 4x the colour subcarrier rate
// (315/88*4 MHz). All are hamming-window sinc designs; the low-pass
// kernels have unity DC gain, the high-pass kernel zero DC gain.

// ColorLPI band-limits the I chroma channel (1.3 MHz, fed at half rate).
var ColorLPI = []float64{
	-0.0064981214, -0.0065266724, 0.0672049194, 0.2584041138,
	0.3748315210, 0.2584041138, 0.0672049194, -0.0065266724,
	-0.0064981214,
}

// ColorLPQ band-limits the narrower Q chroma channel (0.6 MHz, fed at
// half rate).
var ColorLPQ = []float64{
	0.0084181798, 0.0350312664, 0.1148377195, 0.2128453565,
	0.2577349555, 0.2128453565, 0.1148377195, 0.0350312664,
	0.0084181798,
}

// NRHighPass isolates the high-frequency residual for the noise
// reducers (1.75 MHz high-pass, linear phase, group delay 12 samples).
var NRHighPass = []float64{
	-0.0004403139, -0.0022906077, -0.0044307399, -0.0044549762,
	0.0017131750, 0.0150533221, 0.0284335817, 0.0269150396,
	-0.0042656966, -0.0680891824, -0.1489549601, -0.2172125370,
	0.7560477909, -0.2172125370, -0.1489549601, -0.0680891824,
	-0.0042656966, 0.0269150396, 0.0284335817, 0.0150533221,
	0.0017131750, -0.0044549762, -0.0044307399, -0.0022906077,
	-0.0004403139,
}

// NRDelay is the group delay of NRHighPass: the residual for sample h is
// read that many feeds ahead.
const NRDelay = 12
