package biquad

import "math"

// Filter flavors are parameterizations of the one Filter type: each design
// function maps (cutoff, sampleRate, q[, gain]) to coefficients through the
// standard bilinear-transform equations. Gains are in dB, q is the quality
// factor, cutoff and sampleRate are in Hz.

// Lowpass designs lowpass coefficients.
func Lowpass(cutoff, sampleRate, q float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: (1 - cw) / 2,
		B1: 1 - cw,
		B2: (1 - cw) / 2,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// Highpass designs highpass coefficients.
func Highpass(cutoff, sampleRate, q float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: (1 + cw) / 2,
		B1: -(1 + cw),
		B2: (1 + cw) / 2,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// BandpassSkirt designs bandpass coefficients with constant skirt gain,
// the peak gain equals q.
func BandpassSkirt(cutoff, sampleRate, q float64) Coefficients {
	_, cw, sw, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: sw / 2,
		B1: 0,
		B2: -sw / 2,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// BandpassPeak designs bandpass coefficients with constant 0 dB peak gain.
func BandpassPeak(cutoff, sampleRate, q float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: alpha,
		B1: 0,
		B2: -alpha,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// Notch designs notch coefficients.
func Notch(cutoff, sampleRate, q float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: 1,
		B1: -2 * cw,
		B2: 1,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// Allpass designs allpass coefficients.
func Allpass(cutoff, sampleRate, q float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	return Coefficients{
		B0: 1 - alpha,
		B1: -2 * cw,
		B2: 1 + alpha,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// Peak designs peaking-EQ coefficients with gain in dB.
func Peak(cutoff, sampleRate, q, gain float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	a := math.Pow(10, gain/40)
	return Coefficients{
		B0: 1 + alpha*a,
		B1: -2 * cw,
		B2: 1 - alpha*a,
		A0: 1 + alpha/a,
		A1: -2 * cw,
		A2: 1 - alpha/a,
	}
}

// LowShelf designs low-shelf coefficients with gain in dB.
func LowShelf(cutoff, sampleRate, q, gain float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	a := math.Pow(10, gain/40)
	sa := 2 * math.Sqrt(a) * alpha
	return Coefficients{
		B0: a * ((a + 1) - (a-1)*cw + sa),
		B1: 2 * a * ((a - 1) - (a+1)*cw),
		B2: a * ((a + 1) - (a-1)*cw - sa),
		A0: (a + 1) + (a-1)*cw + sa,
		A1: -2 * ((a - 1) + (a+1)*cw),
		A2: (a + 1) + (a-1)*cw - sa,
	}
}

// HighShelf designs high-shelf coefficients with gain in dB.
func HighShelf(cutoff, sampleRate, q, gain float64) Coefficients {
	_, cw, _, alpha := intermediates(cutoff, sampleRate, q)
	a := math.Pow(10, gain/40)
	sa := 2 * math.Sqrt(a) * alpha
	return Coefficients{
		B0: a * ((a + 1) + (a-1)*cw + sa),
		B1: -2 * a * ((a - 1) + (a+1)*cw),
		B2: a * ((a + 1) + (a-1)*cw - sa),
		A0: (a + 1) - (a-1)*cw + sa,
		A1: 2 * ((a - 1) - (a+1)*cw),
		A2: (a + 1) - (a-1)*cw - sa,
	}
}

// intermediates returns the normalized frequency and the sin/cos/alpha
// values shared by all designs.
func intermediates(cutoff, sampleRate, q float64) (w0, cw, sw, alpha float64) {
	w0 = 2 * math.Pi * cutoff / sampleRate
	cw = math.Cos(w0)
	sw = math.Sin(w0)
	alpha = sw / (2 * q)
	return
}
