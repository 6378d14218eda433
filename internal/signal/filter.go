package signal

import "math"

// smoothCutoffHz is the low-pass cutoff applied to position and velocity
// during preparation. Gait and posture cycles sit well below 2 Hz, so this
// removes sensor jitter without shifting extrema.
const smoothCutoffHz = 2.0

// Lowpass applies a first-order Butterworth low-pass filter forward and
// backward over the data, giving zero phase distortion. The input is
// returned unchanged (as a copy) when the cutoff is at or above the
// Nyquist frequency or the series is too short to pad.
func Lowpass(data []float64, cutoff, fs float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)

	nyquist := fs / 2
	if cutoff <= 0 || cutoff >= nyquist {
		return out
	}

	// padLen mirrors the filter warm-up region so the ends of the series
	// are not dragged toward zero.
	const padLen = 6
	if len(data) <= padLen {
		return out
	}

	b0, b1, a1 := butterCoefficients(cutoff, fs)

	padded := padOddReflect(out, padLen)
	forward := applyIIR(padded, b0, b1, a1)
	reverse(forward)
	backward := applyIIR(forward, b0, b1, a1)
	reverse(backward)

	copy(out, backward[padLen:len(backward)-padLen])
	return out
}

// butterCoefficients returns the bilinear-transform coefficients of a
// first-order Butterworth low-pass section:
//
//	y[n] = b0*x[n] + b1*x[n-1] - a1*y[n-1]
func butterCoefficients(cutoff, fs float64) (b0, b1, a1 float64) {
	wc := math.Tan(math.Pi * cutoff / fs)
	b0 = wc / (1 + wc)
	b1 = b0
	a1 = (wc - 1) / (wc + 1)
	return b0, b1, a1
}

func applyIIR(data []float64, b0, b1, a1 float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = b0*data[i] + b1*data[i-1] - a1*out[i-1]
	}
	return out
}

// padOddReflect extends the series by n samples at each end using odd
// reflection about the end points, the standard edge treatment for
// forward-backward filtering.
func padOddReflect(data []float64, n int) []float64 {
	out := make([]float64, 0, len(data)+2*n)
	for i := n; i >= 1; i-- {
		out = append(out, 2*data[0]-data[i])
	}
	out = append(out, data...)
	last := len(data) - 1
	for i := 1; i <= n; i++ {
		out = append(out, 2*data[last]-data[last-i])
	}
	return out
}

func reverse(data []float64) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}
