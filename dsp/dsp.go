package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Passthrough leaves the signal unchanged.
var Passthrough = biquad.Coefficients{B0: 1}

// LowpassCoefficients designs an RBJ low-pass section. Cutoffs at or above
// Nyquist (or non-positive inputs) yield Passthrough.
func LowpassCoefficients(cutoff, q, sampleRate float64) biquad.Coefficients {
	if cutoff <= 0 || sampleRate <= 0 || cutoff >= 0.5*sampleRate {
		return Passthrough
	}
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	inv := 1 / (1 + alpha)

	return biquad.Coefficients{
		B0: ((1 - cw) * 0.5) * inv,
		B1: (1 - cw) * inv,
		B2: ((1 - cw) * 0.5) * inv,
		A1: (-2 * cw) * inv,
		A2: (1 - alpha) * inv,
	}
}

// ResonanceToQ maps a resonance in dB above DC gain to the linear Q of a
// second-order low-pass. Zero dB is a Butterworth response.
func ResonanceToQ(db float64) float64 {
	return math.Sqrt2 / 2 * math.Pow(10, db/20)
}

// LagrangeInterpolator provides fractional-index reads.
type LagrangeInterpolator struct {
	order int
}

// NewLagrangeInterpolator creates a new Lagrange interpolator
// order: 1 = linear, 3 = cubic
func NewLagrangeInterpolator(order int) *LagrangeInterpolator {
	if order != 1 && order != 3 {
		order = 1
	}
	return &LagrangeInterpolator{order: order}
}

// Order reports the interpolation order.
func (l *LagrangeInterpolator) Order() int { return l.order }

// Interpolate evaluates between samples[1] and samples[2] at frac in [0,1).
// Linear interpolation ignores samples[0] and samples[3].
func (l *LagrangeInterpolator) Interpolate(samples [4]float32, frac float32) float32 {
	if l.order == 1 {
		return samples[1] + frac*(samples[2]-samples[1])
	}
	d := frac
	c0 := samples[1]
	c1 := samples[2] - samples[0]/3.0 - samples[1]/2.0 - samples[3]/6.0
	c2 := samples[0]/2.0 - samples[1] + samples[2]/2.0
	c3 := samples[1]/2.0 - samples[2]/2.0 + (samples[3]-samples[0])/6.0
	return c0 + d*(c1+d*(c2+d*c3))
}

// CentsToRatio converts a pitch offset in cents to a playback rate ratio.
func CentsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return float64(pow2Approx(float32(cents / 1200.0)))
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}
