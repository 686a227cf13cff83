// Package analysis measures rendered audio: level, decay and pitch.
package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	envFrame = 256
	envHop   = 128

	pitchWindow = 4096
	minPitchHz  = 30.0
	maxPitchHz  = 4000.0

	centroidSize = 4096
)

// Report summarizes a mono render.
type Report struct {
	SampleRate int
	Frames     int

	PeakDBFS float64
	RMSDBFS  float64
	// DecayDBPerS is the slope of the RMS envelope after its peak, NaN when
	// the signal is too short or does not decay.
	DecayDBPerS float64
	// FundamentalHz is 0 when no periodicity was found.
	FundamentalHz      float64
	SpectralCentroidHz float64
}

// Measure analyzes samples rendered at sampleRate.
func Measure(samples []float32, sampleRate int) Report {
	r := Report{SampleRate: sampleRate, Frames: len(samples), DecayDBPerS: math.NaN()}
	if sampleRate <= 0 || len(samples) == 0 {
		r.PeakDBFS = dbfs(0)
		r.RMSDBFS = dbfs(0)
		return r
	}

	x := make([]float64, len(samples))
	peak := 0.0
	for i, s := range samples {
		x[i] = float64(s)
		if a := math.Abs(x[i]); a > peak {
			peak = a
		}
	}
	r.PeakDBFS = dbfs(peak)
	r.RMSDBFS = dbfs(rms(x))

	env := frameRMS(x, envFrame, envHop)
	r.DecayDBPerS = decaySlopeDBPerS(env, float64(envHop)/float64(sampleRate))

	start := loudestFrame(env) * envHop
	if len(x)-start < pitchWindow {
		start = max(0, len(x)-pitchWindow)
	}
	r.FundamentalHz = fundamental(x[start:], sampleRate)
	r.SpectralCentroidHz = spectralCentroid(x[start:], sampleRate)
	return r
}

func loudestFrame(env []float64) int {
	best := 0
	for i, v := range env {
		if v > env[best] {
			best = i
		}
	}
	return best
}

// fundamental estimates the pitch from the first autocorrelation peak past
// the first zero crossing.
func fundamental(x []float64, sampleRate int) float64 {
	n := pitchWindow
	if len(x) < n {
		n = len(x)
	}
	minLag := int(float64(sampleRate) / maxPitchHz)
	maxLag := int(float64(sampleRate) / minPitchHz)
	if maxLag > n-2 {
		maxLag = n - 2
	}
	if minLag < 1 {
		minLag = 1
	}
	if maxLag <= minLag {
		return 0
	}

	a := make([]float32, n)
	b := make([]float32, n)
	for i := 0; i < n; i++ {
		a[i] = float32(x[i])
		b[n-1-i] = float32(x[i])
	}
	full := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(full, a, b); err != nil {
		return 0
	}
	ac := full[n-1:]
	if ac[0] <= 0 {
		return 0
	}

	lag := minLag
	for lag < maxLag && ac[lag] > 0 {
		lag++
	}
	best := -1
	for ; lag <= maxLag; lag++ {
		if ac[lag] > 0 && (best < 0 || ac[lag] > ac[best]) {
			best = lag
		}
	}
	if best < 0 || float64(ac[best]) < 0.3*float64(ac[0]) {
		return 0
	}

	period := float64(best)
	if best > 0 && best+1 < len(ac) {
		y0, y1, y2 := float64(ac[best-1]), float64(ac[best]), float64(ac[best+1])
		if den := y0 - 2*y1 + y2; den != 0 {
			period += 0.5 * (y0 - y2) / den
		}
	}
	return float64(sampleRate) / period
}

func spectralCentroid(x []float64, sampleRate int) float64 {
	if len(x) < centroidSize {
		return 0
	}
	plan, err := algofft.NewPlanReal64(centroidSize)
	if err != nil {
		return 0
	}
	buf := make([]float64, centroidSize)
	for i := range buf {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(centroidSize-1))
		buf[i] = x[i] * w
	}
	bins := make([]complex128, centroidSize/2+1)
	plan.Forward(bins, buf)

	binHz := float64(sampleRate) / centroidSize
	var num, den float64
	for k := 1; k < len(bins); k++ {
		m := math.Hypot(real(bins[k]), imag(bins[k]))
		num += m * float64(k) * binHz
		den += m
	}
	if den <= 1e-12 {
		return 0
	}
	return num / den
}
