package analysis

import "math"

// silenceFloor is the amplitude treated as digital silence, -240 dBFS.
const silenceFloor = 1e-12

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var energy float64
	for _, v := range x {
		energy += v * v
	}
	return math.Sqrt(energy / float64(len(x)))
}

// frameRMS slides a window of size frames by hop and returns the RMS of
// every full window.
func frameRMS(x []float64, size, hop int) []float64 {
	if size <= 0 || hop <= 0 || len(x) < size {
		return nil
	}
	env := make([]float64, 0, 1+(len(x)-size)/hop)
	for at := 0; at+size <= len(x); at += hop {
		env = append(env, rms(x[at:at+size]))
	}
	return env
}

func dbfs(amp float64) float64 {
	return 20 * math.Log10(math.Max(amp, silenceFloor))
}

// decaySlopeDBPerS fits a line to the envelope in dB from just after its
// peak down to 60 dB below it.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peakIdx := loudestFrame(env)
	peak := dbfs(env[peakIdx])
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	end := len(env)
	for i := start; i < len(env); i++ {
		if dbfs(env[i]) < peak-60.0 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := dbfs(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// IsDecaying reports whether the report found a falling envelope.
func (r Report) IsDecaying() bool {
	return !math.IsNaN(r.DecayDBPerS) && r.DecayDBPerS < 0
}
