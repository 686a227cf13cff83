package soundfont

import "math"

// Timecents is a logarithmic duration: 1200 timecents double the time.
// Zero timecents is one second.
type Timecents float64

// TimecentsFromSeconds encodes a positive duration as timecents.
func TimecentsFromSeconds(sec float64) Timecents {
	if sec <= 0 {
		return Timecents(math.Inf(-1))
	}
	return Timecents(1200 * math.Log2(sec))
}

// Seconds decodes the duration.
func (tc Timecents) Seconds() float64 {
	return timecentsToSeconds(float64(tc))
}

func timecentsToSeconds(tc float64) float64 {
	return math.Pow(2, tc/1200)
}

// absoluteCentsToHz converts absolute cents (8.176 Hz reference) to Hz.
func absoluteCentsToHz(cents float64) float64 {
	return 8.176 * math.Pow(2, cents/1200)
}

// centibelsToGain converts attenuation in centibels to a linear level.
func centibelsToGain(cb float64) float64 {
	return math.Pow(10, -cb/100)
}

// CentsToRatio converts a pitch offset in cents to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
