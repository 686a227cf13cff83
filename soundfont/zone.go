package soundfont

import "math"

// LFO holds a low-frequency oscillator's start delay (seconds) and rate (Hz).
type LFO struct {
	Delay     float64
	Frequency float64
}

// KeyScaling holds per-key multipliers applied to an envelope's hold and
// decay stages. Key 60 is unscaled; each key above multiplies once more.
type KeyScaling struct {
	Hold  float64
	Decay float64
}

// Factors returns the hold and decay multipliers for key.
func (k KeyScaling) Factors(key int) (hold, decay float64) {
	n := float64(key - 60)
	return math.Pow(k.Hold, n), math.Pow(k.Decay, n)
}

// OffsetPair is a fine/coarse sample address offset.
type OffsetPair struct {
	Fine   int
	Coarse int
}

// coarseOffsetUnit is the number of frames one coarse step covers.
const coarseOffsetUnit = 32768

// Frames returns the combined offset in sample frames.
func (o OffsetPair) Frames() int {
	return o.Coarse*coarseOffsetUnit + o.Fine
}

// AddressOffsets shift a zone's playback window within its sample.
type AddressOffsets struct {
	Start     OffsetPair
	End       OffsetPair
	LoopStart OffsetPair
	LoopEnd   OffsetPair
}

// Zone holds the synthesis parameters shared by preset and instrument zones.
type Zone struct {
	KeyRange      Range
	VelocityRange Range
	// FilterCutoff is nil when the zone is unfiltered.
	FilterCutoff *float64
	// FilterQ is the resonance in centibels.
	FilterQ            float64
	VolumeEnvelope     Envelope
	ModulationEnvelope Envelope
	VibratoLFO         LFO
	ModulationLFO      LFO
	KeyToVolumeEnv     KeyScaling
	KeyToModEnv        KeyScaling
	CoarseTune         int
	FineTune           int
	// ScaleTuning is cents per key.
	ScaleTuning int
	Pan         float64
	ChorusSend  float64
	ReverbSend  float64
	// Attenuation is in dB.
	Attenuation float64
}

func (p *zoneParams) zone() Zone {
	var cutoff *float64
	if p.filterCutoff != nil {
		fc := *p.filterCutoff
		cutoff = &fc
	}
	return Zone{
		KeyRange:           p.keyRange,
		VelocityRange:      p.velocityRange,
		FilterCutoff:       cutoff,
		FilterQ:            p.filterQ,
		VolumeEnvelope:     p.volEnv.envelope(),
		ModulationEnvelope: p.modEnv.envelope(),
		VibratoLFO:         p.vibLFO,
		ModulationLFO:      p.modLFO,
		KeyToVolumeEnv:     p.keyToVolEnv,
		KeyToModEnv:        p.keyToModEnv,
		CoarseTune:         p.coarseTune,
		FineTune:           p.fineTune,
		ScaleTuning:        p.scaleTuning,
		Pan:                p.pan,
		ChorusSend:         p.chorusSend,
		ReverbSend:         p.reverbSend,
		Attenuation:        p.attenuation,
	}
}

// Matches reports whether key and velocity fall inside the zone's windows.
func (z *Zone) Matches(key, velocity int) bool {
	return z.KeyRange.Includes(key) && z.VelocityRange.Includes(velocity)
}

// ZoneID identifies an instrument zone within its bank independently of
// object identity. Per-zone caches key on it.
type ZoneID struct {
	Instrument int
	Zone       int
}

// InstrumentZone binds a sample to a key/velocity window.
type InstrumentZone struct {
	Zone
	ID     ZoneID
	Sample *Sample
	// SampleIndex is the shdr index Sample was resolved from.
	SampleIndex     int
	Offsets         AddressOffsets
	SampleMode      SampleMode
	ExclusiveClass  int
	RootKeyOverride int
}

// RootKey is the key at which the sample plays at its recorded pitch.
func (z *InstrumentZone) RootKey() int {
	if z.RootKeyOverride >= 0 {
		return z.RootKeyOverride
	}
	if z.Sample != nil {
		return z.Sample.RootKey
	}
	return 60
}

// Window is the playable region of a zone's sample, in frames relative to
// the start of Sample.Data.
type Window struct {
	Start     int
	End       int
	LoopStart int
	LoopEnd   int
}

// Window applies the zone's address offsets to its sample and clamps the
// result into the sample data.
func (z *InstrumentZone) Window() Window {
	if z.Sample == nil {
		return Window{}
	}
	n := len(z.Sample.Data)
	start := clampInt(z.Offsets.Start.Frames(), 0, n)
	end := clampInt(n+z.Offsets.End.Frames(), start, n)
	loopStart := clampInt(z.Sample.LoopStart+z.Offsets.LoopStart.Frames(), start, end)
	loopEnd := clampInt(z.Sample.LoopEnd+z.Offsets.LoopEnd.Frames(), loopStart, end)
	return Window{Start: start, End: end, LoopStart: loopStart, LoopEnd: loopEnd}
}

// PresetZone binds an instrument to a key/velocity window.
type PresetZone struct {
	Zone
	Instrument *Instrument
	// InstrumentIndex is the inst index Instrument was resolved from.
	InstrumentIndex int
}

// Region is one playable (preset zone, instrument zone) pair.
type Region struct {
	PresetZone     *PresetZone
	InstrumentZone *InstrumentZone
	KeyRange       Range
	VelocityRange  Range
}

// Includes reports whether key and velocity fall inside the intersected
// windows.
func (r Region) Includes(key, velocity int) bool {
	return r.KeyRange.Includes(key) && r.VelocityRange.Includes(velocity)
}
