package soundfont

// Envelope is a six-stage level-versus-time curve. Durations are in seconds,
// Sustain is a linear level in [0,1] and Scale multiplies the whole curve.
type Envelope struct {
	Delay   float64
	Attack  float64
	Hold    float64
	Decay   float64
	Sustain float64
	Release float64
	Scale   float64
}

// minTimecents is the shortest duration a generator can encode (about 1ms)
// and the default for every envelope stage.
const minTimecents = -12000

// DefaultEnvelope is the curve of a zone with no envelope generators.
var DefaultEnvelope = Envelope{
	Delay:   timecentsToSeconds(minTimecents),
	Attack:  timecentsToSeconds(minTimecents),
	Hold:    timecentsToSeconds(minTimecents),
	Decay:   timecentsToSeconds(minTimecents),
	Sustain: 1,
	Release: timecentsToSeconds(minTimecents),
	Scale:   1,
}

// WithScale returns a copy of the envelope scaled by s.
func (e Envelope) WithScale(s float64) Envelope {
	e.Scale = s
	return e
}

// ValueAt evaluates the envelope t seconds after note-on. Release is not
// modelled here; the synthesizer ramps from the value at note-off.
func (e Envelope) ValueAt(t float64) float64 {
	if t < e.Delay {
		return 0
	}
	t -= e.Delay
	if t < e.Attack {
		return e.Scale * t / e.Attack
	}
	t -= e.Attack
	if t < e.Hold {
		return e.Scale
	}
	t -= e.Hold
	if t < e.Decay {
		return e.Scale * (1 - (1-e.Sustain)*t/e.Decay)
	}
	return e.Scale * e.Sustain
}

// Length is the time from note-on until the sustain level is reached.
func (e Envelope) Length() float64 {
	return e.Delay + e.Attack + e.Hold + e.Decay
}
