package synth

import (
	"github.com/cwbudde/algo-sf2/dsp"
	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/soundfont"
)

// zoneBuffer is a zone's sample slice with loop points relative to it.
type zoneBuffer struct {
	buf       *graph.Buffer
	loopStart int
	loopEnd   int
}

func newZoneBuffer(z *soundfont.InstrumentZone) *zoneBuffer {
	if z.Sample == nil || len(z.Sample.Data) == 0 {
		return nil
	}
	w := z.Window()
	if w.End <= w.Start {
		return nil
	}
	return &zoneBuffer{
		buf: &graph.Buffer{
			Data:       z.Sample.Data[w.Start:w.End:w.End],
			SampleRate: z.Sample.SampleRate,
		},
		loopStart: w.LoopStart - w.Start,
		loopEnd:   w.LoopEnd - w.Start,
	}
}

// unitBuilder holds everything needed to start a playback unit for one
// zone, resolved once per channel.
type unitBuilder struct {
	zone   *soundfont.InstrumentZone
	buffer *zoneBuffer
	loop   bool
	cutoff *float64
	q      float64
}

func newUnitBuilder(z *soundfont.InstrumentZone, buf *zoneBuffer) *unitBuilder {
	return &unitBuilder{
		zone:   z,
		buffer: buf,
		loop:   z.SampleMode.Looping() && buf.loopEnd > buf.loopStart,
		cutoff: z.FilterCutoff,
		// FilterQ is in centibels of resonance.
		q: dsp.ResonanceToQ(z.FilterQ / 10),
	}
}

// detune is the unit's pitch offset in cents before pitch bend.
func (b *unitBuilder) detune(key int) float64 {
	z := b.zone
	cents := z.CoarseTune*100 + z.FineTune + z.ScaleTuning*(key-z.RootKey())
	if z.Sample != nil {
		cents += z.Sample.PitchCorrection
	}
	return float64(cents)
}

// envelope returns the volume envelope for key and velocity.
func (b *unitBuilder) envelope(key, velocity int) soundfont.Envelope {
	env := b.zone.VolumeEnvelope
	hold, decay := b.zone.KeyToVolumeEnv.Factors(key)
	env.Hold *= hold
	env.Decay *= decay
	return env.WithScale(velocityScale(velocity))
}

func velocityScale(velocity int) float64 {
	v := float64(velocity) / 100
	return v * v
}

// unit is one sounding sample: source -> filter -> gain -> channel.
type unit struct {
	source graph.BufferSource
	filter graph.Filter
	gain   graph.Gain
	env    soundfont.Envelope
	ended  bool
}

// note groups the units started by one note-on.
type note struct {
	key       int
	velocity  int
	onTime    float64
	releasing bool
	units     []*unit
}

func (n *note) live() bool {
	for _, u := range n.units {
		if !u.ended {
			return true
		}
	}
	return false
}

// scheduleEnvelope writes env as automation on p starting at t.
func scheduleEnvelope(p graph.Param, env soundfont.Envelope, t float64) {
	p.SetValueAtTime(0, t)
	at := t + env.Delay
	p.SetValueAtTime(0, at)
	at += env.Attack
	p.LinearRampToValueAtTime(env.Scale, at)
	at += env.Hold
	p.SetValueAtTime(env.Scale, at)
	at += env.Decay
	p.LinearRampToValueAtTime(env.Scale*env.Sustain, at)
}

// release ramps the unit from its current envelope level to silence and
// stops it once the ramp and tail have passed.
func (u *unit) release(elapsed, t, tail float64) {
	p := u.gain.Gain()
	p.CancelScheduledValues(t)
	p.SetValueAtTime(u.env.ValueAt(elapsed), t)
	p.LinearRampToValueAtTime(0, t+u.env.Release)
	u.source.Stop(t + u.env.Release + tail)
}
