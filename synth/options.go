package synth

import "log/slog"

const (
	// NumChannels is the number of MIDI channels a Synth owns.
	NumChannels = 16
	// PercussionChannel starts on the percussion bank.
	PercussionChannel = 9
	// PercussionBank is the SF2 bank holding drum kits.
	PercussionBank = 128

	defaultMasterGain     = 0.3
	defaultReleaseTail    = 0.05
	defaultPitchBendRange = 2
)

// Option configures a Synth.
type Option func(*Synth)

// WithLogger sets the logger for dropped events and playback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synth) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMasterGain sets the level of the shared output stage.
func WithMasterGain(gain float64) Option {
	return func(s *Synth) {
		s.masterGain = gain
	}
}

// WithReleaseTail sets how long a unit keeps playing after its release ramp
// has reached zero.
func WithReleaseTail(seconds float64) Option {
	return func(s *Synth) {
		if seconds >= 0 {
			s.releaseTail = seconds
		}
	}
}

// WithPitchBendRange sets the bend range in semitones used by HandleMessage.
func WithPitchBendRange(semitones float64) Option {
	return func(s *Synth) {
		if semitones > 0 {
			s.bendRange = semitones
		}
	}
}

// EventOption configures a single scheduled call.
type EventOption func(*event)

type event struct {
	time    float64
	hasTime bool
}

// At schedules the call at host time t instead of the current time.
func At(t float64) EventOption {
	return func(e *event) {
		e.time = t
		e.hasTime = true
	}
}

// EventTime resolves opts to the requested host time. It reports false
// when no time was given and the call runs at the current time.
func EventTime(opts ...EventOption) (float64, bool) {
	var e event
	for _, opt := range opts {
		opt(&e)
	}
	return e.time, e.hasTime
}
