// Package sequencer schedules the events of a Standard MIDI File into a
// synthesizer ahead of rendering.
package sequencer

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/cwbudde/algo-sf2/synth"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Event is a playable channel message at an absolute song time in seconds.
type Event struct {
	Time    float64
	Track   int
	Message midi.Message
}

// Handler receives scheduled messages. *synth.Synth implements it.
type Handler interface {
	HandleMessage(msg midi.Message, opts ...synth.EventOption)
}

var _ Handler = (*synth.Synth)(nil)

// ReadFile decodes the SMF at path.
func ReadFile(path string) ([]Event, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, err := Read(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return events, nil
}

// Read decodes an SMF into playable events of all tracks, sorted by time.
// Meta and system messages are dropped.
func Read(r io.Reader) ([]Event, error) {
	var events []Event
	rd := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}
		msg := midi.Message(ev.Message)
		if !isChannelMessage(msg) {
			return
		}
		events = append(events, Event{
			Time:    float64(ev.AbsMicroSeconds) / 1e6,
			Track:   ev.TrackNo,
			Message: msg,
		})
	})
	if err := rd.Error(); err != nil {
		return nil, errors.Wrap(err, "decode smf")
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events, nil
}

func isChannelMessage(msg midi.Message) bool {
	var ch uint8
	return msg.GetChannel(&ch)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithStart maps song time zero onto host time t.
func WithStart(t float64) Option {
	return func(s *Sequencer) { s.start = t }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer walks a sorted event list and hands each event to a Handler
// with its absolute host time.
type Sequencer struct {
	events []Event
	next   int
	start  float64
	target Handler
	logger *slog.Logger
}

// New returns a sequencer over events, which must be sorted by time.
func New(events []Event, target Handler, opts ...Option) *Sequencer {
	s := &Sequencer{events: events, target: target, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advance dispatches every pending event with host time before until and
// returns how many were sent.
func (s *Sequencer) Advance(until float64) int {
	sent := 0
	for s.next < len(s.events) {
		ev := s.events[s.next]
		t := s.start + ev.Time
		if t >= until {
			break
		}
		s.target.HandleMessage(ev.Message, synth.At(t))
		s.next++
		sent++
	}
	if sent > 0 {
		s.logger.Debug("sequencer: dispatched events", "count", sent, "until", until)
	}
	return sent
}

// Done reports whether every event has been dispatched.
func (s *Sequencer) Done() bool { return s.next >= len(s.events) }

// End is the host time of the last event.
func (s *Sequencer) End() float64 {
	if len(s.events) == 0 {
		return s.start
	}
	return s.start + s.events[len(s.events)-1].Time
}

// Rewind restarts playback with song time zero at host time t.
func (s *Sequencer) Rewind(t float64) {
	s.next = 0
	s.start = t
}
