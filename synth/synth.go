// Package synth plays SoundFont presets through a graph.Host. Every call is
// scheduled on the host clock; the synth never renders audio itself.
package synth

import (
	"log/slog"
	"sync"

	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/soundfont"
)

// Synth is a 16-channel sample player bound to one bank.
type Synth struct {
	mu     sync.Mutex
	host   graph.Host
	bank   *soundfont.SoundFont
	master graph.Gain
	logger *slog.Logger

	masterGain  float64
	releaseTail float64
	bendRange   float64

	channels [NumChannels]*channel
	buffers  map[soundfont.ZoneID]*zoneBuffer

	warnedLoopUntilKeyOff bool
}

// New wires a master stage and one volume stage plus pitch-bend driver per
// channel into host. Every channel starts on program 0.
func New(host graph.Host, bank *soundfont.SoundFont, opts ...Option) *Synth {
	s := &Synth{
		host:        host,
		bank:        bank,
		logger:      slog.Default(),
		masterGain:  defaultMasterGain,
		releaseTail: defaultReleaseTail,
		bendRange:   defaultPitchBendRange,
		buffers:     map[soundfont.ZoneID]*zoneBuffer{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.master = host.CreateGain()
	s.master.Gain().SetValueAtTime(s.masterGain, 0)
	s.master.Connect(host.Destination())
	for i := range s.channels {
		c := newChannel(host, i, s.master)
		c.preset = s.lookup(c.program, c.bank)
		s.channels[i] = c
	}
	return s
}

// Bank returns the SoundFont the synth plays.
func (s *Synth) Bank() *soundfont.SoundFont { return s.bank }

func (s *Synth) lookup(program, bank int) *soundfont.Preset {
	if s.bank == nil {
		return nil
	}
	return s.bank.Preset(program, bank)
}

func (s *Synth) channel(ch int) *channel {
	if ch < 0 || ch >= NumChannels {
		s.logger.Debug("synth: channel out of range", "channel", ch)
		return nil
	}
	return s.channels[ch]
}

// eventTime resolves the schedule time of a call and reports false for
// times already in the past.
func (s *Synth) eventTime(op string, opts []EventOption) (float64, bool) {
	t, ok := EventTime(opts...)
	now := s.host.CurrentTime()
	if !ok {
		return now, true
	}
	if t < now {
		s.logger.Debug("synth: dropping event scheduled in the past", "op", op, "time", t, "now", now)
		return 0, false
	}
	return t, true
}

// NoteOn starts one unit for every zone of the channel's preset that covers
// key and velocity. A channel without a preset stays silent.
func (s *Synth) NoteOn(ch, key, velocity int, opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.channel(ch)
	if c == nil {
		return
	}
	t, ok := s.eventTime("note on", opts)
	if !ok {
		return
	}
	if c.preset == nil {
		s.logger.Debug("synth: no preset on channel", "channel", ch, "program", c.program, "bank", c.bank)
		return
	}

	n := &note{key: key, velocity: velocity, onTime: t}
	for _, r := range c.preset.Regions(key, velocity) {
		b := s.builder(c, r.InstrumentZone)
		if b == nil {
			continue
		}
		n.units = append(n.units, s.startUnit(c, n, b, t))
	}
	if len(n.units) == 0 {
		return
	}
	c.notes = append(c.notes, n)
}

// builder returns the channel's cached unit builder for z, or nil when the
// zone has nothing to play.
func (s *Synth) builder(c *channel, z *soundfont.InstrumentZone) *unitBuilder {
	if b, ok := c.builders[z.ID]; ok {
		return b
	}
	buf, ok := s.buffers[z.ID]
	if !ok {
		buf = newZoneBuffer(z)
		s.buffers[z.ID] = buf
	}
	var b *unitBuilder
	if buf != nil {
		b = newUnitBuilder(z, buf)
		if z.SampleMode == soundfont.LoopUntilKeyOff && !s.warnedLoopUntilKeyOff {
			s.warnedLoopUntilKeyOff = true
			s.logger.Warn("synth: loop_until_key_off is played as a continuous loop", "sample", z.Sample.Name)
		}
	}
	c.builders[z.ID] = b
	return b
}

func (s *Synth) startUnit(c *channel, n *note, b *unitBuilder, t float64) *unit {
	src := s.host.CreateBufferSource(b.buffer.buf)
	src.SetLoop(b.loop, b.buffer.loopStart, b.buffer.loopEnd)
	src.Detune().SetValueAtTime(b.detune(n.key), t)
	c.bend.ConnectParam(src.Detune())

	filter := s.host.CreateFilter()
	if b.cutoff == nil {
		filter.SetType(graph.Passthrough)
	} else {
		filter.SetType(graph.Lowpass)
		filter.Frequency().SetValueAtTime(*b.cutoff, t)
		filter.Q().SetValueAtTime(b.q, t)
	}

	gain := s.host.CreateGain()
	env := b.envelope(n.key, n.velocity)
	scheduleEnvelope(gain.Gain(), env, t)

	src.Connect(filter)
	filter.Connect(gain)
	gain.Connect(c.volume)

	u := &unit{source: src, filter: filter, gain: gain, env: env}
	src.OnEnded(func() { s.unitEnded(c, n, u) })
	src.Start(t)
	return u
}

// unitEnded disposes a finished unit and drops its note once no unit is
// left. It runs outside the graph lock.
func (s *Synth) unitEnded(c *channel, n *note, u *unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ended {
		return
	}
	u.ended = true
	c.detach(u)
	if !n.live() {
		c.removeNote(n)
	}
}

// NoteOff releases the oldest held note on key started no later than the
// event time. Every unit of that note ramps down over its release time.
func (s *Synth) NoteOff(ch, key int, opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.channel(ch)
	if c == nil {
		return
	}
	t, ok := s.eventTime("note off", opts)
	if !ok {
		return
	}
	if n := c.oldestHeld(key, t); n != nil {
		s.release(n, t)
	}
}

func (s *Synth) release(n *note, t float64) {
	n.releasing = true
	for _, u := range n.units {
		if u.ended {
			continue
		}
		u.release(t-n.onTime, t, s.releaseTail)
	}
}

// ChannelNoteOffAll releases every held note on the channel.
func (s *Synth) ChannelNoteOffAll(ch int, opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(ch)
	if c == nil {
		return
	}
	t, ok := s.eventTime("channel note off all", opts)
	if !ok {
		return
	}
	s.releaseChannel(c, t)
}

// NoteOffAll releases every held note on every channel.
func (s *Synth) NoteOffAll(opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.eventTime("note off all", opts)
	if !ok {
		return
	}
	for _, c := range s.channels {
		s.releaseChannel(c, t)
	}
}

func (s *Synth) releaseChannel(c *channel, t float64) {
	for _, n := range c.notes {
		if !n.releasing && n.onTime <= t {
			s.release(n, t)
		}
	}
}

// SetPreset selects a program on the channel's current bank.
func (s *Synth) SetPreset(ch, program int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(ch)
	if c == nil {
		return
	}
	c.program = program
	c.preset = s.lookup(c.program, c.bank)
	if c.preset == nil {
		s.logger.Debug("synth: preset not in bank", "channel", ch, "program", program, "bank", c.bank)
	}
}

// SetBank selects a bank and re-resolves the channel's program on it.
func (s *Synth) SetBank(ch, bank int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(ch)
	if c == nil {
		return
	}
	c.bank = bank
	c.preset = s.lookup(c.program, c.bank)
}

// SetPitchBend sets the bend in cents for every current and future unit on
// the channel.
func (s *Synth) SetPitchBend(ch int, cents float64, opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(ch)
	if c == nil {
		return
	}
	t, ok := s.eventTime("pitch bend", opts)
	if !ok {
		return
	}
	c.bend.Offset().SetValueAtTime(cents, t)
}

// SetVolume sets the channel volume stage to a linear gain.
func (s *Synth) SetVolume(ch int, gain float64, opts ...EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(ch)
	if c == nil {
		return
	}
	t, ok := s.eventTime("volume", opts)
	if !ok {
		return
	}
	c.volume.Gain().SetValueAtTime(gain, t)
}

// Reset hard-stops every note on the channel without a release ramp.
func (s *Synth) Reset(ch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.channel(ch); c != nil {
		s.resetChannel(c)
	}
}

// ResetAll hard-stops every note on every channel.
func (s *Synth) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.channels {
		s.resetChannel(c)
	}
}

func (s *Synth) resetChannel(c *channel) {
	now := s.host.CurrentTime()
	for _, n := range c.notes {
		for _, u := range n.units {
			if u.ended {
				continue
			}
			u.gain.Gain().CancelScheduledValues(now)
			u.gain.Gain().SetValueAtTime(0, now)
			u.source.Stop(now)
		}
	}
	c.notes = nil
}

// Active reports the number of notes sounding or releasing on a channel.
func (s *Synth) Active(ch int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.channel(ch); c != nil {
		return len(c.notes)
	}
	return 0
}

// PresetNames lists one preset per program number.
func (s *Synth) PresetNames() []soundfont.PresetName {
	if s.bank == nil {
		return nil
	}
	return s.bank.PresetNames()
}

// PresetsByNumber lists every bank's preset for a program, sorted by bank.
func (s *Synth) PresetsByNumber(number int) []*soundfont.Preset {
	if s.bank == nil {
		return nil
	}
	return s.bank.PresetsByNumber(number)
}

// Preset returns the preset at (number, bank) or nil.
func (s *Synth) Preset(number, bank int) *soundfont.Preset {
	return s.lookup(number, bank)
}
