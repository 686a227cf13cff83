package synth

import (
	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/soundfont"
)

// channel is the per-MIDI-channel state: program selection, the shared
// pitch-bend driver and the notes currently playing.
type channel struct {
	number  int
	program int
	bank    int
	preset  *soundfont.Preset

	volume graph.Gain
	bend   graph.ConstantSource

	builders map[soundfont.ZoneID]*unitBuilder
	notes    []*note
}

func newChannel(host graph.Host, number int, out graph.Node) *channel {
	c := &channel{
		number:   number,
		builders: map[soundfont.ZoneID]*unitBuilder{},
	}
	if number == PercussionChannel {
		c.bank = PercussionBank
	}
	c.volume = host.CreateGain()
	c.volume.Connect(out)
	c.bend = host.CreateConstantSource()
	c.bend.Offset().SetValueAtTime(0, 0)
	c.bend.Start(0)
	return c
}

// oldestHeld returns the first note on key that is not releasing and was
// started no later than t.
func (c *channel) oldestHeld(key int, t float64) *note {
	for _, n := range c.notes {
		if n.key == key && !n.releasing && n.onTime <= t {
			return n
		}
	}
	return nil
}

func (c *channel) removeNote(n *note) {
	for i, m := range c.notes {
		if m == n {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return
		}
	}
}

// detach disconnects every node of u.
func (c *channel) detach(u *unit) {
	c.bend.DisconnectParam(u.source.Detune())
	u.source.Disconnect()
	u.filter.Disconnect()
	u.gain.Disconnect()
}
