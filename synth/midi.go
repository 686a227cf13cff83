package synth

import (
	"gitlab.com/gomidi/midi/v2"
)

// Controller numbers handled by HandleMessage.
const (
	ccBankSelect      = 0
	ccVolume          = 7
	ccBankSelectLSB   = 32
	ccAllSoundOff     = 120
	ccResetAll        = 121
	ccAllNotesOff     = 123
	pitchBendMaxValue = 8192
)

// HandleMessage dispatches a channel voice message. Note-on with velocity
// zero is a note-off. Unhandled messages are ignored.
func (s *Synth) HandleMessage(msg midi.Message, opts ...EventOption) {
	var ch, key, vel, controller, value, program uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			s.NoteOff(int(ch), int(key), opts...)
			return
		}
		s.NoteOn(int(ch), int(key), int(vel), opts...)
	case msg.GetNoteOff(&ch, &key, &vel):
		s.NoteOff(int(ch), int(key), opts...)
	case msg.GetProgramChange(&ch, &program):
		s.SetPreset(int(ch), int(program))
	case msg.GetPitchBend(&ch, &rel, &abs):
		s.SetPitchBend(int(ch), s.bendCents(rel), opts...)
	case msg.GetControlChange(&ch, &controller, &value):
		s.controlChange(int(ch), controller, value, opts)
	}
}

func (s *Synth) bendCents(rel int16) float64 {
	return float64(rel) / pitchBendMaxValue * s.bendRange * 100
}

func (s *Synth) controlChange(ch int, controller, value uint8, opts []EventOption) {
	switch controller {
	case ccBankSelect:
		s.SetBank(ch, int(value))
	case ccBankSelectLSB:
		// banks above 127 are not addressable through the LSB
		s.logger.Debug("synth: ignoring bank select LSB", "channel", ch, "value", value)
	case ccVolume:
		v := float64(value) / 127
		s.SetVolume(ch, v*v, opts...)
	case ccAllSoundOff:
		s.Reset(ch)
	case ccResetAll:
		s.SetPitchBend(ch, 0, opts...)
	case ccAllNotesOff:
		s.ChannelNoteOffAll(ch, opts...)
	default:
		s.logger.Debug("synth: ignoring controller", "channel", ch, "controller", controller, "value", value)
	}
}
