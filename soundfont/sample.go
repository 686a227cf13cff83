package soundfont

import "github.com/pkg/errors"

// SampleMode selects how a zone loops its sample.
type SampleMode int

const (
	NoLoop          SampleMode = 0
	Loop            SampleMode = 1
	LoopUntilKeyOff SampleMode = 3
)

func (m SampleMode) String() string {
	switch m {
	case NoLoop:
		return "no_loop"
	case Loop:
		return "loop"
	case LoopUntilKeyOff:
		return "loop_until_key_off"
	default:
		return "unused"
	}
}

// Looping reports whether playback wraps between the loop points.
// LoopUntilKeyOff is played as a continuous loop.
func (m SampleMode) Looping() bool {
	return m == Loop || m == LoopUntilKeyOff
}

// sampleTypeROM marks samples stored in a sound ROM rather than smpl.
const sampleTypeROM = 0x8000

// Sample is an immutable mono PCM buffer. LoopStart and LoopEnd index Data.
type Sample struct {
	Name            string
	Data            []float32
	RootKey         int
	SampleRate      int
	PitchCorrection int
	LoopStart       int
	LoopEnd         int
	Type            int
	Link            int
}

// Duration is the length of the sample in seconds.
func (s *Sample) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}

// decodeSample slices the shared PCM blob for one header. Loop points are
// rebased onto the sample's own start.
func decodeSample(h SampleHeader, pcm []float32) (*Sample, error) {
	s := &Sample{
		Name:            h.Name,
		RootKey:         h.OriginalPitch,
		SampleRate:      h.SampleRate,
		PitchCorrection: h.PitchCorrection,
		LoopStart:       h.StartLoop - h.Start,
		LoopEnd:         h.EndLoop - h.Start,
		Type:            h.SampleType,
		Link:            h.SampleLink,
	}
	if s.RootKey > 127 {
		// 255 marks an unpitched sample.
		s.RootKey = 60
	}
	if h.SampleType&sampleTypeROM != 0 {
		return s, nil
	}
	if h.Start > h.End || h.End > len(pcm) {
		return nil, errors.Wrapf(ErrMalformed, "sample %q spans [%d,%d) of %d frames", h.Name, h.Start, h.End, len(pcm))
	}
	if h.End > h.Start && h.SampleRate <= 0 {
		return nil, errors.Wrapf(ErrMalformed, "sample %q has sample rate %d", h.Name, h.SampleRate)
	}
	s.Data = pcm[h.Start:h.End:h.End]
	return s, nil
}
