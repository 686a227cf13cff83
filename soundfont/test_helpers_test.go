package soundfont

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/cwbudde/algo-sf2/soundfont/sf2test"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func gen(id GeneratorID, v int) sf2test.Gen {
	return sf2test.G(uint16(id), v)
}

// oneNoteBank is a single preset spanning every key, backed by a one
// second sine at root key 60.
func oneNoteBank() *sf2test.Bank {
	return &sf2test.Bank{
		Name: "test bank",
		Samples: []sf2test.Sample{{
			Name:       "sine",
			Data:       sf2test.Sine(44100, 44100, 261.63),
			SampleRate: 44100,
			RootKey:    60,
			LoopStart:  100,
			LoopEnd:    44000,
		}},
		Instruments: []sf2test.Instrument{{
			Name:  "sine",
			Zones: []sf2test.Zone{{sf2test.UseSample(0)}},
		}},
		Presets: []sf2test.Preset{{
			Name:  "Sine",
			Zones: []sf2test.Zone{{sf2test.UseInstrument(0)}},
		}},
	}
}

func mustLoad(t *testing.T, b *sf2test.Bank) *SoundFont {
	t.Helper()
	sf, err := Load(b.Bytes(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return sf
}
