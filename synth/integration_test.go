package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-sf2/graph"
)

func rms(samples []float32) float64 {
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestRenderNoteThroughGraph(t *testing.T) {
	const sr = 44100
	ctx := graph.NewContext(sr)
	s := New(ctx, load(t, testBank()), WithLogger(quietLogger()), WithMasterGain(1))

	s.NoteOn(0, 60, 100, At(0))
	s.NoteOff(0, 60, At(0.25))

	held := make([]float32, sr/4)
	ctx.Render(held)
	if level := rms(held[sr/8:]); level < 0.3 {
		t.Fatalf("expected a sounding note, rms=%f", level)
	}

	tail := make([]float32, 2*sr)
	ctx.Render(tail)
	if level := rms(tail[len(tail)-sr/10:]); level > 1e-6 {
		t.Fatalf("expected silence after release, rms=%f", level)
	}
	if ctx.Playing() != 0 {
		t.Fatalf("expected every source to have ended, %d playing", ctx.Playing())
	}
	if s.Active(0) != 0 {
		t.Fatalf("expected the note to be disposed, %d active", s.Active(0))
	}
}

func TestRenderPitchBendRaisesPitch(t *testing.T) {
	const sr = 44100
	crossings := func(bend float64) int {
		ctx := graph.NewContext(sr)
		s := New(ctx, load(t, testBank()), WithLogger(quietLogger()), WithMasterGain(1))
		s.SetPitchBend(0, bend)
		s.NoteOn(0, 60, 100)
		out := make([]float32, sr/2)
		ctx.Render(out)
		n := 0
		for i := 1; i < len(out); i++ {
			if (out[i-1] < 0) != (out[i] < 0) {
				n++
			}
		}
		return n
	}
	base := crossings(0)
	up := crossings(1200)
	ratio := float64(up) / float64(base)
	if math.Abs(ratio-2) > 0.05 {
		t.Fatalf("octave bend should double zero crossings: base=%d bent=%d", base, up)
	}
}
