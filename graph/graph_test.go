package graph

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestParamAutomationTimeline(t *testing.T) {
	c := NewContext(1000)
	p := newParam(c, 0.5, -10, 10)

	if v := p.valueAt(3); v != 0.5 {
		t.Fatalf("default value = %f", v)
	}
	p.SetValueAtTime(0, 1)
	p.LinearRampToValueAtTime(1, 2)
	p.SetValueAtTime(1, 3)
	p.LinearRampToValueAtTime(0.25, 4)

	cases := []struct{ t, want float64 }{
		{0.5, 0.5},
		{1, 0},
		{1.5, 0.5},
		{2, 1},
		{2.5, 1},
		{3.5, 0.625},
		{10, 0.25},
	}
	for _, tc := range cases {
		if v := p.valueAt(tc.t); !approxEqual(v, tc.want, 1e-9) {
			t.Fatalf("valueAt(%f) = %f, want %f", tc.t, v, tc.want)
		}
	}

	p.CancelScheduledValues(3)
	if v := p.valueAt(10); v != 1 {
		t.Fatalf("after cancel valueAt(10) = %f, want 1", v)
	}
}

func TestParamSetTarget(t *testing.T) {
	c := NewContext(1000)
	p := newParam(c, 1, -10, 10)
	p.SetTargetAtTime(0, 1, 0.5)
	if v := p.valueAt(1); v != 1 {
		t.Fatalf("value at target start = %f", v)
	}
	if v := p.valueAt(1.5); !approxEqual(v, math.Exp(-1), 1e-9) {
		t.Fatalf("value one time constant later = %f", v)
	}
	p.SetValueAtTime(0.75, 2)
	if v := p.valueAt(3); v != 0.75 {
		t.Fatalf("set value after target = %f", v)
	}
}

func TestParamRampAfterTarget(t *testing.T) {
	c := NewContext(1000)
	p := newParam(c, 1, -10, 10)
	p.SetTargetAtTime(0, 0, 0.1)
	p.LinearRampToValueAtTime(0, 2)
	if v := p.valueAt(0); v != 1 {
		t.Fatalf("value at target start = %f", v)
	}
	if v := p.valueAt(1.5); math.Abs(v) > 1e-4 {
		t.Fatalf("ramp ignored the target: valueAt(1.5) = %f", v)
	}
	if v := p.valueAt(2); v != 0 {
		t.Fatalf("ramp end = %f", v)
	}

	q := newParam(c, 1, -10, 10)
	q.SetTargetAtTime(0, 0, 0.1)
	q.LinearRampToValueAtTime(1, 2)
	want := math.Exp(-19)*0.05 + 0.95
	if v := q.valueAt(1.9); !approxEqual(v, want, 1e-9) {
		t.Fatalf("valueAt(1.9) = %f, want %f", v, want)
	}
}

func TestParamPruneKeepsValues(t *testing.T) {
	c := NewContext(1000)
	p := newParam(c, 0, -10, 10)
	p.SetValueAtTime(2, 0)
	p.LinearRampToValueAtTime(4, 1)
	p.SetValueAtTime(3, 2)
	p.LinearRampToValueAtTime(5, 4)
	want := p.valueAt(3)
	p.prune(2.5)
	if len(p.events) != 2 {
		t.Fatalf("expected 2 events after prune, got %d", len(p.events))
	}
	if got := p.valueAt(3); got != want {
		t.Fatalf("prune changed value: %f != %f", got, want)
	}
}

func TestGainRampThroughConstantSource(t *testing.T) {
	c := NewContext(100, WithBlockSize(16))
	src := c.CreateConstantSource()
	g := c.CreateGain()
	src.Connect(g)
	g.Connect(c.Destination())
	src.Start(0)
	g.Gain().SetValueAtTime(0, 0)
	g.Gain().LinearRampToValueAtTime(1, 1)

	out := make([]float32, 100)
	c.Render(out)
	for i, v := range out {
		want := float64(i) / 100
		if !approxEqual(float64(v), want, 1e-5) {
			t.Fatalf("frame %d = %f, want %f", i, v, want)
		}
	}
	if c.CurrentTime() != 1 {
		t.Fatalf("clock = %f, want 1", c.CurrentTime())
	}
}

func TestBufferSourcePlaysOnceAndEnds(t *testing.T) {
	c := NewContext(8)
	buf := &Buffer{Data: []float32{0.1, 0.2, 0.3, 0.4}, SampleRate: 8}
	s := c.CreateBufferSource(buf)
	s.Connect(c.Destination())

	ended := 0
	s.OnEnded(func() {
		// callbacks run unlocked and may call back into the graph
		_ = c.CurrentTime()
		ended++
	})
	s.Start(0)
	if c.Playing() != 1 {
		t.Fatalf("expected one playing source")
	}

	out := make([]float32, 8)
	c.Render(out)
	for i, want := range []float32{0.1, 0.2, 0.3, 0.4, 0, 0, 0, 0} {
		if !approxEqual(float64(out[i]), float64(want), 1e-6) {
			t.Fatalf("frame %d = %f, want %f", i, out[i], want)
		}
	}
	if ended != 1 {
		t.Fatalf("ended callback ran %d times", ended)
	}
	if c.Playing() != 0 {
		t.Fatalf("expected no playing sources")
	}
}

func TestBufferSourceWithoutRateEnds(t *testing.T) {
	c := NewContext(100)
	s := c.CreateBufferSource(&Buffer{Data: make([]float32, 10)})
	s.Connect(c.Destination())
	ended := 0
	s.OnEnded(func() { ended++ })
	s.Start(0)

	c.Render(make([]float32, 500))
	if ended != 1 || c.Playing() != 0 {
		t.Fatalf("ended %d times, %d still playing", ended, c.Playing())
	}
}

func TestBufferSourceLoops(t *testing.T) {
	c := NewContext(10, WithInterpolation(1))
	buf := &Buffer{Data: []float32{0, 1, 2, 3}, SampleRate: 10}
	s := c.CreateBufferSource(buf)
	s.SetLoop(true, 1, 3)
	s.Connect(c.Destination())
	s.Start(0)

	out := make([]float32, 7)
	c.Render(out)
	for i, want := range []float32{0, 1, 2, 1, 2, 1, 2} {
		if out[i] != want {
			t.Fatalf("frame %d = %f, want %f (out=%v)", i, out[i], want, out)
		}
	}
}

func TestBufferSourceStartStopTimes(t *testing.T) {
	c := NewContext(10)
	data := make([]float32, 100)
	for i := range data {
		data[i] = 1
	}
	s := c.CreateBufferSource(&Buffer{Data: data, SampleRate: 10})
	s.Connect(c.Destination())
	s.Start(0.2)
	s.Stop(0.5)
	out := make([]float32, 10)
	c.Render(out)
	for i, v := range out {
		want := float32(0)
		if i >= 2 && i < 5 {
			want = 1
		}
		if v != want {
			t.Fatalf("frame %d = %f, want %f", i, v, want)
		}
	}
}

func TestBufferSourceDetuneOctave(t *testing.T) {
	c := NewContext(10, WithInterpolation(1))
	s := c.CreateBufferSource(&Buffer{Data: []float32{0, 1, 2, 3, 4, 5, 6, 7}, SampleRate: 10})
	s.Detune().SetValueAtTime(1200, 0)
	s.Connect(c.Destination())
	s.Start(0)
	out := make([]float32, 4)
	c.Render(out)
	for i, v := range out {
		if !approxEqual(float64(v), float64(2*i), 0.05) {
			t.Fatalf("frame %d = %f, want %d", i, v, 2*i)
		}
	}
}

func TestConstantSourceDrivesDetune(t *testing.T) {
	c := NewContext(10, WithInterpolation(1))
	bend := c.CreateConstantSource()
	bend.Offset().SetValueAtTime(1200, 0)
	bend.Start(0)
	s := c.CreateBufferSource(&Buffer{Data: []float32{0, 1, 2, 3, 4, 5, 6, 7}, SampleRate: 10})
	bend.ConnectParam(s.Detune())
	s.Connect(c.Destination())
	s.Start(0)
	out := make([]float32, 3)
	c.Render(out)
	if !approxEqual(float64(out[2]), 4, 0.05) {
		t.Fatalf("bent playback frame 2 = %f, want 4", out[2])
	}
}

func TestDisconnectSilences(t *testing.T) {
	c := NewContext(10)
	src := c.CreateConstantSource()
	src.Start(0)
	src.Connect(c.Destination())
	out := make([]float32, 2)
	c.Render(out)
	if out[0] != 1 {
		t.Fatalf("expected connected source to sound, got %f", out[0])
	}
	src.Disconnect()
	c.Render(out)
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("expected silence after disconnect, got %v", out)
	}
}

func TestFilterPassthroughAndLowpass(t *testing.T) {
	c := NewContext(48000)
	src := c.CreateConstantSource()
	src.Start(0)
	f := c.CreateFilter()
	f.SetType(Passthrough)
	src.Connect(f)
	f.Connect(c.Destination())
	out := make([]float32, 4)
	c.Render(out)
	if out[3] != 1 {
		t.Fatalf("passthrough = %f", out[3])
	}

	f.SetType(Lowpass)
	f.Frequency().SetValueAtTime(1000, 0)
	long := make([]float32, 4800)
	c.Render(long)
	// DC passes a low-pass at unity once settled
	if !approxEqual(float64(long[len(long)-1]), 1, 1e-3) {
		t.Fatalf("lowpass DC gain = %f", long[len(long)-1])
	}
}
