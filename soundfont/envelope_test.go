package soundfont

import (
	"math"
	"testing"
)

func TestEnvelopeStageBoundaries(t *testing.T) {
	e := Envelope{Delay: 0.1, Attack: 0.2, Hold: 0.3, Decay: 0.4, Sustain: 0.25, Release: 1, Scale: 0.8}

	if v := e.ValueAt(e.Delay); v != 0 {
		t.Fatalf("value at end of delay = %f, want 0", v)
	}
	if v := e.ValueAt(0.05); v != 0 {
		t.Fatalf("value inside delay = %f, want 0", v)
	}
	if v := e.ValueAt(e.Delay + e.Attack); !near(v, e.Scale, 1e-9) {
		t.Fatalf("value after attack = %f, want %f", v, e.Scale)
	}
	if v := e.ValueAt(e.Delay + e.Attack/2); !near(v, e.Scale/2, 1e-9) {
		t.Fatalf("value mid attack = %f, want %f", v, e.Scale/2)
	}
	if v := e.ValueAt(e.Delay + e.Attack + e.Hold); !near(v, e.Scale, 1e-9) {
		t.Fatalf("value after hold = %f, want %f", v, e.Scale)
	}
	if v := e.ValueAt(e.Length()); !near(v, e.Scale*e.Sustain, 1e-9) {
		t.Fatalf("value after decay = %f, want %f", v, e.Scale*e.Sustain)
	}
	if v := e.ValueAt(100); !near(v, e.Scale*e.Sustain, 1e-9) {
		t.Fatalf("sustain value = %f, want %f", v, e.Scale*e.Sustain)
	}
}

func TestEnvelopeWithScaleCopies(t *testing.T) {
	base := DefaultEnvelope
	scaled := base.WithScale(0.5)
	if base.Scale != 1 || scaled.Scale != 0.5 {
		t.Fatalf("WithScale mutated receiver: base=%f scaled=%f", base.Scale, scaled.Scale)
	}
}

func TestDefaultEnvelopeIsNearlyInstant(t *testing.T) {
	if DefaultEnvelope.Length() > 0.005 {
		t.Fatalf("default envelope too long: %f", DefaultEnvelope.Length())
	}
	if v := DefaultEnvelope.ValueAt(1); v != 1 {
		t.Fatalf("default sustain level = %f", v)
	}
}

func TestTimecentsRoundTrip(t *testing.T) {
	for _, sec := range []float64{0.001, 0.01, 0.5, 1, 2.5, 20} {
		got := TimecentsFromSeconds(sec).Seconds()
		if !near(got, sec, 1e-9*sec) {
			t.Fatalf("round trip %f -> %f", sec, got)
		}
	}
	for _, tc := range []Timecents{-12000, -1200, 0, 1200, 8000} {
		got := TimecentsFromSeconds(tc.Seconds())
		if !near(float64(got), float64(tc), 1e-6) {
			t.Fatalf("round trip %f -> %f", tc, got)
		}
	}
	if !near(Timecents(1200).Seconds(), 2*Timecents(0).Seconds(), 1e-12) {
		t.Fatalf("1200 timecents should double the duration")
	}
	if !math.IsInf(float64(TimecentsFromSeconds(0)), -1) {
		t.Fatalf("zero seconds should encode as -Inf")
	}
}

func TestCentsToRatio(t *testing.T) {
	if r := CentsToRatio(1200); !near(r, 2, 1e-12) {
		t.Fatalf("octave ratio = %f", r)
	}
	if r := CentsToRatio(-1200); !near(r, 0.5, 1e-12) {
		t.Fatalf("octave down ratio = %f", r)
	}
}
