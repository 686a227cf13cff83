package synth

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/soundfont"
	"github.com/cwbudde/algo-sf2/soundfont/sf2test"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testBank is one preset over the full key and velocity range, backed by a
// one second sample at root key 60 with a one second release.
func testBank() *sf2test.Bank {
	return &sf2test.Bank{
		Samples: []sf2test.Sample{{
			Name:       "tone",
			Data:       sf2test.Sine(44100, 44100, 261.63),
			SampleRate: 44100,
			RootKey:    60,
			LoopStart:  1000,
			LoopEnd:    43000,
		}},
		Instruments: []sf2test.Instrument{{
			Name: "tone",
			Zones: []sf2test.Zone{{
				sf2test.G(uint16(soundfont.GenReleaseVolEnv), 0),
				sf2test.UseSample(0),
			}},
		}},
		Presets: []sf2test.Preset{{
			Name:  "Tone",
			Zones: []sf2test.Zone{{sf2test.UseInstrument(0)}},
		}},
	}
}

func load(t *testing.T, b *sf2test.Bank) *soundfont.SoundFont {
	t.Helper()
	sf, err := soundfont.Load(b.Bytes(), soundfont.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	return sf
}

func newTestSynth(t *testing.T, b *sf2test.Bank) (*Synth, *recordingHost) {
	t.Helper()
	host := newRecordingHost()
	return New(host, load(t, b), WithLogger(quietLogger())), host
}

func TestNoteOnNoteOffSchedulesRelease(t *testing.T) {
	s, host := newTestSynth(t, testBank())

	s.NoteOn(0, 60, 100, At(0))
	s.NoteOff(0, 60, At(0.5))

	if len(host.sources) != 1 {
		t.Fatalf("expected exactly one playback unit, got %d", len(host.sources))
	}
	src := host.sources[0]
	if !src.started || src.start != 0 {
		t.Fatalf("expected unit started at 0, got started=%v at %f", src.started, src.start)
	}
	detune, ok := src.detune.last("set")
	if !ok || detune.value != 0 || detune.time != 0 {
		t.Fatalf("expected detune 0 at t=0, got %+v", detune)
	}
	if len(src.detune.inputs) != 1 {
		t.Fatalf("expected the channel pitch bend driver on detune, got %d inputs", len(src.detune.inputs))
	}

	_, gain := src.chain()
	cancel, ok := gain.gain.last("cancel")
	if !ok || cancel.time != 0.5 {
		t.Fatalf("expected automation cancelled at 0.5, got %+v", cancel)
	}
	hold, _ := gain.gain.last("set")
	if hold.time != 0.5 || math.Abs(hold.value-1) > 1e-9 {
		t.Fatalf("expected release to start from sustain level 1 at 0.5, got %+v", hold)
	}
	ramp, _ := gain.gain.last("ramp")
	if ramp.value != 0 || math.Abs(ramp.time-1.5) > 1e-9 {
		t.Fatalf("expected ramp to 0 ending at 1.5, got %+v", ramp)
	}
	if src.stop < 1.5 {
		t.Fatalf("expected stop after the release ramp, got %f", src.stop)
	}
}

func TestEnvelopeAutomationFollowsZone(t *testing.T) {
	b := testBank()
	b.Instruments[0].Zones[0] = sf2test.Zone{
		sf2test.G(uint16(soundfont.GenAttackVolEnv), 0),
		sf2test.G(uint16(soundfont.GenDecayVolEnv), 1200),
		sf2test.G(uint16(soundfont.GenSustainVolEnv), 60),
		sf2test.UseSample(0),
	}
	s, host := newTestSynth(t, b)
	s.NoteOn(0, 60, 50, At(1))

	_, gain := host.sources[0].chain()
	ev := gain.gain.events
	if len(ev) != 5 {
		t.Fatalf("expected 5 envelope events, got %+v", ev)
	}
	scale := 0.25
	attackEnd := ev[2]
	if attackEnd.kind != "ramp" || math.Abs(attackEnd.value-scale) > 1e-9 {
		t.Fatalf("attack should ramp to velocity scale %f, got %+v", scale, attackEnd)
	}
	if math.Abs(attackEnd.time-(1+0.001+1)) > 1e-3 {
		t.Fatalf("attack end time = %f", attackEnd.time)
	}
	decayEnd := ev[4]
	if decayEnd.kind != "ramp" || math.Abs(decayEnd.value-scale*math.Pow(10, -0.6)) > 1e-9 {
		t.Fatalf("decay should ramp to sustain, got %+v", decayEnd)
	}
}

func TestDetuneFromTuningGenerators(t *testing.T) {
	b := testBank()
	b.Samples[0].PitchCorrection = -7
	b.Instruments[0].Zones[0] = sf2test.Zone{
		sf2test.G(uint16(soundfont.GenCoarseTune), 2),
		sf2test.G(uint16(soundfont.GenFineTune), 10),
		sf2test.G(uint16(soundfont.GenScaleTuning), 50),
		sf2test.UseSample(0),
	}
	s, host := newTestSynth(t, b)
	s.NoteOn(0, 64, 100)

	got, _ := host.sources[0].detune.last("set")
	want := 2*100 + 10 + 50*(64-60) - 7
	if got.value != float64(want) {
		t.Fatalf("detune = %f, want %d", got.value, want)
	}
}

func TestNoteOffReleasesEveryLayer(t *testing.T) {
	b := testBank()
	b.Instruments[0].Zones = append(b.Instruments[0].Zones, sf2test.Zone{
		sf2test.KeyRange(50, 70),
		sf2test.UseSample(0),
	})
	s, host := newTestSynth(t, b)
	s.NoteOn(0, 60, 100, At(0))
	if len(host.sources) != 2 {
		t.Fatalf("expected two layered units, got %d", len(host.sources))
	}
	s.NoteOff(0, 60, At(0.25))
	for i, src := range host.sources {
		_, gain := src.chain()
		if _, ok := gain.gain.last("cancel"); !ok {
			t.Fatalf("unit %d was not released", i)
		}
	}
}

func TestNoteOffPicksOldestHeldVoice(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100, At(0))
	s.NoteOn(0, 60, 100, At(0.1))

	s.NoteOff(0, 60, At(0.2))
	_, first := host.sources[0].chain()
	_, second := host.sources[1].chain()
	if _, ok := first.gain.last("cancel"); !ok {
		t.Fatalf("expected the oldest voice to be released")
	}
	if _, ok := second.gain.last("cancel"); ok {
		t.Fatalf("expected the newer voice to keep sounding")
	}

	s.NoteOff(0, 60, At(0.3))
	if _, ok := second.gain.last("cancel"); !ok {
		t.Fatalf("expected the second note-off to release the newer voice")
	}
}

func TestNoteOffBeforeNoteOnTimeIsIgnored(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100, At(1))
	s.NoteOff(0, 60, At(0.5))
	_, gain := host.sources[0].chain()
	if _, ok := gain.gain.last("cancel"); ok {
		t.Fatalf("note-off earlier than note-on must not release it")
	}
}

func TestEventsInThePastAreDropped(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	host.now = 2
	s.NoteOn(0, 60, 100, At(1))
	if len(host.sources) != 0 {
		t.Fatalf("expected past note-on to be dropped")
	}
	s.NoteOn(0, 60, 100)
	if len(host.sources) != 1 || host.sources[0].start != 2 {
		t.Fatalf("expected note-on at current time 2")
	}
}

func TestMissingPresetIsSilent(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.SetPreset(0, 42)
	s.NoteOn(0, 60, 100)
	if len(host.sources) != 0 {
		t.Fatalf("expected no units without a preset")
	}
	s.SetPreset(0, 0)
	s.NoteOn(0, 60, 100)
	if len(host.sources) != 1 {
		t.Fatalf("expected a unit after selecting an existing preset")
	}
}

func TestPercussionChannelUsesDrumBank(t *testing.T) {
	b := testBank()
	b.Presets = append(b.Presets, sf2test.Preset{Name: "Kit", Number: 0, Bank: PercussionBank, Zones: []sf2test.Zone{{sf2test.UseInstrument(0)}}})
	s, _ := newTestSynth(t, b)
	if p := s.channels[PercussionChannel].preset; p == nil || p.Bank != PercussionBank {
		t.Fatalf("expected percussion channel on bank %d, got %+v", PercussionBank, p)
	}
	s.SetBank(PercussionChannel, 0)
	if p := s.channels[PercussionChannel].preset; p == nil || p.Bank != 0 {
		t.Fatalf("expected bank 0 after SetBank, got %+v", p)
	}
}

func TestPitchBendSchedulesChannelDriver(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.SetPitchBend(3, 150, At(0.25))
	ev, ok := host.constants[3].offset.last("set")
	if !ok || ev.value != 150 || ev.time != 0.25 {
		t.Fatalf("pitch bend event = %+v", ev)
	}
	if !host.constants[3].started {
		t.Fatalf("pitch bend driver must be running")
	}
}

func TestUnitEndedDisposesNote(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100, At(0))
	if s.Active(0) != 1 {
		t.Fatalf("expected one active note")
	}
	src := host.sources[0]
	src.onEnded()
	if s.Active(0) != 0 {
		t.Fatalf("expected note removed after its last unit ended")
	}
	if !src.disconnected || len(src.detune.inputs) != 0 {
		t.Fatalf("expected ended unit to be disconnected")
	}
	src.onEnded()
}

func TestResetStopsWithoutRelease(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100, At(0))
	s.NoteOn(1, 64, 100, At(0))
	host.now = 0.3
	s.ResetAll()
	for i, src := range host.sources {
		if src.stop != 0.3 {
			t.Fatalf("unit %d stop = %f, want 0.3", i, src.stop)
		}
		_, gain := src.chain()
		if _, ok := gain.gain.last("ramp"); ok && gain.gain.events[len(gain.gain.events)-1].kind == "ramp" {
			t.Fatalf("reset must not schedule a release ramp")
		}
	}
	if s.Active(0) != 0 || s.Active(1) != 0 {
		t.Fatalf("expected no active notes after reset")
	}
	s.NoteOff(0, 60)
	_, gain := host.sources[0].chain()
	cancels := 0
	for _, ev := range gain.gain.events {
		if ev.kind == "cancel" {
			cancels++
		}
	}
	if cancels != 1 {
		t.Fatalf("note-off after reset must be a no-op, got %d cancels", cancels)
	}
}

func TestNoteOffAllReleasesEveryChannel(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100)
	s.NoteOn(5, 62, 100)
	s.NoteOffAll()
	for i, src := range host.sources {
		_, gain := src.chain()
		if _, ok := gain.gain.last("cancel"); !ok {
			t.Fatalf("unit %d not released", i)
		}
	}
}

func TestLoopModeSetsSourceLoop(t *testing.T) {
	b := testBank()
	b.Instruments[0].Zones[0] = sf2test.Zone{
		sf2test.G(uint16(soundfont.GenSampleModes), 1),
		sf2test.UseSample(0),
	}
	s, host := newTestSynth(t, b)
	s.NoteOn(0, 60, 100)
	src := host.sources[0]
	if !src.loop || src.loopStart != 1000 || src.loopEnd != 43000 {
		t.Fatalf("loop = %v [%d,%d]", src.loop, src.loopStart, src.loopEnd)
	}
	if len(src.buf.Data) != 44100 {
		t.Fatalf("buffer length = %d", len(src.buf.Data))
	}
}

func TestFilterSetupFromZone(t *testing.T) {
	b := testBank()
	b.Instruments[0].Zones = []sf2test.Zone{
		{sf2test.KeyRange(0, 63), sf2test.G(uint16(soundfont.GenInitialFilterFc), 6000), sf2test.UseSample(0)},
		{sf2test.KeyRange(64, 127), sf2test.UseSample(0)},
	}
	s, host := newTestSynth(t, b)
	s.NoteOn(0, 60, 100)
	s.NoteOn(0, 70, 100)

	lp, _ := host.sources[0].chain()
	if lp.kind != graph.Lowpass {
		t.Fatalf("expected lowpass for zone with cutoff")
	}
	freq, _ := lp.freq.last("set")
	if math.Abs(freq.value-8.176*math.Pow(2, 5)) > 1e-6 {
		t.Fatalf("cutoff = %f", freq.value)
	}
	pass, _ := host.sources[1].chain()
	if pass.kind != graph.Passthrough {
		t.Fatalf("expected passthrough without cutoff")
	}
}

func TestZoneCachesAreReused(t *testing.T) {
	s, host := newTestSynth(t, testBank())
	s.NoteOn(0, 60, 100)
	s.NoteOn(1, 60, 100)
	s.NoteOn(0, 62, 100)
	if host.sources[0].buf != host.sources[1].buf || host.sources[0].buf != host.sources[2].buf {
		t.Fatalf("expected one shared buffer per zone")
	}
	if len(s.buffers) != 1 || len(s.channels[0].builders) != 1 || len(s.channels[1].builders) != 1 {
		t.Fatalf("unexpected cache sizes: buffers=%d", len(s.buffers))
	}
}

func TestBankQueries(t *testing.T) {
	s, _ := newTestSynth(t, testBank())
	if names := s.PresetNames(); len(names) != 1 || names[0].Name != "Tone" {
		t.Fatalf("preset names = %+v", names)
	}
	if p := s.Preset(0, 0); p == nil || p != s.PresetsByNumber(0)[0] {
		t.Fatalf("preset lookups disagree")
	}
	if s.Preset(1, 0) != nil {
		t.Fatalf("expected nil for missing preset")
	}
}
