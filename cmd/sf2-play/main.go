package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cwbudde/algo-sf2/config"
	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/sequencer"
	"github.com/cwbudde/algo-sf2/soundfont"
	"github.com/cwbudde/algo-sf2/synth"
	"github.com/ebitengine/oto/v3"
	"gitlab.com/gomidi/midi/v2"
)

func main() {
	bankPath := flag.String("sf2", "", "SoundFont bank path (required)")
	configPath := flag.String("config", "", "Engine config JSON/YAML path (optional)")
	midiPath := flag.String("midi", "", "Standard MIDI File to play (plays a C major scale when empty)")
	program := flag.Int("program", 0, "Program number for the scale")
	bank := flag.Int("bank", 0, "Bank number for the scale")
	flag.Parse()

	if *bankPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -sf2 is required")
		flag.Usage()
		os.Exit(1)
	}
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %q: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	logger := cfg.Logger()

	sf, err := soundfont.LoadFile(*bankPath, soundfont.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bank %q: %v\n", *bankPath, err)
		os.Exit(1)
	}

	ctx := graph.NewContext(cfg.SampleRate, graph.WithBlockSize(cfg.BlockSize), graph.WithLogger(logger))
	s := synth.New(ctx, sf,
		synth.WithLogger(logger),
		synth.WithMasterGain(cfg.MasterGain),
		synth.WithPitchBendRange(cfg.PitchBendRange),
		synth.WithReleaseTail(cfg.ReleaseTail),
	)

	var events []sequencer.Event
	if *midiPath != "" {
		if events, err = sequencer.ReadFile(*midiPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading MIDI file: %v\n", err)
			os.Exit(1)
		}
	} else {
		s.SetBank(0, *bank)
		s.SetPreset(0, *program)
		events = scale()
	}
	// Leave room for the device to start before the first note.
	seq := sequencer.New(events, s, sequencer.WithStart(cfg.Lookahead), sequencer.WithLogger(logger))

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	stream := newStream(ctx, seq, cfg.Lookahead)
	player := otoCtx.NewPlayer(stream)
	player.Play()
	defer player.Close()

	fmt.Printf("Playing %d events with %s at %d Hz (Ctrl-C to stop)...\n", len(events), *bankPath, cfg.SampleRate)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			s.ResetAll()
			fmt.Println("Stopped")
			return
		case <-ticker.C:
			if stream.finished() {
				fmt.Println("Done")
				return
			}
		}
	}
}

// scale is one octave of C major, a quarter second per note.
func scale() []sequencer.Event {
	var events []sequencer.Event
	for i, key := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		t := float64(i) * 0.25
		events = append(events,
			sequencer.Event{Time: t, Message: midi.NoteOn(0, key, 100)},
			sequencer.Event{Time: t + 0.2, Message: midi.NoteOff(0, key)},
		)
	}
	return events
}
