package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-sf2/analysis"
	"github.com/cwbudde/algo-sf2/config"
	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/internal/wavio"
	"github.com/cwbudde/algo-sf2/sequencer"
	"github.com/cwbudde/algo-sf2/soundfont"
	"github.com/cwbudde/algo-sf2/synth"
)

func main() {
	bankPath := flag.String("sf2", "", "SoundFont bank path (required)")
	configPath := flag.String("config", "", "Engine config JSON/YAML path (optional)")
	midiPath := flag.String("midi", "", "Standard MIDI File to render instead of a single note")
	program := flag.Int("program", 0, "Program number for single-note renders")
	bank := flag.Int("bank", 0, "Bank number for single-note renders")
	channel := flag.Int("channel", 0, "MIDI channel for single-note renders (0-15)")
	note := flag.Int("note", 60, "MIDI note number (60 = C4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS after release (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	maxDuration := flag.Float64("max-duration", 60.0, "Maximum render duration in seconds when using -decay-dbfs or -midi")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (overrides config)")
	stereo := flag.Bool("stereo", false, "Write the mono render on both channels")
	analyze := flag.Bool("analyze", false, "Print level, decay and pitch of the render")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	if *bankPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -sf2 is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %q: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
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

	blockSize := cfg.BlockSize
	var samples []float32
	if *midiPath != "" {
		events, err := sequencer.ReadFile(*midiPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading MIDI file: %v\n", err)
			os.Exit(1)
		}
		seq := sequencer.New(events, s, sequencer.WithLogger(logger))
		fmt.Printf("Rendering %s (%d events, %.2fs) with %s at %d Hz...\n", *midiPath, len(events), seq.End(), *bankPath, cfg.SampleRate)
		samples = renderSequence(ctx, seq, blockSize, cfg.Lookahead, *maxDuration)
	} else {
		if p := s.Preset(*program, *bank); p == nil {
			fmt.Fprintf(os.Stderr, "Error: no preset %d in bank %d\n", *program, *bank)
			os.Exit(1)
		} else {
			fmt.Printf("Rendering note %d, velocity %d on %q (program %d, bank %d) at %d Hz...\n", *note, *velocity, p.Name, *program, *bank, cfg.SampleRate)
		}
		s.SetBank(*channel, *bank)
		s.SetPreset(*channel, *program)
		s.NoteOn(*channel, *note, *velocity, synth.At(0))
		s.NoteOff(*channel, *note, synth.At(*releaseAfter))

		if math.IsInf(*decayDBFS, 1) {
			samples = renderFor(ctx, int(float64(cfg.SampleRate)*(*duration)), blockSize)
		} else {
			samples = renderUntilDecay(ctx, blockSize, *releaseAfter, *maxDuration, *decayDBFS, *decayHoldBlocks)
			fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", len(samples), float64(len(samples))/float64(cfg.SampleRate), *decayDBFS)
		}
	}

	if *stereo {
		err = wavio.WriteStereo(*output, wavio.Duplicate(samples), cfg.SampleRate)
	} else {
		err = wavio.WriteMono(*output, samples, cfg.SampleRate)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples))

	if *analyze {
		r := analysis.Measure(samples, cfg.SampleRate)
		fmt.Printf("peak=%.2f dBFS rms=%.2f dBFS decay=%.2f dB/s f0=%.2f Hz centroid=%.1f Hz\n",
			r.PeakDBFS, r.RMSDBFS, r.DecayDBPerS, r.FundamentalHz, r.SpectralCentroidHz)
	}
}

func renderFor(ctx *graph.Context, totalFrames, blockSize int) []float32 {
	if totalFrames < 1 {
		totalFrames = 1
	}
	samples := make([]float32, totalFrames)
	for off := 0; off < totalFrames; off += blockSize {
		ctx.Render(samples[off:min(off+blockSize, totalFrames)])
	}
	return samples
}

func renderUntilDecay(ctx *graph.Context, blockSize int, releaseAfter, maxDuration, decayDBFS float64, holdBlocks int) []float32 {
	sr := ctx.SampleRate()
	minFrames := int(float64(sr) * releaseAfter)
	maxFrames := max(int(float64(sr)*maxDuration), minFrames+blockSize)
	thresholdLin := math.Pow(10.0, decayDBFS/20.0)
	holdBlocks = max(holdBlocks, 1)

	samples := make([]float32, 0, minFrames+blockSize)
	block := make([]float32, blockSize)
	belowCount := 0
	for len(samples) < maxFrames {
		n := min(blockSize, maxFrames-len(samples))
		ctx.Render(block[:n])
		samples = append(samples, block[:n]...)

		if len(samples) < minFrames {
			continue
		}
		if wavio.RMS(block[:n]) < thresholdLin || ctx.Playing() == 0 {
			belowCount++
			if belowCount >= holdBlocks {
				break
			}
		} else {
			belowCount = 0
		}
	}
	return samples
}

// renderSequence feeds the sequencer lookahead seconds ahead of the render
// clock and stops once every event is sent and every source has ended.
func renderSequence(ctx *graph.Context, seq *sequencer.Sequencer, blockSize int, lookahead, maxDuration float64) []float32 {
	sr := ctx.SampleRate()
	maxFrames := int(float64(sr) * maxDuration)
	block := make([]float32, blockSize)
	var samples []float32
	for len(samples) < maxFrames {
		seq.Advance(ctx.CurrentTime() + float64(blockSize)/float64(sr) + lookahead)
		ctx.Render(block)
		samples = append(samples, block...)
		if seq.Done() && ctx.Playing() == 0 && ctx.CurrentTime() > seq.End() {
			break
		}
	}
	return samples
}
