package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-sf2/analysis"
	"github.com/cwbudde/algo-sf2/internal/wavio"
)

type jsonReport struct {
	Path               string   `json:"path"`
	SampleRate         int      `json:"sample_rate"`
	Frames             int      `json:"frames"`
	PeakDBFS           float64  `json:"peak_dbfs"`
	RMSDBFS            float64  `json:"rms_dbfs"`
	DecayDBPerS        *float64 `json:"decay_db_per_s"`
	FundamentalHz      float64  `json:"fundamental_hz"`
	SpectralCentroidHz float64  `json:"spectral_centroid_hz"`
}

func main() {
	sampleRate := flag.Int("sample-rate", 0, "Resample to this rate before analysis (0 keeps the file rate)")
	jsonOut := flag.Bool("json", false, "Print reports as JSON")
	flag.Parse()

	if flag.NArg() == 0 {
		die("usage: sf2-analyze [-sample-rate hz] [-json] file.wav...")
	}

	var reports []jsonReport
	for _, path := range flag.Args() {
		x, sr, err := wavio.ReadMono(path)
		if err != nil {
			die("failed to read %s: %v", path, err)
		}
		if *sampleRate > 0 {
			if x, err = wavio.Resample(x, sr, *sampleRate); err != nil {
				die("failed to resample %s: %v", path, err)
			}
			sr = *sampleRate
		}
		samples := make([]float32, len(x))
		for i, v := range x {
			samples[i] = float32(v)
		}
		r := analysis.Measure(samples, sr)

		if !*jsonOut {
			fmt.Printf("%s\n", path)
			fmt.Printf("  Frames:      %d (%.3fs at %d Hz)\n", r.Frames, float64(r.Frames)/float64(sr), sr)
			fmt.Printf("  Peak:        %.2f dBFS\n", r.PeakDBFS)
			fmt.Printf("  RMS:         %.2f dBFS\n", r.RMSDBFS)
			if r.IsDecaying() {
				fmt.Printf("  Decay:       %.2f dB/s\n", r.DecayDBPerS)
			} else {
				fmt.Printf("  Decay:       none\n")
			}
			fmt.Printf("  Fundamental: %.2f Hz\n", r.FundamentalHz)
			fmt.Printf("  Centroid:    %.1f Hz\n", r.SpectralCentroidHz)
			continue
		}
		jr := jsonReport{
			Path:               path,
			SampleRate:         r.SampleRate,
			Frames:             r.Frames,
			PeakDBFS:           r.PeakDBFS,
			RMSDBFS:            r.RMSDBFS,
			FundamentalHz:      r.FundamentalHz,
			SpectralCentroidHz: r.SpectralCentroidHz,
		}
		if !math.IsNaN(r.DecayDBPerS) {
			d := r.DecayDBPerS
			jr.DecayDBPerS = &d
		}
		reports = append(reports, jr)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			die("json encode failed: %v", err)
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
