package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-sf2/config"
	"github.com/cwbudde/algo-sf2/internal/wavio"
	"github.com/cwbudde/algo-sf2/soundfont"
)

func main() {
	bankPath := flag.String("sf2", "", "SoundFont bank path (required)")
	configPath := flag.String("config", "", "Engine config JSON/YAML path (optional, for log level)")
	showZones := flag.Bool("zones", false, "List the zones of every preset")
	program := flag.Int("program", -1, "Only list this program number")
	exportDir := flag.String("export", "", "Write every sample as a WAV file into this directory")
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

	sf, err := soundfont.LoadFile(*bankPath, soundfont.WithLogger(cfg.Logger()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bank %q: %v\n", *bankPath, err)
		os.Exit(1)
	}

	printInfo(sf.Info)
	fmt.Println()

	fmt.Println("Presets:")
	for _, name := range sf.PresetNames() {
		if *program >= 0 && name.Number != *program {
			continue
		}
		for _, p := range sf.PresetsByNumber(name.Number) {
			fmt.Printf("  %3d:%-3d %s\n", p.Number, p.Bank, p.Name)
			if *showZones {
				printZones(p)
			}
		}
	}
	fmt.Println()

	fmt.Println("Instruments:")
	for i, name := range sf.InstrumentNames() {
		fmt.Printf("  %3d %s\n", i, name)
	}
	fmt.Println()

	fmt.Println("Samples:")
	for i, s := range sf.Samples() {
		fmt.Printf("  %3d %-20s %7d frames %6d Hz root %3d corr %+3d loop [%d,%d)\n",
			i, s.Name, len(s.Data), s.SampleRate, s.RootKey, s.PitchCorrection, s.LoopStart, s.LoopEnd)
	}

	if *exportDir != "" {
		n, err := exportSamples(sf, *exportDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting samples: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nExported %d samples to %s\n", n, *exportDir)
	}
}

func printInfo(info soundfont.Info) {
	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Version:  %s\n", info.Version)
	fmt.Printf("Engine:   %s\n", info.Engine)
	for _, f := range []struct{ label, value string }{
		{"ROM", info.ROM},
		{"Created", info.Created},
		{"Engineers", info.Engineers},
		{"Product", info.Product},
		{"Copyright", info.Copyright},
		{"Software", info.Software},
		{"Comment", info.Comment},
	} {
		if f.value != "" {
			fmt.Printf("%-9s %s\n", f.label+":", f.value)
		}
	}
}

func printZones(p *soundfont.Preset) {
	for _, pz := range p.Zones {
		for _, iz := range pz.Instrument.Zones {
			keys := pz.KeyRange.Intersect(iz.KeyRange)
			vels := pz.VelocityRange.Intersect(iz.VelocityRange)
			if keys.Empty() || vels.Empty() {
				continue
			}
			cutoff := "off"
			if iz.FilterCutoff != nil {
				cutoff = fmt.Sprintf("%.0f Hz", *iz.FilterCutoff)
			}
			fmt.Printf("      keys %3d-%-3d vel %3d-%-3d %-12s %-20s root %3d %s cutoff %s\n",
				keys.Min, keys.Max, vels.Min, vels.Max, pz.Instrument.Name, iz.Sample.Name,
				iz.RootKey(), iz.SampleMode, cutoff)
		}
	}
}

func exportSamples(sf *soundfont.SoundFont, dir string) (int, error) {
	n := 0
	for i, s := range sf.Samples() {
		if len(s.Data) == 0 {
			continue
		}
		name := fmt.Sprintf("%03d_%s.wav", i, sanitize(s.Name))
		if err := wavio.WriteMono(filepath.Join(dir, name), s.Data, s.SampleRate); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "sample"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
