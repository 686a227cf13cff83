package soundfont

// Instrument is a named, ordered set of sample zones. The global zone is
// folded into Zones and never listed.
type Instrument struct {
	Name  string
	Index int
	Zones []*InstrumentZone
}

// Preset is a program addressable by (Number, Bank). The global zone is
// folded into Zones and never listed.
type Preset struct {
	Name   string
	Number int
	Bank   int
	Zones  []*PresetZone
}

// PresetName identifies a preset for enumeration.
type PresetName struct {
	Number int
	Bank   int
	Name   string
}

// Regions returns every instrument zone that sounds for key and velocity,
// paired with the preset zone that selected it. A region's windows are the
// intersection of both zones' windows.
func (p *Preset) Regions(key, velocity int) []Region {
	var out []Region
	for _, pz := range p.Zones {
		if pz.Instrument == nil || !pz.Matches(key, velocity) {
			continue
		}
		for _, iz := range pz.Instrument.Zones {
			r := Region{
				PresetZone:     pz,
				InstrumentZone: iz,
				KeyRange:       pz.KeyRange.Intersect(iz.KeyRange),
				VelocityRange:  pz.VelocityRange.Intersect(iz.VelocityRange),
			}
			if r.Includes(key, velocity) {
				out = append(out, r)
			}
		}
	}
	return out
}
