package soundfont

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Option configures Load.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes decode diagnostics to logger instead of slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type presetKey struct {
	number int
	bank   int
}

// headerSlice is a header plus its [lo,hi) range in the bag array.
type headerSlice struct {
	index int
	name  string
	bagLo int
	bagHi int
}

// SoundFont is a loaded bank. Presets and instruments are resolved on first
// use and cached for the lifetime of the bank.
type SoundFont struct {
	Info Info

	records     *Records
	samples     []*Sample
	presetIndex map[int]map[int]headerSlice
	presetOrder []presetKey
	instIndex   []headerSlice
	logger      *slog.Logger

	mu          sync.Mutex
	presets     map[presetKey]*Preset
	instruments map[int]*Instrument
}

// LoadFile reads and loads a bank from disk.
func LoadFile(path string, opts ...Option) (*SoundFont, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Load(b, opts...)
}

// LoadReader reads r to the end and loads the bank.
func LoadReader(r io.Reader, opts ...Option) (*SoundFont, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.WithStack(err)
	}
	return Load(buf.Bytes(), opts...)
}

// Load decodes a complete SF2 image. Loading is all-or-nothing: malformed
// containers, missing arrays and dangling references fail the whole bank.
func Load(data []byte, opts ...Option) (*SoundFont, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	root, err := ParseChunk(data)
	if err != nil {
		return nil, err
	}
	rec, err := Decode(root, o.logger)
	if err != nil {
		return nil, err
	}
	return newSoundFont(rec, o.logger)
}

func newSoundFont(rec *Records, logger *slog.Logger) (*SoundFont, error) {
	sf := &SoundFont{
		Info:        rec.Info,
		records:     rec,
		presetIndex: map[int]map[int]headerSlice{},
		logger:      logger,
		presets:     map[presetKey]*Preset{},
		instruments: map[int]*Instrument{},
	}

	for i, h := range rec.SampleHeaders {
		s, err := decodeSample(h, rec.SampleData)
		if err != nil {
			return nil, errors.WithMessagef(err, "sample %d", i)
		}
		sf.samples = append(sf.samples, s)
	}

	if err := checkBags("pbag", rec.PresetBags, len(rec.PresetGenerators)); err != nil {
		return nil, err
	}
	if err := checkBags("ibag", rec.InstrumentBags, len(rec.InstrumentGenerators)); err != nil {
		return nil, err
	}

	for i := 0; i+1 < len(rec.PresetHeaders); i++ {
		h := rec.PresetHeaders[i]
		s, err := sliceBags("phdr", i, h.Name, h.BagIndex, rec.PresetHeaders[i+1].BagIndex, len(rec.PresetBags))
		if err != nil {
			return nil, err
		}
		banks, ok := sf.presetIndex[h.Preset]
		if !ok {
			banks = map[int]headerSlice{}
			sf.presetIndex[h.Preset] = banks
		}
		if _, dup := banks[h.Bank]; dup {
			logger.Warn("soundfont: duplicate preset, keeping first", "preset", h.Preset, "bank", h.Bank, "name", h.Name)
			continue
		}
		banks[h.Bank] = s
		sf.presetOrder = append(sf.presetOrder, presetKey{number: h.Preset, bank: h.Bank})
	}
	for i := 0; i+1 < len(rec.InstrumentHeaders); i++ {
		h := rec.InstrumentHeaders[i]
		s, err := sliceBags("inst", i, h.Name, h.BagIndex, rec.InstrumentHeaders[i+1].BagIndex, len(rec.InstrumentBags))
		if err != nil {
			return nil, err
		}
		sf.instIndex = append(sf.instIndex, s)
	}

	if err := sf.checkReferences(); err != nil {
		return nil, err
	}
	return sf, nil
}

// checkBags verifies that generator start indices never decrease and stay
// within the generator array. The last bag is a sentinel.
func checkBags(tag string, bags []Bag, numGens int) error {
	if len(bags) == 0 {
		return errors.Wrapf(ErrMalformed, "%s is empty", tag)
	}
	prev := 0
	for i, b := range bags {
		if b.GenIndex < prev || b.GenIndex > numGens {
			return errors.Wrapf(ErrMalformed, "%s[%d] generator index %d out of order or range (%d generators)", tag, i, b.GenIndex, numGens)
		}
		prev = b.GenIndex
	}
	return nil
}

func sliceBags(tag string, index int, name string, lo, hi, numBags int) (headerSlice, error) {
	// the bag at hi is read as an end marker, so hi must leave one bag after it
	if lo > hi || hi > numBags-1 {
		return headerSlice{}, errors.Wrapf(ErrMalformed, "%s[%d] %q bags [%d,%d) outside %d bags", tag, index, name, lo, hi, numBags)
	}
	return headerSlice{index: index, name: name, bagLo: lo, bagHi: hi}, nil
}

// checkReferences rejects generators naming a sample or instrument that does
// not exist, so lazy resolution can never fail.
func (sf *SoundFont) checkReferences() error {
	for i, g := range sf.records.InstrumentGenerators {
		if g.ID == GenSampleID && int(g.Amount.Uint16()) >= len(sf.samples) {
			return errors.Wrapf(ErrDanglingReference, "igen[%d] sample %d of %d", i, g.Amount.Uint16(), len(sf.samples))
		}
	}
	for i, g := range sf.records.PresetGenerators {
		if g.ID == GenInstrument && int(g.Amount.Uint16()) >= len(sf.instIndex) {
			return errors.Wrapf(ErrDanglingReference, "pgen[%d] instrument %d of %d", i, g.Amount.Uint16(), len(sf.instIndex))
		}
	}
	return nil
}

// Preset returns the preset for (number, bank) or nil when the bank has no
// such preset. Repeated calls return the same object.
func (sf *SoundFont) Preset(number, bank int) *Preset {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.presetLocked(number, bank)
}

func (sf *SoundFont) presetLocked(number, bank int) *Preset {
	key := presetKey{number: number, bank: bank}
	if p, ok := sf.presets[key]; ok {
		return p
	}
	h, ok := sf.presetIndex[number][bank]
	if !ok {
		return nil
	}
	p := &Preset{Name: h.name, Number: number, Bank: bank}
	params := resolveZones(PresetZoneKind, sf.records.PresetBags, h.bagLo, h.bagHi, sf.records.PresetGenerators, sf.logger)
	for _, zp := range params {
		p.Zones = append(p.Zones, &PresetZone{
			Zone:            zp.zone(),
			Instrument:      sf.instrumentLocked(zp.instrumentIndex),
			InstrumentIndex: zp.instrumentIndex,
		})
	}
	sf.presets[key] = p
	return p
}

// Instrument returns the instrument at index or nil.
func (sf *SoundFont) Instrument(index int) *Instrument {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.instrumentLocked(index)
}

func (sf *SoundFont) instrumentLocked(index int) *Instrument {
	if inst, ok := sf.instruments[index]; ok {
		return inst
	}
	if index < 0 || index >= len(sf.instIndex) {
		return nil
	}
	h := sf.instIndex[index]
	inst := &Instrument{Name: h.name, Index: index}
	params := resolveZones(InstrumentZoneKind, sf.records.InstrumentBags, h.bagLo, h.bagHi, sf.records.InstrumentGenerators, sf.logger)
	for n, zp := range params {
		inst.Zones = append(inst.Zones, &InstrumentZone{
			Zone:            zp.zone(),
			ID:              ZoneID{Instrument: index, Zone: n},
			Sample:          sf.samples[zp.sampleIndex],
			SampleIndex:     zp.sampleIndex,
			Offsets:         zp.offsets,
			SampleMode:      zp.sampleMode,
			ExclusiveClass:  zp.exclusiveClass,
			RootKeyOverride: zp.rootKeyOverride,
		})
	}
	sf.instruments[index] = inst
	return inst
}

// resolveZones walks bags [lo,hi) and applies each zone's generators on top
// of the running global zone. Zones lacking their terminal reference become
// the new global zone and are not returned.
func resolveZones(kind ZoneKind, bags []Bag, lo, hi int, gens []Generator, logger *slog.Logger) []zoneParams {
	global := defaultZoneParams(kind)
	var out []zoneParams
	for i := lo; i < hi; i++ {
		p := global
		for _, g := range gens[bags[i].GenIndex:bags[i+1].GenIndex] {
			applyGenerator(&p, g, logger)
		}
		if !p.hasReference() {
			global = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// PresetNames lists one entry per preset number, sorted by number. When a
// number exists in several banks the first header in the file wins.
func (sf *SoundFont) PresetNames() []PresetName {
	seen := map[int]bool{}
	var out []PresetName
	for _, k := range sf.presetOrder {
		if seen[k.number] {
			continue
		}
		seen[k.number] = true
		out = append(out, PresetName{Number: k.number, Bank: k.bank, Name: sf.presetIndex[k.number][k.bank].name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// PresetsByNumber resolves every bank's variant of a preset number, sorted
// by bank.
func (sf *SoundFont) PresetsByNumber(number int) []*Preset {
	banks := sf.presetIndex[number]
	keys := make([]int, 0, len(banks))
	for b := range banks {
		keys = append(keys, b)
	}
	sort.Ints(keys)
	out := make([]*Preset, 0, len(keys))
	for _, b := range keys {
		out = append(out, sf.Preset(number, b))
	}
	return out
}

// InstrumentNames lists instrument names in file order.
func (sf *SoundFont) InstrumentNames() []string {
	out := make([]string, len(sf.instIndex))
	for i, h := range sf.instIndex {
		out[i] = h.name
	}
	return out
}

// Samples returns every decoded sample, including the terminal EOS entry.
func (sf *SoundFont) Samples() []*Sample {
	return sf.samples
}

// Instruments resolves every instrument in file order.
func (sf *SoundFont) Instruments() []*Instrument {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	out := make([]*Instrument, len(sf.instIndex))
	for i := range sf.instIndex {
		out[i] = sf.instrumentLocked(i)
	}
	return out
}
