package soundfont

import (
	"fmt"
	"log/slog"
)

// GeneratorID identifies the synthesis parameter a generator sets.
type GeneratorID uint16

const (
	GenStartAddrsOffset           GeneratorID = 0
	GenEndAddrsOffset             GeneratorID = 1
	GenStartloopAddrsOffset       GeneratorID = 2
	GenEndloopAddrsOffset         GeneratorID = 3
	GenStartAddrsCoarseOffset     GeneratorID = 4
	GenModLfoToPitch              GeneratorID = 5
	GenVibLfoToPitch              GeneratorID = 6
	GenModEnvToPitch              GeneratorID = 7
	GenInitialFilterFc            GeneratorID = 8
	GenInitialFilterQ             GeneratorID = 9
	GenModLfoToFilterFc           GeneratorID = 10
	GenModEnvToFilterFc           GeneratorID = 11
	GenEndAddrsCoarseOffset       GeneratorID = 12
	GenModLfoToVolume             GeneratorID = 13
	GenChorusEffectsSend          GeneratorID = 15
	GenReverbEffectsSend          GeneratorID = 16
	GenPan                        GeneratorID = 17
	GenDelayModLFO                GeneratorID = 21
	GenFreqModLFO                 GeneratorID = 22
	GenDelayVibLFO                GeneratorID = 23
	GenFreqVibLFO                 GeneratorID = 24
	GenDelayModEnv                GeneratorID = 25
	GenAttackModEnv               GeneratorID = 26
	GenHoldModEnv                 GeneratorID = 27
	GenDecayModEnv                GeneratorID = 28
	GenSustainModEnv              GeneratorID = 29
	GenReleaseModEnv              GeneratorID = 30
	GenKeynumToModEnvHold         GeneratorID = 31
	GenKeynumToModEnvDecay        GeneratorID = 32
	GenDelayVolEnv                GeneratorID = 33
	GenAttackVolEnv               GeneratorID = 34
	GenHoldVolEnv                 GeneratorID = 35
	GenDecayVolEnv                GeneratorID = 36
	GenSustainVolEnv              GeneratorID = 37
	GenReleaseVolEnv              GeneratorID = 38
	GenKeynumToVolEnvHold         GeneratorID = 39
	GenKeynumToVolEnvDecay        GeneratorID = 40
	GenInstrument                 GeneratorID = 41
	GenKeyRange                   GeneratorID = 43
	GenVelRange                   GeneratorID = 44
	GenStartloopAddrsCoarseOffset GeneratorID = 45
	GenKeynum                     GeneratorID = 46
	GenVelocity                   GeneratorID = 47
	GenInitialAttenuation         GeneratorID = 48
	GenEndloopAddrsCoarseOffset   GeneratorID = 50
	GenCoarseTune                 GeneratorID = 51
	GenFineTune                   GeneratorID = 52
	GenSampleID                   GeneratorID = 53
	GenSampleModes                GeneratorID = 54
	GenScaleTuning                GeneratorID = 56
	GenExclusiveClass             GeneratorID = 57
	GenOverridingRootKey          GeneratorID = 58
	GenEndOper                    GeneratorID = 60
)

var generatorNames = map[GeneratorID]string{
	GenStartAddrsOffset:           "startAddrsOffset",
	GenEndAddrsOffset:             "endAddrsOffset",
	GenStartloopAddrsOffset:       "startloopAddrsOffset",
	GenEndloopAddrsOffset:         "endloopAddrsOffset",
	GenStartAddrsCoarseOffset:     "startAddrsCoarseOffset",
	GenModLfoToPitch:              "modLfoToPitch",
	GenVibLfoToPitch:              "vibLfoToPitch",
	GenModEnvToPitch:              "modEnvToPitch",
	GenInitialFilterFc:            "initialFilterFc",
	GenInitialFilterQ:             "initialFilterQ",
	GenModLfoToFilterFc:           "modLfoToFilterFc",
	GenModEnvToFilterFc:           "modEnvToFilterFc",
	GenEndAddrsCoarseOffset:       "endAddrsCoarseOffset",
	GenModLfoToVolume:             "modLfoToVolume",
	GenChorusEffectsSend:          "chorusEffectsSend",
	GenReverbEffectsSend:          "reverbEffectsSend",
	GenPan:                        "pan",
	GenDelayModLFO:                "delayModLFO",
	GenFreqModLFO:                 "freqModLFO",
	GenDelayVibLFO:                "delayVibLFO",
	GenFreqVibLFO:                 "freqVibLFO",
	GenDelayModEnv:                "delayModEnv",
	GenAttackModEnv:               "attackModEnv",
	GenHoldModEnv:                 "holdModEnv",
	GenDecayModEnv:                "decayModEnv",
	GenSustainModEnv:              "sustainModEnv",
	GenReleaseModEnv:              "releaseModEnv",
	GenKeynumToModEnvHold:         "keynumToModEnvHold",
	GenKeynumToModEnvDecay:        "keynumToModEnvDecay",
	GenDelayVolEnv:                "delayVolEnv",
	GenAttackVolEnv:               "attackVolEnv",
	GenHoldVolEnv:                 "holdVolEnv",
	GenDecayVolEnv:                "decayVolEnv",
	GenSustainVolEnv:              "sustainVolEnv",
	GenReleaseVolEnv:              "releaseVolEnv",
	GenKeynumToVolEnvHold:         "keynumToVolEnvHold",
	GenKeynumToVolEnvDecay:        "keynumToVolEnvDecay",
	GenInstrument:                 "instrument",
	GenKeyRange:                   "keyRange",
	GenVelRange:                   "velRange",
	GenStartloopAddrsCoarseOffset: "startloopAddrsCoarseOffset",
	GenKeynum:                     "keynum",
	GenVelocity:                   "velocity",
	GenInitialAttenuation:         "initialAttenuation",
	GenEndloopAddrsCoarseOffset:   "endloopAddrsCoarseOffset",
	GenCoarseTune:                 "coarseTune",
	GenFineTune:                   "fineTune",
	GenSampleID:                   "sampleID",
	GenSampleModes:                "sampleModes",
	GenScaleTuning:                "scaleTuning",
	GenExclusiveClass:             "exclusiveClass",
	GenOverridingRootKey:          "overridingRootKey",
	GenEndOper:                    "endOper",
}

func (id GeneratorID) String() string {
	if name, ok := generatorNames[id]; ok {
		return name
	}
	return fmt.Sprintf("generator(%d)", uint16(id))
}

// ZoneKind tells applyGenerator which kind-specific generators to accept.
type ZoneKind int

const (
	PresetZoneKind ZoneKind = iota
	InstrumentZoneKind
)

func (k ZoneKind) String() string {
	if k == PresetZoneKind {
		return "preset"
	}
	return "instrument"
}

// terminal returns the generator that makes a zone non-global.
func (k ZoneKind) terminal() GeneratorID {
	if k == PresetZoneKind {
		return GenInstrument
	}
	return GenSampleID
}

// envelopeParams holds one envelope while generators are applied. Delay and
// attack stay in timecents until the zone is finalized.
type envelopeParams struct {
	delay   Timecents
	attack  Timecents
	hold    float64
	decay   float64
	sustain float64
	release float64
}

func defaultEnvelopeParams() envelopeParams {
	return envelopeParams{
		delay:   minTimecents,
		attack:  minTimecents,
		hold:    timecentsToSeconds(minTimecents),
		decay:   timecentsToSeconds(minTimecents),
		sustain: 1,
		release: timecentsToSeconds(minTimecents),
	}
}

func (p envelopeParams) envelope() Envelope {
	return Envelope{
		Delay:   p.delay.Seconds(),
		Attack:  p.attack.Seconds(),
		Hold:    p.hold,
		Decay:   p.decay,
		Sustain: p.sustain,
		Release: p.release,
		Scale:   1,
	}
}

// zoneParams is the value every zone is built from. Global zone inheritance
// is a plain struct copy.
type zoneParams struct {
	kind ZoneKind

	keyRange      Range
	velocityRange Range
	filterCutoff  *float64
	filterQ       float64
	volEnv        envelopeParams
	modEnv        envelopeParams
	vibLFO        LFO
	modLFO        LFO
	keyToVolEnv   KeyScaling
	keyToModEnv   KeyScaling
	coarseTune    int
	fineTune      int
	scaleTuning   int
	pan           float64
	chorusSend    float64
	reverbSend    float64
	attenuation   float64

	// instrument zones
	sampleIndex     int
	offsets         AddressOffsets
	sampleMode      SampleMode
	exclusiveClass  int
	rootKeyOverride int

	// preset zones
	instrumentIndex int
}

func defaultZoneParams(kind ZoneKind) zoneParams {
	return zoneParams{
		kind:            kind,
		keyRange:        FullRange,
		velocityRange:   FullRange,
		volEnv:          defaultEnvelopeParams(),
		modEnv:          defaultEnvelopeParams(),
		vibLFO:          LFO{Delay: timecentsToSeconds(minTimecents), Frequency: absoluteCentsToHz(0)},
		modLFO:          LFO{Delay: timecentsToSeconds(minTimecents), Frequency: absoluteCentsToHz(0)},
		keyToVolEnv:     KeyScaling{Hold: 1, Decay: 1},
		keyToModEnv:     KeyScaling{Hold: 1, Decay: 1},
		scaleTuning:     100,
		sampleIndex:     -1,
		rootKeyOverride: -1,
		instrumentIndex: -1,
	}
}

// hasReference reports whether the zone names its instrument or sample.
func (p *zoneParams) hasReference() bool {
	if p.kind == PresetZoneKind {
		return p.instrumentIndex >= 0
	}
	return p.sampleIndex >= 0
}

// applyGenerator writes one generator onto p, converting raw units. Unknown
// or misplaced generators are logged and leave p unchanged.
func applyGenerator(p *zoneParams, g Generator, logger *slog.Logger) {
	if p.kind == InstrumentZoneKind && applyInstrumentGenerator(p, g, logger) {
		return
	}
	if p.kind == PresetZoneKind && g.ID == GenInstrument {
		p.instrumentIndex = int(g.Amount.Uint16())
		return
	}

	raw := int(g.Amount.Int16())
	switch g.ID {
	case GenKeyRange:
		p.keyRange = g.Amount.Range()
	case GenVelRange:
		p.velocityRange = g.Amount.Range()
	case GenInitialFilterFc:
		hz := absoluteCentsToHz(float64(clampInt(raw, 1500, 13500)))
		p.filterCutoff = &hz
	case GenInitialFilterQ:
		p.filterQ = float64(clampInt(int(g.Amount.Uint16()), 0, 960))
	case GenDelayVibLFO:
		p.vibLFO.Delay = timecentsToSeconds(float64(raw))
	case GenFreqVibLFO:
		p.vibLFO.Frequency = absoluteCentsToHz(float64(raw))
	case GenDelayModLFO:
		p.modLFO.Delay = timecentsToSeconds(float64(raw))
	case GenFreqModLFO:
		p.modLFO.Frequency = absoluteCentsToHz(float64(raw))
	case GenDelayVolEnv:
		p.volEnv.delay = Timecents(raw)
	case GenAttackVolEnv:
		p.volEnv.attack = Timecents(raw)
	case GenHoldVolEnv:
		p.volEnv.hold = timecentsToSeconds(float64(raw))
	case GenDecayVolEnv:
		p.volEnv.decay = timecentsToSeconds(float64(raw))
	case GenReleaseVolEnv:
		p.volEnv.release = timecentsToSeconds(float64(raw))
	case GenSustainVolEnv:
		p.volEnv.sustain = centibelsToGain(float64(clampInt(int(g.Amount.Uint16()), 0, 1440)))
	case GenDelayModEnv:
		p.modEnv.delay = Timecents(raw)
	case GenAttackModEnv:
		p.modEnv.attack = Timecents(raw)
	case GenHoldModEnv:
		p.modEnv.hold = timecentsToSeconds(float64(raw))
	case GenDecayModEnv:
		p.modEnv.decay = timecentsToSeconds(float64(raw))
	case GenReleaseModEnv:
		p.modEnv.release = timecentsToSeconds(float64(raw))
	case GenSustainModEnv:
		p.modEnv.sustain = 1 - float64(clampInt(int(g.Amount.Uint16()), 0, 1000))/1000
	case GenKeynumToVolEnvHold:
		p.keyToVolEnv.Hold = keyScaling(raw)
	case GenKeynumToVolEnvDecay:
		p.keyToVolEnv.Decay = keyScaling(raw)
	case GenKeynumToModEnvHold:
		p.keyToModEnv.Hold = keyScaling(raw)
	case GenKeynumToModEnvDecay:
		p.keyToModEnv.Decay = keyScaling(raw)
	case GenCoarseTune:
		p.coarseTune = clampInt(raw, -120, 120)
	case GenFineTune:
		p.fineTune = clampInt(raw, -99, 99)
	case GenScaleTuning:
		p.scaleTuning = clampInt(raw, 0, 1200)
	case GenChorusEffectsSend:
		p.chorusSend = float64(clampInt(int(g.Amount.Uint16()), 0, 1000)) / 1000
	case GenReverbEffectsSend:
		p.reverbSend = float64(clampInt(int(g.Amount.Uint16()), 0, 1000)) / 1000
	case GenPan:
		p.pan = float64(clampInt(raw, -500, 500)) / 1000
	case GenInitialAttenuation:
		p.attenuation = float64(clampInt(int(g.Amount.Uint16()), 0, 1440)) / 10
	default:
		logger.Debug("soundfont: ignoring generator", "zone", p.kind.String(), "generator", g.ID.String(), "amount", raw)
	}
}

// applyInstrumentGenerator handles the generators only instrument zones
// carry. It reports whether g was consumed.
func applyInstrumentGenerator(p *zoneParams, g Generator, logger *slog.Logger) bool {
	raw := int(g.Amount.Int16())
	switch g.ID {
	case GenSampleID:
		p.sampleIndex = int(g.Amount.Uint16())
	case GenSampleModes:
		mode := SampleMode(g.Amount.Uint16() & 3)
		if mode == 2 {
			logger.Warn("soundfont: unused sample mode, keeping previous", "mode", int(mode))
			return true
		}
		p.sampleMode = mode
	case GenStartAddrsOffset:
		p.offsets.Start.Fine = raw
	case GenEndAddrsOffset:
		p.offsets.End.Fine = raw
	case GenStartloopAddrsOffset:
		p.offsets.LoopStart.Fine = raw
	case GenEndloopAddrsOffset:
		p.offsets.LoopEnd.Fine = raw
	case GenStartAddrsCoarseOffset:
		p.offsets.Start.Coarse = raw
	case GenEndAddrsCoarseOffset:
		p.offsets.End.Coarse = raw
	case GenStartloopAddrsCoarseOffset:
		p.offsets.LoopStart.Coarse = raw
	case GenEndloopAddrsCoarseOffset:
		p.offsets.LoopEnd.Coarse = raw
	case GenExclusiveClass:
		p.exclusiveClass = int(g.Amount.Uint16())
	case GenOverridingRootKey:
		if raw < 0 {
			// -1 means "use the sample's root key".
			p.rootKeyOverride = -1
			return true
		}
		p.rootKeyOverride = clampInt(raw, 0, 127)
	default:
		return false
	}
	return true
}

func keyScaling(raw int) float64 {
	return 1 / timecentsToSeconds(float64(clampInt(raw, -1200, 1200)))
}
