package soundfont

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	"github.com/pkg/errors"
)

var (
	formSFBK = fourCC("sfbk")
	formINFO = fourCC("INFO")
	formSDTA = fourCC("sdta")
	formPDTA = fourCC("pdta")

	tagSMPL = fourCC("smpl")
	tagSM24 = fourCC("sm24")
	tagPHDR = fourCC("phdr")
	tagPBAG = fourCC("pbag")
	tagPMOD = fourCC("pmod")
	tagPGEN = fourCC("pgen")
	tagINST = fourCC("inst")
	tagIBAG = fourCC("ibag")
	tagIMOD = fourCC("imod")
	tagIGEN = fourCC("igen")
	tagSHDR = fourCC("shdr")
)

// PresetHeader is one phdr record. The last header of a bank is a sentinel
// that only bounds the zone slice of the one before it.
type PresetHeader struct {
	Name       string
	Preset     int
	Bank       int
	BagIndex   int
	Library    uint32
	Genre      uint32
	Morphology uint32
}

// InstrumentHeader is one inst record.
type InstrumentHeader struct {
	Name     string
	BagIndex int
}

// Bag links a zone to the start of its generator and modulator lists.
type Bag struct {
	GenIndex int
	ModIndex int
}

// Modulator is one pmod/imod record. Modulators are decoded but not applied.
type Modulator struct {
	Source          uint16
	Destination     GeneratorID
	Amount          int16
	AmountSource    uint16
	TransformAmount uint16
}

// Generator is one pgen/igen record.
type Generator struct {
	ID     GeneratorID
	Amount GenAmount
}

// GenAmount is the two byte generator operand. Its interpretation depends
// on the generator.
type GenAmount [2]byte

// Int16 reads the operand as a signed word.
func (a GenAmount) Int16() int16 { return int16(binary.LittleEndian.Uint16(a[:])) }

// Uint16 reads the operand as an unsigned word.
func (a GenAmount) Uint16() uint16 { return binary.LittleEndian.Uint16(a[:]) }

// Range reads the operand as a low/high byte pair.
func (a GenAmount) Range() Range { return Range{Min: int(a[0]), Max: int(a[1])} }

// SampleHeader is one shdr record. Offsets index the shared PCM blob.
type SampleHeader struct {
	Name            string
	Start           int
	End             int
	StartLoop       int
	EndLoop         int
	SampleRate      int
	OriginalPitch   int
	PitchCorrection int
	SampleLink      int
	SampleType      int
}

// Records is the decoded pdta/sdta content of a bank.
type Records struct {
	Info                 Info
	PresetHeaders        []PresetHeader
	PresetBags           []Bag
	PresetModulators     []Modulator
	PresetGenerators     []Generator
	InstrumentHeaders    []InstrumentHeader
	InstrumentBags       []Bag
	InstrumentModulators []Modulator
	InstrumentGenerators []Generator
	SampleHeaders        []SampleHeader
	// SampleData is the whole smpl blob normalized to -1..1.
	SampleData []float32
}

// on-disk record layouts, read with encoding/binary.
type (
	rawPresetHeader struct {
		Name       [20]byte
		Preset     uint16
		Bank       uint16
		BagIndex   uint16
		Library    uint32
		Genre      uint32
		Morphology uint32
	}
	rawBag struct {
		GenIndex uint16
		ModIndex uint16
	}
	rawModulator struct {
		Source          uint16
		Destination     uint16
		Amount          int16
		AmountSource    uint16
		TransformAmount uint16
	}
	rawGenerator struct {
		ID     uint16
		Amount [2]byte
	}
	rawInstrumentHeader struct {
		Name     [20]byte
		BagIndex uint16
	}
	rawSampleHeader struct {
		Name            [20]byte
		Start           uint32
		End             uint32
		StartLoop       uint32
		EndLoop         uint32
		SampleRate      uint32
		OriginalPitch   uint8
		PitchCorrection int8
		SampleLink      uint16
		SampleType      uint16
	}
)

// Decode reinterprets a parsed sfbk tree as record arrays.
func Decode(root *Chunk, logger *slog.Logger) (*Records, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if root.ID != idRIFF || root.Form != formSFBK {
		return nil, errors.Wrapf(ErrMalformed, "root is %s/%s, want RIFF/sfbk", root.ID, root.Form)
	}
	rec := &Records{}

	if info := root.List(formINFO); info != nil {
		rec.Info = decodeInfo(info, logger)
	} else {
		logger.Warn("soundfont: INFO list missing")
	}

	sdta := root.List(formSDTA)
	if sdta == nil {
		return nil, errors.Wrap(ErrMissingChunk, "sdta list")
	}
	if err := rec.decodeSampleData(sdta, logger); err != nil {
		return nil, err
	}

	pdta := root.List(formPDTA)
	if pdta == nil {
		return nil, errors.Wrap(ErrMissingChunk, "pdta list")
	}
	seen := map[FourCC]bool{}
	for _, ch := range pdta.Children {
		var err error
		switch ch.ID {
		case tagPHDR:
			rec.PresetHeaders, err = decodeArray(ch, func(r rawPresetHeader) PresetHeader {
				return PresetHeader{
					Name:       cString(r.Name[:]),
					Preset:     int(r.Preset),
					Bank:       int(r.Bank),
					BagIndex:   int(r.BagIndex),
					Library:    r.Library,
					Genre:      r.Genre,
					Morphology: r.Morphology,
				}
			})
		case tagPBAG:
			rec.PresetBags, err = decodeArray(ch, convertBag)
		case tagPMOD:
			rec.PresetModulators, err = decodeArray(ch, convertModulator)
		case tagPGEN:
			rec.PresetGenerators, err = decodeArray(ch, convertGenerator)
		case tagINST:
			rec.InstrumentHeaders, err = decodeArray(ch, func(r rawInstrumentHeader) InstrumentHeader {
				return InstrumentHeader{Name: cString(r.Name[:]), BagIndex: int(r.BagIndex)}
			})
		case tagIBAG:
			rec.InstrumentBags, err = decodeArray(ch, convertBag)
		case tagIMOD:
			rec.InstrumentModulators, err = decodeArray(ch, convertModulator)
		case tagIGEN:
			rec.InstrumentGenerators, err = decodeArray(ch, convertGenerator)
		case tagSHDR:
			rec.SampleHeaders, err = decodeArray(ch, func(r rawSampleHeader) SampleHeader {
				return SampleHeader{
					Name:            cString(r.Name[:]),
					Start:           int(r.Start),
					End:             int(r.End),
					StartLoop:       int(r.StartLoop),
					EndLoop:         int(r.EndLoop),
					SampleRate:      int(r.SampleRate),
					OriginalPitch:   int(r.OriginalPitch),
					PitchCorrection: int(r.PitchCorrection),
					SampleLink:      int(r.SampleLink),
					SampleType:      int(r.SampleType),
				}
			})
		default:
			logger.Warn("soundfont: skipping unknown pdta chunk", "tag", ch.ID.String(), "bytes", len(ch.Data))
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[ch.ID] = true
	}

	for _, tag := range []FourCC{tagPHDR, tagPBAG, tagPMOD, tagPGEN, tagINST, tagIBAG, tagIMOD, tagIGEN, tagSHDR} {
		if !seen[tag] {
			return nil, errors.Wrapf(ErrMissingChunk, "pdta/%s", tag)
		}
	}
	return rec, nil
}

func (rec *Records) decodeSampleData(sdta *Chunk, logger *slog.Logger) error {
	smpl := sdta.Child(tagSMPL)
	if smpl == nil {
		return errors.Wrap(ErrMissingChunk, "sdta/smpl")
	}
	if len(smpl.Data)%2 != 0 {
		return errors.Wrapf(ErrMalformed, "smpl has odd length %d", len(smpl.Data))
	}
	n := len(smpl.Data) / 2
	var lsb []byte
	if sm24 := sdta.Child(tagSM24); sm24 != nil {
		// sm24 may carry one pad byte.
		if len(sm24.Data) == n || len(sm24.Data) == n+1 {
			lsb = sm24.Data[:n]
		} else {
			logger.Warn("soundfont: ignoring sm24 of mismatched length", "want", n, "got", len(sm24.Data))
		}
	}
	rec.SampleData = make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(smpl.Data[i*2:]))
		if lsb != nil {
			v := int32(s)<<8 | int32(lsb[i])
			rec.SampleData[i] = float32(v) / 8388608
			continue
		}
		rec.SampleData[i] = float32(s) / 32768
	}
	for _, ch := range sdta.Children {
		if ch.ID != tagSMPL && ch.ID != tagSM24 {
			logger.Warn("soundfont: skipping unknown sdta chunk", "tag", ch.ID.String())
		}
	}
	return nil
}

// decodeArray reads fixed-width records of type R until the payload is
// exhausted and converts each one.
func decodeArray[R any, T any](ch *Chunk, convert func(R) T) ([]T, error) {
	var zero R
	size := binary.Size(zero)
	if len(ch.Data)%size != 0 {
		return nil, errors.Wrapf(ErrTruncated, "%s: %d bytes is not a multiple of %d", ch.ID, len(ch.Data), size)
	}
	out := make([]T, 0, len(ch.Data)/size)
	rdr := bytes.NewReader(ch.Data)
	for rdr.Len() > 0 {
		var r R
		if err := binary.Read(rdr, binary.LittleEndian, &r); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "%s record %d: %v", ch.ID, len(out), err)
		}
		out = append(out, convert(r))
	}
	return out, nil
}

func convertBag(r rawBag) Bag {
	return Bag{GenIndex: int(r.GenIndex), ModIndex: int(r.ModIndex)}
}

func convertModulator(r rawModulator) Modulator {
	return Modulator{
		Source:          r.Source,
		Destination:     GeneratorID(r.Destination),
		Amount:          r.Amount,
		AmountSource:    r.AmountSource,
		TransformAmount: r.TransformAmount,
	}
}

func convertGenerator(r rawGenerator) Generator {
	return Generator{ID: GeneratorID(r.ID), Amount: r.Amount}
}

// cString returns the bytes up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
