// Package sf2test writes small synthetic SF2 banks for tests.
package sf2test

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Generator ids used by the helpers below.
const (
	genInstrument = 41
	genKeyRange   = 43
	genVelRange   = 44
	genSampleID   = 53
)

// Gen is one generator record.
type Gen struct {
	ID     uint16
	Amount [2]byte
}

// G builds a generator with a signed word operand.
func G(id uint16, v int) Gen {
	var g Gen
	g.ID = id
	binary.LittleEndian.PutUint16(g.Amount[:], uint16(int16(v)))
	return g
}

// KeyRange builds a keyRange generator.
func KeyRange(lo, hi int) Gen {
	return Gen{ID: genKeyRange, Amount: [2]byte{byte(lo), byte(hi)}}
}

// VelRange builds a velRange generator.
func VelRange(lo, hi int) Gen {
	return Gen{ID: genVelRange, Amount: [2]byte{byte(lo), byte(hi)}}
}

// UseSample builds a sampleID generator.
func UseSample(i int) Gen { return G(genSampleID, i) }

// UseInstrument builds an instrument generator.
func UseInstrument(i int) Gen { return G(genInstrument, i) }

// Zone is an ordered generator list. A zone without UseSample/UseInstrument
// is a global zone.
type Zone []Gen

// Sample is one mono sample. Loop points are relative to the sample start.
type Sample struct {
	Name            string
	Data            []int16
	SampleRate      int
	RootKey         int
	PitchCorrection int
	LoopStart       int
	LoopEnd         int
}

// Instrument is a named zone list.
type Instrument struct {
	Name  string
	Zones []Zone
}

// Preset is a named zone list addressed by (Number, Bank).
type Preset struct {
	Name   string
	Number int
	Bank   int
	Zones  []Zone
}

// Bank describes a whole SF2 file.
type Bank struct {
	Name        string
	Samples     []Sample
	Instruments []Instrument
	Presets     []Preset
	// Omit lists chunk tags or list forms left out of the output.
	Omit []string
}

// samplePad is the number of zero frames written after every sample.
const samplePad = 46

// Sine returns n frames of a full-scale sine at freq Hz.
func Sine(n, sampleRate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// Bytes encodes the bank as a RIFF/sfbk image.
func (b *Bank) Bytes() []byte {
	var info [][]byte
	info = append(info, b.chunk("ifil", []byte{2, 0, 1, 0}))
	if b.Name != "" {
		info = append(info, b.chunk("INAM", zstr(b.Name)))
	}
	info = append(info, b.chunk("isng", zstr("EMU8000")))

	smpl, shdr := b.sampleChunks()
	pdta := [][]byte{
		b.chunk("phdr", b.presetHeaders()),
	}
	pbag, pgen := bagsAndGens(presetZones(b.Presets))
	ibag, igen := bagsAndGens(instrumentZones(b.Instruments))
	pdta = append(pdta,
		b.chunk("pbag", pbag),
		b.chunk("pmod", make([]byte, 10)),
		b.chunk("pgen", pgen),
		b.chunk("inst", b.instrumentHeaders()),
		b.chunk("ibag", ibag),
		b.chunk("imod", make([]byte, 10)),
		b.chunk("igen", igen),
		b.chunk("shdr", shdr),
	)

	return b.riff("RIFF", "sfbk",
		b.riff("LIST", "INFO", info...),
		b.riff("LIST", "sdta", b.chunk("smpl", smpl)),
		b.riff("LIST", "pdta", pdta...),
	)
}

func (b *Bank) omitted(tag string) bool {
	for _, o := range b.Omit {
		if o == tag {
			return true
		}
	}
	return false
}

// Chunk encodes a leaf chunk with word alignment padding.
func Chunk(tag string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// List encodes a container chunk.
func List(id, form string, children ...[]byte) []byte {
	body := []byte(form)
	for _, c := range children {
		body = append(body, c...)
	}
	return Chunk(id, body)
}

func (b *Bank) chunk(tag string, data []byte) []byte {
	if b.omitted(tag) {
		return nil
	}
	return Chunk(tag, data)
}

func (b *Bank) riff(id, form string, children ...[]byte) []byte {
	if b.omitted(form) {
		return nil
	}
	return List(id, form, children...)
}

func (b *Bank) sampleChunks() (smpl, shdr []byte) {
	var pcm, hdr bytes.Buffer
	frame := 0
	for _, s := range b.Samples {
		start := frame
		_ = binary.Write(&pcm, binary.LittleEndian, s.Data)
		_ = binary.Write(&pcm, binary.LittleEndian, make([]int16, samplePad))
		frame += len(s.Data) + samplePad
		rate := s.SampleRate
		if rate == 0 {
			rate = 44100
		}
		rec := struct {
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
		}{
			Name:            name20(s.Name),
			Start:           uint32(start),
			End:             uint32(start + len(s.Data)),
			StartLoop:       uint32(start + s.LoopStart),
			EndLoop:         uint32(start + s.LoopEnd),
			SampleRate:      uint32(rate),
			OriginalPitch:   uint8(s.RootKey),
			PitchCorrection: int8(s.PitchCorrection),
			SampleType:      1,
		}
		_ = binary.Write(&hdr, binary.LittleEndian, rec)
	}
	eos := make([]byte, 46)
	copy(eos, "EOS")
	hdr.Write(eos)
	return pcm.Bytes(), hdr.Bytes()
}

func (b *Bank) presetHeaders() []byte {
	var buf bytes.Buffer
	bag := 0
	write := func(name string, number, bank, bagIndex int) {
		n := name20(name)
		buf.Write(n[:])
		_ = binary.Write(&buf, binary.LittleEndian, []uint16{uint16(number), uint16(bank), uint16(bagIndex)})
		buf.Write(make([]byte, 12))
	}
	for _, p := range b.Presets {
		write(p.Name, p.Number, p.Bank, bag)
		bag += len(p.Zones)
	}
	write("EOP", 255, 255, bag)
	return buf.Bytes()
}

func (b *Bank) instrumentHeaders() []byte {
	var buf bytes.Buffer
	bag := 0
	write := func(name string, bagIndex int) {
		n := name20(name)
		buf.Write(n[:])
		_ = binary.Write(&buf, binary.LittleEndian, uint16(bagIndex))
	}
	for _, inst := range b.Instruments {
		write(inst.Name, bag)
		bag += len(inst.Zones)
	}
	write("EOI", bag)
	return buf.Bytes()
}

func presetZones(ps []Preset) []Zone {
	var out []Zone
	for _, p := range ps {
		out = append(out, p.Zones...)
	}
	return out
}

func instrumentZones(is []Instrument) []Zone {
	var out []Zone
	for _, inst := range is {
		out = append(out, inst.Zones...)
	}
	return out
}

// bagsAndGens flattens zones into bag and generator arrays, each closed by a
// terminal record.
func bagsAndGens(zones []Zone) (bags, gens []byte) {
	var bb, gb bytes.Buffer
	n := 0
	for _, z := range zones {
		_ = binary.Write(&bb, binary.LittleEndian, []uint16{uint16(n), 0})
		for _, g := range z {
			_ = binary.Write(&gb, binary.LittleEndian, g.ID)
			gb.Write(g.Amount[:])
			n++
		}
	}
	_ = binary.Write(&bb, binary.LittleEndian, []uint16{uint16(n), 0})
	gb.Write(make([]byte, 4))
	return bb.Bytes(), gb.Bytes()
}

func name20(s string) [20]byte {
	var n [20]byte
	copy(n[:19], s)
	return n
}

func zstr(s string) []byte {
	b := append([]byte(s), 0)
	if len(b)%2 == 1 {
		b = append(b, 0)
	}
	return b
}
