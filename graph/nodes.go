package graph

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/cwbudde/algo-sf2/dsp"
)

var inf = math.Inf(1)

type processor interface {
	process(in, out []float32, start float64, block int64)
}

// node holds the connections and per-block output cache shared by every
// node type.
type node struct {
	ctx      *Context
	proc     processor
	inputs   []*node
	outputs  []*node
	params   []*AudioParam
	buf      []float32
	mix      []float32
	rendered int64
}

func newNode(ctx *Context, proc processor) *node {
	return &node{ctx: ctx, proc: proc}
}

func (n *node) base() *node { return n }

type hasBase interface{ base() *node }

func (n *node) Connect(dst Node) {
	b, ok := dst.(hasBase)
	if !ok || b.base().ctx != n.ctx {
		panic("graph: connecting nodes of different contexts")
	}
	d := b.base()
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	d.inputs = append(d.inputs, n)
	n.outputs = append(n.outputs, d)
}

func (n *node) ConnectParam(dst Param) {
	p, ok := dst.(*AudioParam)
	if !ok || p.ctx != n.ctx {
		panic("graph: connecting a param of a different context")
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	p.inputs = append(p.inputs, n)
	n.params = append(n.params, p)
}

// Disconnect removes every outgoing connection of the node.
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, d := range n.outputs {
		for i, in := range d.inputs {
			if in == n {
				d.inputs = append(d.inputs[:i], d.inputs[i+1:]...)
				break
			}
		}
	}
	for _, p := range n.params {
		p.removeInput(n)
	}
	n.outputs = nil
	n.params = nil
}

// DisconnectParam removes the connection into dst only.
func (n *node) DisconnectParam(dst Param) {
	p, ok := dst.(*AudioParam)
	if !ok {
		return
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	p.removeInput(n)
	for i, q := range n.params {
		if q == p {
			n.params = append(n.params[:i], n.params[i+1:]...)
			break
		}
	}
}

// pull renders the node for block at most once and returns its output.
func (n *node) pull(block int64, frames int) []float32 {
	if cap(n.buf) < frames {
		n.buf = make([]float32, frames)
	}
	out := n.buf[:frames]
	if n.rendered == block {
		return out
	}
	n.rendered = block

	var in []float32
	if len(n.inputs) > 0 {
		if cap(n.mix) < frames {
			n.mix = make([]float32, frames)
		}
		in = n.mix[:frames]
		clear(in)
		for _, src := range n.inputs {
			for i, v := range src.pull(block, frames) {
				in[i] += v
			}
		}
	}
	n.proc.process(in, out, n.ctx.blockStart, block)
	return out
}

type destinationNode struct {
	*node
}

func (d *destinationNode) process(in, out []float32, _ float64, _ int64) {
	if in == nil {
		clear(out)
		return
	}
	copy(out, in)
}

// GainNode scales its input by an a-rate gain.
type GainNode struct {
	*node
	gain  *AudioParam
	gains []float64
}

func (g *GainNode) Gain() Param { return g.gain }

func (g *GainNode) process(in, out []float32, start float64, block int64) {
	if in == nil {
		clear(out)
		return
	}
	if cap(g.gains) < len(out) {
		g.gains = make([]float64, len(out))
	}
	gains := g.gains[:len(out)]
	g.gain.prune(start)
	g.gain.fill(gains, start, block)
	for i := range out {
		out[i] = float32(float64(in[i]) * gains[i])
	}
}

// FilterNode is a biquad stage. Frequency and Q are read once per block.
type FilterNode struct {
	*node
	kind    FilterType
	freq    *AudioParam
	q       *AudioParam
	section *biquad.Section
	lastF   float64
	lastQ   float64
}

func (f *FilterNode) SetType(t FilterType) {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.kind = t
	f.section = nil
}

func (f *FilterNode) Frequency() Param { return f.freq }
func (f *FilterNode) Q() Param         { return f.q }

func (f *FilterNode) process(in, out []float32, start float64, block int64) {
	if f.kind == Passthrough {
		if in == nil {
			clear(out)
		} else {
			copy(out, in)
		}
		return
	}
	f.freq.prune(start)
	f.q.prune(start)
	freq := f.freq.first(start, block, len(out))
	q := f.q.first(start, block, len(out))
	if f.section == nil || freq != f.lastF || q != f.lastQ {
		f.section = biquad.NewSection(dsp.LowpassCoefficients(freq, q, float64(f.ctx.sampleRate)))
		f.lastF, f.lastQ = freq, q
	}
	for i := range out {
		var x float64
		if in != nil {
			x = float64(in[i])
		}
		out[i] = float32(core.FlushDenormals(f.section.ProcessSample(x)))
	}
}

// BufferSourceNode plays a Buffer with interpolation.
type BufferSourceNode struct {
	*node
	buf       *Buffer
	rate      *AudioParam
	detune    *AudioParam
	loop      bool
	loopStart int
	loopEnd   int
	startTime float64
	stopTime  float64
	started   bool
	ended     bool
	pos       float64
	onEnded   func()
}

func (s *BufferSourceNode) Detune() Param       { return s.detune }
func (s *BufferSourceNode) PlaybackRate() Param { return s.rate }

func (s *BufferSourceNode) SetLoop(loop bool, start, end int) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	n := 0
	if s.buf != nil {
		n = len(s.buf.Data)
	}
	s.loop = loop
	s.loopStart = max(0, min(start, n))
	s.loopEnd = max(s.loopStart, min(end, n))
}

// Start schedules playback. Only the first call has an effect.
func (s *BufferSourceNode) Start(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.startTime = t
	s.ctx.playing++
}

// Stop schedules the end of playback. Later calls move the stop time.
func (s *BufferSourceNode) Stop(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.stopTime = t
}

func (s *BufferSourceNode) OnEnded(fn func()) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.onEnded = fn
}

func (s *BufferSourceNode) finish() {
	if s.ended {
		return
	}
	s.ended = true
	s.ctx.playing--
	if s.onEnded != nil {
		s.ctx.ended = append(s.ctx.ended, s.onEnded)
	}
}

func (s *BufferSourceNode) process(_, out []float32, start float64, block int64) {
	clear(out)
	if !s.started || s.ended {
		return
	}
	if s.buf == nil || len(s.buf.Data) == 0 || s.buf.SampleRate <= 0 {
		s.finish()
		return
	}
	sr := float64(s.ctx.sampleRate)
	s.rate.prune(start)
	s.detune.prune(start)
	step := s.rate.first(start, block, len(out)) *
		dsp.CentsToRatio(s.detune.first(start, block, len(out))) *
		float64(s.buf.SampleRate) / sr

	looping := s.loop && s.loopEnd > s.loopStart
	loopLen := float64(s.loopEnd - s.loopStart)
	n := len(s.buf.Data)
	for i := range out {
		t := start + float64(i)/sr
		if t >= s.stopTime {
			s.finish()
			return
		}
		if t < s.startTime {
			continue
		}
		if looping {
			for s.pos >= float64(s.loopEnd) {
				s.pos -= loopLen
			}
		} else if s.pos >= float64(n) {
			s.finish()
			return
		}
		idx := int(s.pos)
		out[i] = s.ctx.interp.Interpolate(s.window(idx, looping), float32(s.pos-float64(idx)))
		s.pos += step
	}
}

// window gathers the four frames around idx, wrapping at the loop end when
// looping and reading silence past the buffer otherwise.
func (s *BufferSourceNode) window(idx int, looping bool) [4]float32 {
	var w [4]float32
	data := s.buf.Data
	for k := range w {
		j := idx - 1 + k
		if looping && j >= s.loopEnd {
			j -= s.loopEnd - s.loopStart
		}
		if j >= 0 && j < len(data) {
			w[k] = data[j]
		}
	}
	return w
}

// ConstantSourceNode outputs its offset param.
type ConstantSourceNode struct {
	*node
	offset    *AudioParam
	startTime float64
	stopTime  float64
	started   bool
	values    []float64
}

func (s *ConstantSourceNode) Offset() Param { return s.offset }

func (s *ConstantSourceNode) Start(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.started = true
	s.startTime = t
}

func (s *ConstantSourceNode) Stop(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.stopTime = t
}

func (s *ConstantSourceNode) process(_, out []float32, start float64, block int64) {
	if !s.started {
		clear(out)
		return
	}
	if cap(s.values) < len(out) {
		s.values = make([]float64, len(out))
	}
	vals := s.values[:len(out)]
	s.offset.prune(start)
	s.offset.fill(vals, start, block)
	sr := float64(s.ctx.sampleRate)
	for i := range out {
		t := start + float64(i)/sr
		if t < s.startTime || t >= s.stopTime {
			out[i] = 0
			continue
		}
		out[i] = float32(vals[i])
	}
}
