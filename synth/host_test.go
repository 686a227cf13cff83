package synth

import (
	"github.com/cwbudde/algo-sf2/graph"
)

// recordingHost is a graph.Host that records every node and schedule call
// instead of rendering.
type recordingHost struct {
	now       float64
	dest      *fakeNode
	sources   []*fakeSource
	gains     []*fakeGain
	filters   []*fakeFilter
	constants []*fakeConstant
}

func newRecordingHost() *recordingHost {
	return &recordingHost{dest: &fakeNode{name: "destination"}}
}

func (h *recordingHost) CurrentTime() float64    { return h.now }
func (h *recordingHost) SampleRate() int         { return 44100 }
func (h *recordingHost) Destination() graph.Node { return h.dest }

func (h *recordingHost) CreateBufferSource(buf *graph.Buffer) graph.BufferSource {
	s := &fakeSource{fakeNode: fakeNode{name: "source"}, buf: buf, detune: &fakeParam{}, rate: &fakeParam{value: 1}, stop: -1}
	h.sources = append(h.sources, s)
	return s
}

func (h *recordingHost) CreateGain() graph.Gain {
	g := &fakeGain{fakeNode: fakeNode{name: "gain"}, gain: &fakeParam{value: 1}}
	h.gains = append(h.gains, g)
	return g
}

func (h *recordingHost) CreateFilter() graph.Filter {
	f := &fakeFilter{fakeNode: fakeNode{name: "filter"}, freq: &fakeParam{}, q: &fakeParam{}}
	h.filters = append(h.filters, f)
	return f
}

func (h *recordingHost) CreateConstantSource() graph.ConstantSource {
	c := &fakeConstant{fakeNode: fakeNode{name: "constant"}, offset: &fakeParam{}}
	h.constants = append(h.constants, c)
	return c
}

type paramEvent struct {
	kind  string
	value float64
	time  float64
}

type fakeParam struct {
	value  float64
	events []paramEvent
	inputs []*fakeNode
}

func (p *fakeParam) Value() float64 { return p.value }

func (p *fakeParam) SetValueAtTime(v, t float64) {
	p.events = append(p.events, paramEvent{"set", v, t})
}

func (p *fakeParam) LinearRampToValueAtTime(v, t float64) {
	p.events = append(p.events, paramEvent{"ramp", v, t})
}

func (p *fakeParam) SetTargetAtTime(v, t, _ float64) {
	p.events = append(p.events, paramEvent{"target", v, t})
}

func (p *fakeParam) CancelScheduledValues(t float64) {
	p.events = append(p.events, paramEvent{"cancel", 0, t})
}

// last returns the most recent event of kind, or false.
func (p *fakeParam) last(kind string) (paramEvent, bool) {
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].kind == kind {
			return p.events[i], true
		}
	}
	return paramEvent{}, false
}

type fakeNode struct {
	name         string
	outputs      []graph.Node
	params       []graph.Param
	disconnected bool
}

func (n *fakeNode) Connect(dst graph.Node) { n.outputs = append(n.outputs, dst) }

func (n *fakeNode) ConnectParam(dst graph.Param) {
	n.params = append(n.params, dst)
	if p, ok := dst.(*fakeParam); ok {
		p.inputs = append(p.inputs, n)
	}
}

func (n *fakeNode) DisconnectParam(dst graph.Param) {
	for i, p := range n.params {
		if p == dst {
			n.params = append(n.params[:i], n.params[i+1:]...)
			break
		}
	}
	if p, ok := dst.(*fakeParam); ok {
		for i, in := range p.inputs {
			if in == n {
				p.inputs = append(p.inputs[:i], p.inputs[i+1:]...)
				break
			}
		}
	}
}

func (n *fakeNode) Disconnect() {
	n.outputs = nil
	n.params = nil
	n.disconnected = true
}

type fakeSource struct {
	fakeNode
	buf       *graph.Buffer
	detune    *fakeParam
	rate      *fakeParam
	loop      bool
	loopStart int
	loopEnd   int
	start     float64
	started   bool
	stop      float64
	onEnded   func()
}

func (s *fakeSource) Detune() graph.Param       { return s.detune }
func (s *fakeSource) PlaybackRate() graph.Param { return s.rate }
func (s *fakeSource) SetLoop(loop bool, start, end int) {
	s.loop, s.loopStart, s.loopEnd = loop, start, end
}
func (s *fakeSource) Start(t float64)   { s.start, s.started = t, true }
func (s *fakeSource) Stop(t float64)    { s.stop = t }
func (s *fakeSource) OnEnded(fn func()) { s.onEnded = fn }

// chain follows the source through its filter to the unit gain.
func (s *fakeSource) chain() (*fakeFilter, *fakeGain) {
	f := s.outputs[0].(*fakeFilter)
	g := f.outputs[0].(*fakeGain)
	return f, g
}

type fakeGain struct {
	fakeNode
	gain *fakeParam
}

func (g *fakeGain) Gain() graph.Param { return g.gain }

type fakeFilter struct {
	fakeNode
	kind graph.FilterType
	freq *fakeParam
	q    *fakeParam
}

func (f *fakeFilter) SetType(t graph.FilterType) { f.kind = t }
func (f *fakeFilter) Frequency() graph.Param     { return f.freq }
func (f *fakeFilter) Q() graph.Param             { return f.q }

type fakeConstant struct {
	fakeNode
	offset  *fakeParam
	started bool
}

func (c *fakeConstant) Offset() graph.Param { return c.offset }
func (c *fakeConstant) Start(float64)       { c.started = true }
func (c *fakeConstant) Stop(float64)        {}
