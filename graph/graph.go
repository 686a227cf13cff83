// Package graph is a block-rendered audio node graph with sample-accurate
// parameter automation. Nodes pull from their inputs once per block; every
// schedule is expressed in seconds on the context clock.
package graph

// Buffer is mono PCM at its own sample rate.
type Buffer struct {
	Data       []float32
	SampleRate int
}

// Duration is the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.SampleRate)
}

// Param is an automatable value. Connected nodes are summed onto the
// scheduled value.
type Param interface {
	Value() float64
	SetValueAtTime(value, t float64)
	LinearRampToValueAtTime(value, t float64)
	SetTargetAtTime(target, t, timeConstant float64)
	CancelScheduledValues(t float64)
}

// Node is a processing stage.
type Node interface {
	Connect(dst Node)
	ConnectParam(dst Param)
	DisconnectParam(dst Param)
	Disconnect()
}

// BufferSource plays a Buffer once or looped.
type BufferSource interface {
	Node
	Detune() Param
	PlaybackRate() Param
	// SetLoop enables looping between frame indices of the buffer.
	SetLoop(loop bool, start, end int)
	Start(t float64)
	Stop(t float64)
	// OnEnded registers fn to run once playback has finished. fn runs
	// outside the render lock.
	OnEnded(fn func())
}

// Gain multiplies its input.
type Gain interface {
	Node
	Gain() Param
}

// FilterType selects a Filter response.
type FilterType int

const (
	Lowpass FilterType = iota
	Passthrough
)

func (f FilterType) String() string {
	if f == Lowpass {
		return "lowpass"
	}
	return "passthrough"
}

// Filter is a second-order filter stage. Q is linear.
type Filter interface {
	Node
	SetType(FilterType)
	Frequency() Param
	Q() Param
}

// ConstantSource outputs its offset value.
type ConstantSource interface {
	Node
	Offset() Param
	Start(t float64)
	Stop(t float64)
}

// Host creates nodes and reports the clock.
type Host interface {
	CurrentTime() float64
	SampleRate() int
	Destination() Node
	CreateBufferSource(buf *Buffer) BufferSource
	CreateGain() Gain
	CreateFilter() Filter
	CreateConstantSource() ConstantSource
}
