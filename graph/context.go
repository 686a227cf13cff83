package graph

import (
	"log/slog"
	"sync"

	"github.com/cwbudde/algo-sf2/dsp"
)

// DefaultBlockSize is the number of frames rendered per processing quantum.
const DefaultBlockSize = 128

// Option configures a Context.
type Option func(*Context)

// WithBlockSize sets the processing quantum. Automation is sample accurate
// regardless; detune and filter settings update once per block.
func WithBlockSize(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithInterpolation selects linear (1) or cubic (3) buffer playback.
func WithInterpolation(order int) Option {
	return func(c *Context) {
		c.interp = dsp.NewLagrangeInterpolator(order)
	}
}

// WithLogger sets the logger used for graph diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// Context owns the clock and the destination of a graph. All methods are
// safe for concurrent use; Render may run on an audio goroutine while other
// goroutines schedule events.
type Context struct {
	mu         sync.Mutex
	sampleRate int
	blockSize  int
	frame      int64
	block      int64
	blockStart float64
	dest       *destinationNode
	interp     *dsp.LagrangeInterpolator
	logger     *slog.Logger

	playing int
	ended   []func()
}

// NewContext creates a mono render graph.
func NewContext(sampleRate int, opts ...Option) *Context {
	c := &Context{
		sampleRate: sampleRate,
		blockSize:  DefaultBlockSize,
		interp:     dsp.NewLagrangeInterpolator(3),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dest = &destinationNode{}
	c.dest.node = newNode(c, c.dest)
	return c
}

func (c *Context) SampleRate() int { return c.sampleRate }

// CurrentTime is the time of the next frame to be rendered, in seconds.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLocked()
}

func (c *Context) timeLocked() float64 {
	return float64(c.frame) / float64(c.sampleRate)
}

// Destination is the sink every audible chain ends in.
func (c *Context) Destination() Node { return c.dest }

// Playing reports how many buffer sources have started and not yet ended.
func (c *Context) Playing() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Render fills out with the next len(out) frames and advances the clock.
// Ended callbacks collected during the render run after the lock is
// released, so they may call back into the graph.
func (c *Context) Render(out []float32) {
	c.mu.Lock()
	for off := 0; off < len(out); off += c.blockSize {
		n := min(c.blockSize, len(out)-off)
		c.block++
		c.blockStart = c.timeLocked()
		copy(out[off:off+n], c.dest.pull(c.block, n))
		c.frame += int64(n)
	}
	ended := c.ended
	c.ended = nil
	c.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
}

func (c *Context) CreateBufferSource(buf *Buffer) BufferSource {
	s := &BufferSourceNode{
		buf:      buf,
		stopTime: inf,
	}
	s.node = newNode(c, s)
	s.rate = newParam(c, 1, 0, 1024)
	s.detune = newParam(c, 0, -1e5, 1e5)
	return s
}

func (c *Context) CreateGain() Gain {
	g := &GainNode{}
	g.node = newNode(c, g)
	g.gain = newParam(c, 1, -1e9, 1e9)
	return g
}

func (c *Context) CreateFilter() Filter {
	f := &FilterNode{kind: Lowpass}
	f.node = newNode(c, f)
	f.freq = newParam(c, float64(c.sampleRate)/2, 10, float64(c.sampleRate)/2)
	f.q = newParam(c, 0.7071067811865476, 1e-4, 1000)
	return f
}

func (c *Context) CreateConstantSource() ConstantSource {
	s := &ConstantSourceNode{stopTime: inf}
	s.node = newNode(c, s)
	s.offset = newParam(c, 1, -1e9, 1e9)
	return s
}
