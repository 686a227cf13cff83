package main

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/sequencer"
)

// stream is the io.Reader oto pulls float32 frames from. Each read first
// schedules the events due before the end of the requested span.
type stream struct {
	ctx       *graph.Context
	lookahead float64

	mu   sync.Mutex
	seq  *sequencer.Sequencer
	buf  []float32
	done bool
}

func newStream(ctx *graph.Context, seq *sequencer.Sequencer, lookahead float64) *stream {
	return &stream{ctx: ctx, seq: seq, lookahead: lookahead}
}

func (s *stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if cap(s.buf) < frames {
		s.buf = make([]float32, frames)
	}
	block := s.buf[:frames]

	sr := float64(s.ctx.SampleRate())
	s.mu.Lock()
	s.seq.Advance(s.ctx.CurrentTime() + float64(frames)/sr + s.lookahead)
	s.mu.Unlock()

	s.ctx.Render(block)
	for i, v := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}

	s.mu.Lock()
	s.done = s.seq.Done() && s.ctx.Playing() == 0 && s.ctx.CurrentTime() > s.seq.End()
	s.mu.Unlock()
	return frames * 4, nil
}

func (s *stream) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
