package graph

import (
	"math"
	"sort"
)

type eventKind int

const (
	setValue eventKind = iota
	linearRamp
	setTarget
)

type automationEvent struct {
	kind         eventKind
	time         float64
	value        float64
	timeConstant float64
}

// AudioParam is the Param implementation of Context.
type AudioParam struct {
	ctx          *Context
	defaultValue float64
	min, max     float64
	events       []automationEvent
	inputs       []*node
}

func newParam(ctx *Context, value, lo, hi float64) *AudioParam {
	return &AudioParam{ctx: ctx, defaultValue: value, min: lo, max: hi}
}

// Value returns the scheduled value at the current time, without inputs.
func (p *AudioParam) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(p.ctx.timeLocked())
}

func (p *AudioParam) SetValueAtTime(value, t float64) {
	p.insert(automationEvent{kind: setValue, time: t, value: value})
}

func (p *AudioParam) LinearRampToValueAtTime(value, t float64) {
	p.insert(automationEvent{kind: linearRamp, time: t, value: value})
}

func (p *AudioParam) SetTargetAtTime(target, t, timeConstant float64) {
	if timeConstant <= 0 {
		p.SetValueAtTime(target, t)
		return
	}
	p.insert(automationEvent{kind: setTarget, time: t, value: target, timeConstant: timeConstant})
}

// CancelScheduledValues drops every event at or after t.
func (p *AudioParam) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

func (p *AudioParam) insert(e automationEvent) {
	if math.IsNaN(e.time) || math.IsNaN(e.value) {
		return
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	// events at equal times keep insertion order
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// valueAt evaluates the automation timeline at t.
func (p *AudioParam) valueAt(t float64) float64 {
	v := p.defaultValue
	prevTime := 0.0
	var target *automationEvent

	for i := range p.events {
		e := &p.events[i]
		if e.time > t {
			if e.kind == linearRamp {
				// a ramp starts from the previous event's value and time; a
				// pending target keeps moving until the ramp takes over
				span := e.time - prevTime
				if span <= 0 {
					return p.clamp(e.value)
				}
				from := v
				if target != nil {
					from = approach(target, v, prevTime, t)
				}
				return p.clamp(from + (e.value-from)*(t-prevTime)/span)
			}
			break
		}
		if target != nil {
			v = approach(target, v, prevTime, e.time)
			target = nil
		}
		switch e.kind {
		case setValue, linearRamp:
			v = e.value
		case setTarget:
			target = e
		}
		prevTime = e.time
	}
	if target != nil {
		v = approach(target, v, prevTime, t)
	}
	return p.clamp(v)
}

// approach evaluates an exponential approach that started at start with
// value v0.
func approach(e *automationEvent, v0, start, t float64) float64 {
	return e.value + (v0-e.value)*math.Exp(-(t-start)/e.timeConstant)
}

func (p *AudioParam) clamp(v float64) float64 {
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}

// prune collapses events that can no longer affect values at or after now.
func (p *AudioParam) prune(now float64) {
	n := 0
	for n+1 < len(p.events) && p.events[n+1].time <= now && p.events[n+1].kind != setTarget {
		n++
	}
	if n > 0 {
		p.events = append(p.events[:0], p.events[n:]...)
	}
}

// fill writes the param value for every frame of the block starting at
// start, adding connected inputs.
func (p *AudioParam) fill(out []float64, start float64, block int64) {
	dt := 1 / float64(p.ctx.sampleRate)
	if len(p.events) == 0 {
		for i := range out {
			out[i] = p.defaultValue
		}
	} else {
		for i := range out {
			out[i] = p.valueAt(start + float64(i)*dt)
		}
	}
	for _, in := range p.inputs {
		src := in.pull(block, len(out))
		for i := range out {
			out[i] += float64(src[i])
		}
	}
}

// first returns the block-start value including inputs, for k-rate use.
func (p *AudioParam) first(start float64, block int64, frames int) float64 {
	v := p.valueAt(start)
	for _, in := range p.inputs {
		v += float64(in.pull(block, frames)[0])
	}
	return v
}

func (p *AudioParam) removeInput(n *node) {
	for i, in := range p.inputs {
		if in == n {
			p.inputs = append(p.inputs[:i], p.inputs[i+1:]...)
			return
		}
	}
}
