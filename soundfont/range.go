package soundfont

// Range is a closed integer interval used for key and velocity windows.
// A range with Min > Max is kept as-is and includes nothing.
type Range struct {
	Min int
	Max int
}

// FullRange covers every MIDI key or velocity.
var FullRange = Range{Min: 0, Max: 127}

// Includes reports whether v lies within the range.
func (r Range) Includes(v int) bool {
	return r.Min <= v && v <= r.Max
}

// Intersect returns the overlap of two ranges. Disjoint ranges produce an
// empty (Min > Max) result.
func (r Range) Intersect(o Range) Range {
	return Range{Min: max(r.Min, o.Min), Max: min(r.Max, o.Max)}
}

// Empty reports whether the range includes no value.
func (r Range) Empty() bool {
	return r.Min > r.Max
}
