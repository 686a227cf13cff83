package soundfont

import "github.com/pkg/errors"

// Load failures. Every error returned by Load wraps one of these; test with
// errors.Is.
var (
	ErrTruncated         = errors.New("soundfont: truncated data")
	ErrMalformed         = errors.New("soundfont: malformed data")
	ErrMissingChunk      = errors.New("soundfont: missing chunk")
	ErrDanglingReference = errors.New("soundfont: dangling reference")
)
