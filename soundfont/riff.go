package soundfont

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// FourCC is a four character chunk tag.
type FourCC [4]byte

func (f FourCC) String() string { return string(f[:]) }

func fourCC(s string) FourCC {
	var f FourCC
	copy(f[:], s)
	return f
}

var (
	idRIFF = fourCC("RIFF")
	idLIST = fourCC("LIST")
)

const chunkHeaderSize = 8

// Chunk is a node of the parsed container tree. Containers (RIFF and LIST)
// carry a Form tag and Children; every other chunk carries raw Data.
type Chunk struct {
	ID       FourCC
	Form     FourCC
	Data     []byte
	Children []*Chunk
}

// IsContainer reports whether the chunk holds nested chunks.
func (c *Chunk) IsContainer() bool {
	return c.ID == idRIFF || c.ID == idLIST
}

// List returns the first LIST child with the given form, or nil.
func (c *Chunk) List(form FourCC) *Chunk {
	for _, ch := range c.Children {
		if ch.ID == idLIST && ch.Form == form {
			return ch
		}
	}
	return nil
}

// Child returns the first direct child with the given tag, or nil.
func (c *Chunk) Child(id FourCC) *Chunk {
	for _, ch := range c.Children {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// ParseChunk decodes the chunk tree rooted at the start of b.
func ParseChunk(b []byte) (*Chunk, error) {
	c, _, err := parseChunk(b, 0)
	if err != nil {
		return nil, err
	}
	if !c.IsContainer() {
		return nil, errors.Wrapf(ErrMalformed, "root chunk %q is not a container", c.ID)
	}
	return c, nil
}

// parseChunk reads the chunk at offset and returns it with the offset of the
// next sibling. b is bounded by the enclosing container.
func parseChunk(b []byte, offset int) (*Chunk, int, error) {
	if len(b)-offset < chunkHeaderSize {
		return nil, 0, errors.Wrapf(ErrTruncated, "chunk header at 0x%X", offset)
	}
	c := &Chunk{}
	copy(c.ID[:], b[offset:offset+4])
	size := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
	start := offset + chunkHeaderSize
	end := start + size
	if size < 0 || end > len(b) || end < start {
		return nil, 0, errors.Wrapf(ErrTruncated, "chunk %q at 0x%X declares %d bytes, %d available",
			c.ID, offset, size, len(b)-start)
	}

	if c.IsContainer() {
		if size < 4 {
			return nil, 0, errors.Wrapf(ErrMalformed, "container %q at 0x%X has no form tag", c.ID, offset)
		}
		copy(c.Form[:], b[start:start+4])
		body := b[:end]
		pos := start + 4
		for pos < end {
			child, next, err := parseChunk(body, pos)
			if err != nil {
				return nil, 0, errors.WithMessagef(err, "in %s/%s", c.ID, c.Form)
			}
			c.Children = append(c.Children, child)
			pos = next
		}
	} else {
		c.Data = b[start:end]
	}

	next := end
	if size%2 == 1 && next < len(b) {
		next++
	}
	return c, next, nil
}
