// Package chbin decodes Clone Hero's two proprietary binary files: the score
// store (scoredata.bin) and the song metadata cache (songcache.bin). Both
// formats are little-endian and undocumented; the layouts here were worked
// out against real game output. Decoders are pure functions over a byte
// slice, never touch the filesystem, and return typed errors so callers can
// tell a truncated file from an empty one.
package chbin

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrTruncated means the buffer ended before a declared structure did.
// Always fatal to the decode call that hit it; partial results are never
// returned because a half-read store is indistinguishable from corruption.
var ErrTruncated = eris.New("chbin: truncated data")

// ErrMalformedString means a length-prefixed string held invalid UTF-8.
var ErrMalformedString = eris.New("chbin: malformed string")

// twoByteLenMarker flags a two-byte string length. Lengths below 0x80 fit in
// a single byte; longer strings set the high bit and spill the remaining
// bits into a second byte.
const twoByteLenMarker = 0x80

// Cursor is a sequential bounds-checked reader over an immutable buffer.
// Every read either fully succeeds or fails without advancing.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor wraps buf. The cursor never mutates buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the count of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// AtEnd reports whether the cursor has consumed the whole buffer.
func (c *Cursor) AtEnd() bool {
	return c.off >= len(c.buf)
}

// Offset returns the current read position, for error reporting.
func (c *Cursor) Offset() int {
	return c.off
}

func (c *Cursor) need(n int) error {
	if c.Remaining() < n {
		return eris.Wrapf(ErrTruncated, "need %d bytes at offset %d, %d remain", n, c.off, c.Remaining())
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (int, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := int(c.buf[c.off])
	c.off++
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16() (int, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := int(binary.LittleEndian.Uint16(c.buf[c.off:]))
	c.off += 2
	return v, nil
}

// ReadU24 reads a little-endian 3-byte unsigned integer. The score store
// uses this odd width for per-chart play counts.
func (c *Cursor) ReadU24() (int, error) {
	if err := c.need(3); err != nil {
		return 0, err
	}
	v := int(c.buf[c.off]) | int(c.buf[c.off+1])<<8 | int(c.buf[c.off+2])<<16
	c.off += 3
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32() (int, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := int(binary.LittleEndian.Uint32(c.buf[c.off:]))
	c.off += 4
	return v, nil
}

// ReadBytes reads n raw bytes. The returned slice aliases the underlying
// buffer and must not be modified.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, eris.Errorf("chbin: negative read length %d", n)
	}
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Skip advances past n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// ReadString reads a length-prefixed UTF-8 string. The length is one byte
// for values under 0x80; otherwise the low 7 bits combine with a second
// byte (little-endian, 7-bit shifted) for lengths up to 16383.
func (c *Cursor) ReadString() (string, error) {
	b, err := c.ReadU8()
	if err != nil {
		return "", err
	}
	n := b
	if b&twoByteLenMarker != 0 {
		hi, err := c.ReadU8()
		if err != nil {
			return "", err
		}
		n = (b &^ twoByteLenMarker) | hi<<7
	}
	raw, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", eris.Wrapf(ErrMalformedString, "invalid UTF-8 at offset %d", c.off-n)
	}
	return string(raw), nil
}
