package pktkit

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder selects how multi-byte fixed-width fields are laid out on the wire.
type ByteOrder uint8

const (
	BigEndian    ByteOrder = iota // network order
	LittleEndian                  // little endian
)

func (bo ByteOrder) order() interface {
	binary.ByteOrder
	binary.AppendByteOrder
} {
	if bo == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Cursor reads fixed-width integers, arbitrary-width bit fields and raw byte
// spans from a buffer, advancing past what it consumes. Reading past the end
// of the buffer fails with [ErrTruncated] and leaves the cursor position
// unspecified: the caller must abort the enclosing layer decode, not resume.
// Cursor sits directly on attacker-controlled input and never panics on
// malformed data.
type Cursor struct {
	buf []byte
	off int
	bit uint8 // bit offset into buf[off], MSB first
}

// NewCursor returns a Cursor reading from the start of buf. The buffer is
// aliased, not copied.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf}
}

// Offset returns the byte offset of the next read.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes. A partially consumed byte
// counts as unread until its last bit is taken.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Aligned returns true if the cursor sits on a byte boundary.
func (c *Cursor) Aligned() bool { return c.bit == 0 }

func (c *Cursor) truncated(need int) error {
	return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, need, c.off, c.Remaining())
}

var errMisaligned = fmt.Errorf("byte-width access off byte boundary")

// Bytes consumes and returns the next n bytes. The returned slice aliases
// the cursor's buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if c.bit != 0 {
		return nil, errMisaligned
	}
	if n < 0 || n > c.Remaining() {
		return nil, c.truncated(n)
	}
	p := c.buf[c.off : c.off+n]
	c.off += n
	return p, nil
}

// Rest consumes and returns all unread bytes, aliased.
func (c *Cursor) Rest() ([]byte, error) {
	return c.Bytes(c.Remaining())
}

// Skip advances the cursor n bytes without interpreting them.
func (c *Cursor) Skip(n int) error {
	_, err := c.Bytes(n)
	return err
}

// Uint8 consumes one byte.
func (c *Cursor) Uint8() (uint8, error) {
	p, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// Uint16 consumes a 16-bit integer in the given byte order.
func (c *Cursor) Uint16(bo ByteOrder) (uint16, error) {
	p, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return bo.order().Uint16(p), nil
}

// Uint32 consumes a 32-bit integer in the given byte order.
func (c *Cursor) Uint32(bo ByteOrder) (uint32, error) {
	p, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return bo.order().Uint32(p), nil
}

// Uint64 consumes a 64-bit integer in the given byte order.
func (c *Cursor) Uint64(bo ByteOrder) (uint64, error) {
	p, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	return bo.order().Uint64(p), nil
}

// Bits consumes a bit field of the given width (1..64), MSB first. Bit
// fields need not start or end on byte boundaries.
func (c *Cursor) Bits(width int) (uint64, error) {
	if width <= 0 || width > 64 {
		panic("pktkit: bit width out of range")
	}
	var v uint64
	for width > 0 {
		if c.off >= len(c.buf) {
			return 0, c.truncated(1)
		}
		avail := 8 - int(c.bit)
		take := min(avail, width)
		chunk := c.buf[c.off] >> (avail - take) & (1<<take - 1)
		v = v<<take | uint64(chunk)
		width -= take
		c.bit += uint8(take)
		if c.bit == 8 {
			c.bit = 0
			c.off++
		}
	}
	return v, nil
}

// Builder appends wire representations of fields to a growable buffer.
// Writing never fails unless a declared fixed width cannot hold the runtime
// value, which fails with [ErrFieldOverflow]. Byte-width writes off a byte
// boundary are a programming error and panic.
//
// The zero value of Builder is an empty builder ready to use.
type Builder struct {
	buf []byte
	bit uint8 // bits already occupied in the last byte
}

// Reset empties the builder, retaining the allocated buffer.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.bit = 0
}

// Bytes returns the accumulated buffer, aliased.
func (b *Builder) Bytes() []byte { return b.buf }

// Len returns the byte length written so far. A partially written byte
// counts as one.
func (b *Builder) Len() int { return len(b.buf) }

func (b *Builder) checkAligned() {
	if b.bit != 0 {
		panic("pktkit: byte-width write off byte boundary")
	}
}

// Put appends raw bytes.
func (b *Builder) Put(p []byte) {
	b.checkAligned()
	b.buf = append(b.buf, p...)
}

// PutUint8 appends one byte.
func (b *Builder) PutUint8(v uint8) {
	b.checkAligned()
	b.buf = append(b.buf, v)
}

// PutUint16 appends a 16-bit integer in the given byte order.
func (b *Builder) PutUint16(bo ByteOrder, v uint16) {
	b.checkAligned()
	b.buf = bo.order().AppendUint16(b.buf, v)
}

// PutUint32 appends a 32-bit integer in the given byte order.
func (b *Builder) PutUint32(bo ByteOrder, v uint32) {
	b.checkAligned()
	b.buf = bo.order().AppendUint32(b.buf, v)
}

// PutUint64 appends a 64-bit integer in the given byte order.
func (b *Builder) PutUint64(bo ByteOrder, v uint64) {
	b.checkAligned()
	b.buf = bo.order().AppendUint64(b.buf, v)
}

// PutBits appends a bit field of the given width (1..64), MSB first.
// Returns ErrFieldOverflow if v does not fit in width bits.
func (b *Builder) PutBits(v uint64, width int) error {
	if width <= 0 || width > 64 {
		panic("pktkit: bit width out of range")
	}
	if width < 64 && v >= 1<<width {
		return fmt.Errorf("%w: %#x in %d bits", ErrFieldOverflow, v, width)
	}
	for width > 0 {
		if b.bit == 0 {
			b.buf = append(b.buf, 0)
		}
		avail := 8 - int(b.bit)
		take := min(avail, width)
		chunk := byte(v >> (width - take) & (1<<take - 1))
		b.buf[len(b.buf)-1] |= chunk << (avail - take)
		width -= take
		b.bit = (b.bit + uint8(take)) % 8
	}
	return nil
}

// PutUintN appends the low n bytes of v in the given byte order. Returns
// ErrFieldOverflow if v does not fit in n bytes.
func (b *Builder) PutUintN(bo ByteOrder, v uint64, n int) error {
	if n <= 0 || n > 8 {
		panic("pktkit: byte width out of range")
	}
	if n < 8 && v >= 1<<(8*n) {
		return fmt.Errorf("%w: %#x in %d bytes", ErrFieldOverflow, v, n)
	}
	b.checkAligned()
	if bo == LittleEndian {
		for i := 0; i < n; i++ {
			b.buf = append(b.buf, byte(v>>(8*i)))
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			b.buf = append(b.buf, byte(v>>(8*i)))
		}
	}
	return nil
}
