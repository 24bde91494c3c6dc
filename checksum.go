package pktkit

import (
	"encoding/binary"
)

// Checksum accumulates the checksum defined by RFC 791 for TCP+IP:
// the 16-bit ones' complement of the ones' complement sum of all 16-bit
// words covered. In case of an uneven number of octets the last word is
// LSB padded with zeros.
//
// The zero value of Checksum is ready to use.
type Checksum struct {
	sum uint32
	odd bool
}

func checksum16(sum uint32) uint16 {
	sum = (sum & 0xffff) + sum>>16
	// the max value of sum at this point is 0x1fffe, so an additional round is enough
	return ^uint16(sum + sum>>16)
}

// Write adds the bytes in buff to the running checksum. Buffers of odd
// length may be written; the accumulator keeps track of byte parity so a
// following Write continues at the correct position.
func (c *Checksum) Write(buff []byte) {
	i := 0
	if c.odd && len(buff) > 0 {
		c.sum += uint32(buff[0])
		c.odd = false
		i = 1
	}
	for ; i+1 < len(buff); i += 2 {
		c.sum += uint32(binary.BigEndian.Uint16(buff[i:]))
	}
	if i < len(buff) {
		c.sum += uint32(buff[i]) << 8
		c.odd = true
	}
}

// AddUint32 adds a 32 bit value to the running checksum interpreted as BigEndian (network order).
func (c *Checksum) AddUint32(value uint32) {
	c.AddUint16(uint16(value >> 16))
	c.AddUint16(uint16(value))
}

// AddUint16 adds a 16 bit value to the running checksum interpreted as BigEndian (network order).
// Must be called on an even byte boundary.
func (c *Checksum) AddUint16(value uint16) {
	c.sum += uint32(value)
}

// Sum16 calculates the checksum with the data written to c thus far.
func (c *Checksum) Sum16() uint16 {
	return checksum16(c.sum)
}

// Reset zeros out the Checksum, resetting it to the initial state.
func (c *Checksum) Reset() { *c = Checksum{} }

// NeverZeroChecksum ensures that the given checksum is not zero, by returning 0xffff instead.
func NeverZeroChecksum(sum16 uint16) uint16 {
	// 0x0000 and 0xffff are the same number in ones' complement math
	if sum16 == 0 {
		return 0xffff
	}
	return sum16
}
