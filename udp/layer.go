// Package udp implements the UDP layer. See [RFC768].
//
// [RFC768]: https://tools.ietf.org/html/rfc768
package udp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.IPKey(pktkit.IPProtoUDP), Decode)
}

const sizeHeader = 8

// Layer holds the fields of a UDP header. Length and Checksum are computed
// fields; the checksum needs a pseudo-header from an enclosing IP layer and
// binding it without one fails the build.
type Layer struct {
	SourcePort      uint16
	DestinationPort uint16
	// DatagramLength is the length in bytes of header plus payload. Computed
	// length field.
	DatagramLength uint16
	// Checksum covers the pseudo-header, the header and the payload. A zero
	// wire value means no checksum was computed by the sender. Computed
	// checksum field.
	Checksum uint16
}

// Decode parses one UDP header, leaving the cursor at the datagram payload.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	hdr, err := cur.Bytes(sizeHeader)
	if err != nil {
		return nil, packet.None, fmt.Errorf("udp: %w", err)
	}
	var l Layer
	l.SourcePort = binary.BigEndian.Uint16(hdr[0:2])
	l.DestinationPort = binary.BigEndian.Uint16(hdr[2:4])
	l.DatagramLength = binary.BigEndian.Uint16(hdr[4:6])
	l.Checksum = binary.BigEndian.Uint16(hdr[6:8])
	return &l, packet.None, nil
}

func (l *Layer) Protocol() string { return "UDP" }

func (l *Layer) Length() int { return sizeHeader }

func (l *Layer) Encode(b *pktkit.Builder) error {
	b.PutUint16(pktkit.BigEndian, l.SourcePort)
	b.PutUint16(pktkit.BigEndian, l.DestinationPort)
	b.PutUint16(pktkit.BigEndian, l.DatagramLength)
	b.PutUint16(pktkit.BigEndian, l.Checksum)
	return nil
}

func (l *Layer) Fields() []string {
	return []string{"sport", "dport", "length", "checksum"}
}

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "sport":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.SourcePort) },
			func(v uint64) { l.SourcePort = uint16(v) }), nil
	case "dport":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.DestinationPort) },
			func(v uint64) { l.DestinationPort = uint16(v) }), nil
	case "length":
		return packet.UintField(packet.FieldComputedLength, 16,
			func() uint64 { return uint64(l.DatagramLength) },
			func(v uint64) { l.DatagramLength = uint16(v) }), nil
	case "checksum":
		return packet.UintField(packet.FieldComputedChecksum, 16,
			func() uint64 { return uint64(l.Checksum) },
			func(v uint64) { l.Checksum = uint16(v) }), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the UDP protocol number.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	if f == packet.FamilyIP {
		return uint32(pktkit.IPProtoUDP), true
	}
	return 0, false
}

// BindLength binds the length field to header plus suffix.
func (l *Layer) BindLength(suffix int) error {
	total := sizeHeader + suffix
	if total > math.MaxUint16 {
		return fmt.Errorf("udp: %w: length %d", pktkit.ErrFieldOverflow, total)
	}
	l.DatagramLength = uint16(total)
	return nil
}

// BindChecksum computes the checksum over pseudo-header, header and suffix.
// A computed value of zero is transmitted as 0xffff since zero on the wire
// means "no checksum".
func (l *Layer) BindChecksum(ctx packet.ChecksumContext) error {
	if ctx.Pseudo == nil {
		return fmt.Errorf("udp: %w: no enclosing layer supplies a pseudo-header", pktkit.ErrUnresolvedDependency)
	}
	l.Checksum = 0
	var c pktkit.Checksum
	ctx.Pseudo.WritePseudoHeader(&c, pktkit.IPProtoUDP, sizeHeader+len(ctx.Suffix))
	var b pktkit.Builder
	if err := l.Encode(&b); err != nil {
		return err
	}
	c.Write(b.Bytes())
	c.Write(ctx.Suffix)
	l.Checksum = pktkit.NeverZeroChecksum(c.Sum16())
	return nil
}
