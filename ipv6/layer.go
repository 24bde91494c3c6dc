// Package ipv6 implements the IPv6 layer. See [RFC8200].
//
// [RFC8200]: https://tools.ietf.org/html/rfc8200
package ipv6

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.EtherKey(pktkit.EtherTypeIPv6), Decode)
	// Raw IPv6 captures with no link layer.
	packet.MustRegister(packet.LinkKey(pktkit.LinkTypeIPv6), Decode)
	// IPv6-in-IPv4 (and in IPv6) encapsulation.
	packet.MustRegister(packet.IPKey(pktkit.IPProtoIPv6), Decode)
}

const sizeHeader = 40

var errVersion = errors.New("ipv6: version field not 6")

// Layer holds the fields of an IPv6 fixed header. PayloadLength and
// NextHeader are computed fields bound on build. Extension headers are not
// given special treatment: a registered decoder for their protocol number
// parses them as layers of their own.
type Layer struct {
	// TrafficClass is the DS/ECN octet.
	TrafficClass uint8
	// FlowLabel is the 20-bit flow label.
	FlowLabel uint32
	// PayloadLength is the length in bytes of everything after the fixed
	// header. Computed length field.
	PayloadLength uint16
	// NextHeader names the protocol of what follows. Computed next-protocol
	// field.
	NextHeader pktkit.IPProto
	// HopLimit is decremented at each forwarding node.
	HopLimit    uint8
	Source      [16]byte
	Destination [16]byte
}

// Decode parses one IPv6 fixed header. The reported next key is the header's
// next-header protocol number.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	version, err := cur.Bits(4)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv6: %w", err)
	}
	if version != 6 {
		return nil, packet.None, errVersion
	}
	tc, err := cur.Bits(8)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv6: %w", err)
	}
	flow, err := cur.Bits(20)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv6: %w", err)
	}
	hdr, err := cur.Bytes(sizeHeader - 4)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv6: %w", err)
	}
	var l Layer
	l.TrafficClass = uint8(tc)
	l.FlowLabel = uint32(flow)
	l.PayloadLength = binary.BigEndian.Uint16(hdr[0:2])
	l.NextHeader = pktkit.IPProto(hdr[2])
	l.HopLimit = hdr[3]
	copy(l.Source[:], hdr[4:20])
	copy(l.Destination[:], hdr[20:36])
	return &l, packet.IPKey(l.NextHeader), nil
}

func (l *Layer) Protocol() string { return "IPv6" }

func (l *Layer) Length() int { return sizeHeader }

func (l *Layer) Encode(b *pktkit.Builder) error {
	if err := b.PutBits(6, 4); err != nil {
		return err
	}
	if err := b.PutBits(uint64(l.TrafficClass), 8); err != nil {
		return err
	}
	if err := b.PutBits(uint64(l.FlowLabel), 20); err != nil {
		return fmt.Errorf("ipv6: flow label: %w", err)
	}
	b.PutUint16(pktkit.BigEndian, l.PayloadLength)
	b.PutUint8(uint8(l.NextHeader))
	b.PutUint8(l.HopLimit)
	b.Put(l.Source[:])
	b.Put(l.Destination[:])
	return nil
}

func (l *Layer) Fields() []string {
	return []string{"tc", "flow", "length", "next", "hoplimit", "src", "dst"}
}

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "tc":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.TrafficClass) },
			func(v uint64) { l.TrafficClass = uint8(v) }), nil
	case "flow":
		return packet.UintField(packet.FieldInt, 20,
			func() uint64 { return uint64(l.FlowLabel) },
			func(v uint64) { l.FlowLabel = uint32(v) }), nil
	case "length":
		return packet.UintField(packet.FieldComputedLength, 16,
			func() uint64 { return uint64(l.PayloadLength) },
			func(v uint64) { l.PayloadLength = uint16(v) }), nil
	case "next":
		return packet.UintField(packet.FieldComputedNext, 8,
			func() uint64 { return uint64(l.NextHeader) },
			func(v uint64) { l.NextHeader = pktkit.IPProto(v) }), nil
	case "hoplimit":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.HopLimit) },
			func(v uint64) { l.HopLimit = uint8(v) }), nil
	case "src":
		return packet.FixedBytes(packet.FieldBytes, l.Source[:]), nil
	case "dst":
		return packet.FixedBytes(packet.FieldBytes, l.Destination[:]), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the IPv6 layer's dispatch values: its EtherType, and its
// protocol number when encapsulated in another IP header.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	switch f {
	case packet.FamilyEther:
		return uint32(pktkit.EtherTypeIPv6), true
	case packet.FamilyIP:
		return uint32(pktkit.IPProtoIPv6), true
	}
	return 0, false
}

// NextFamily implements [packet.NextBinder]: the next-header field selects
// within the IP protocol number family.
func (l *Layer) NextFamily() packet.Family { return packet.FamilyIP }

// BindNext stores the following protocol's number.
func (l *Layer) BindNext(v uint32) error {
	if v > math.MaxUint8 {
		return fmt.Errorf("ipv6: %w: next header %#x", pktkit.ErrFieldOverflow, v)
	}
	l.NextHeader = pktkit.IPProto(v)
	return nil
}

// BindLength binds PayloadLength to the suffix alone; the fixed header is
// not counted.
func (l *Layer) BindLength(suffix int) error {
	if suffix > math.MaxUint16 {
		return fmt.Errorf("ipv6: %w: payload length %d", pktkit.ErrFieldOverflow, suffix)
	}
	l.PayloadLength = uint16(suffix)
	return nil
}

// WritePseudoHeader adds the IPv6 pseudo-header covering length bytes of
// protocol proto to a transport checksum.
func (l *Layer) WritePseudoHeader(c *pktkit.Checksum, proto pktkit.IPProto, length int) {
	c.Write(l.Source[:])
	c.Write(l.Destination[:])
	c.AddUint32(uint32(length))
	c.AddUint32(uint32(proto))
}
