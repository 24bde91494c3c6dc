// Package ipv4 implements the IPv4 layer. See [RFC791].
//
// [RFC791]: https://tools.ietf.org/html/rfc791
package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.EtherKey(pktkit.EtherTypeIPv4), Decode)
	// Raw IPv4 captures with no link layer.
	packet.MustRegister(packet.LinkKey(pktkit.LinkTypeIPv4), Decode)
	// IPv4-in-IPv4 encapsulation.
	packet.MustRegister(packet.IPKey(pktkit.IPProtoIPIP), Decode)
}

var (
	errVersion  = errors.New("ipv4: version field not 4")
	errShortIHL = errors.New("ipv4: IHL below minimum of 5")
)

// Layer holds the fields of an IPv4 header. TotalLength, Proto and Checksum
// are computed fields: building a stack binds them from the layers below
// before serializing. Set values are kept when the layer is encoded
// standalone.
type Layer struct {
	// ToS is the type of service field.
	ToS ToS
	// TotalLength is the length in bytes of header plus everything after it.
	// Computed length field.
	TotalLength uint16
	// Identification is an identifying value for reassembling fragments.
	Identification uint16
	// Flags holds fragmentation flags and the fragment offset.
	Flags Flags
	// TTL is the time-to-live hop count.
	TTL uint8
	// Proto names the protocol of what the header carries. Computed
	// next-protocol field.
	Proto pktkit.IPProto
	// Checksum covers the header bytes only. Computed checksum field.
	Checksum uint16
	Source   [4]byte
	// Destination is the datagram's target IPv4 address.
	Destination [4]byte
	// Options is the raw options run after the fixed header. Building pads it
	// with zeros to a 32-bit boundary.
	Options []byte
}

// Decode parses one IPv4 header including options, leaving the cursor at the
// start of the carried protocol. The reported next key is the header's
// protocol number.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	version, err := cur.Bits(4)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv4: %w", err)
	}
	ihl, err := cur.Bits(4)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv4: %w", err)
	}
	v := pktkit.NewValidator(pktkit.ValidateAllowMultiErrors)
	if version != 4 {
		v.AddError(errVersion)
	}
	if ihl < 5 {
		v.AddError(errShortIHL)
	}
	if v.HasError() {
		return nil, packet.None, v.Err()
	}
	hdr, err := cur.Bytes(sizeHeader - 1)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ipv4: %w", err)
	}
	var l Layer
	l.ToS = ToS(hdr[0])
	l.TotalLength = binary.BigEndian.Uint16(hdr[1:3])
	l.Identification = binary.BigEndian.Uint16(hdr[3:5])
	l.Flags = Flags(binary.BigEndian.Uint16(hdr[5:7]))
	l.TTL = hdr[7]
	l.Proto = pktkit.IPProto(hdr[8])
	l.Checksum = binary.BigEndian.Uint16(hdr[9:11])
	copy(l.Source[:], hdr[11:15])
	copy(l.Destination[:], hdr[15:19])
	if ihl > 5 {
		l.Options, err = cur.Bytes(int(ihl-5) * 4)
		if err != nil {
			return nil, packet.None, fmt.Errorf("ipv4: options: %w", err)
		}
	}
	return &l, packet.IPKey(l.Proto), nil
}

func (l *Layer) Protocol() string { return "IPv4" }

func (l *Layer) Length() int { return sizeHeader + len(l.Options) }

func (l *Layer) Encode(b *pktkit.Builder) error {
	hlen := sizeHeader + len(l.Options)
	if hlen%4 != 0 || hlen > maxHeaderSize {
		return fmt.Errorf("ipv4: %w: header length %d", pktkit.ErrFieldOverflow, hlen)
	}
	b.PutUint8(4<<4 | uint8(hlen/4))
	b.PutUint8(uint8(l.ToS))
	b.PutUint16(pktkit.BigEndian, l.TotalLength)
	b.PutUint16(pktkit.BigEndian, l.Identification)
	b.PutUint16(pktkit.BigEndian, uint16(l.Flags))
	b.PutUint8(l.TTL)
	b.PutUint8(uint8(l.Proto))
	b.PutUint16(pktkit.BigEndian, l.Checksum)
	b.Put(l.Source[:])
	b.Put(l.Destination[:])
	b.Put(l.Options)
	return nil
}

func (l *Layer) Fields() []string {
	return []string{"tos", "length", "id", "flags", "ttl", "proto", "checksum", "src", "dst", "options"}
}

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "tos":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.ToS) },
			func(v uint64) { l.ToS = ToS(v) }), nil
	case "length":
		return packet.UintField(packet.FieldComputedLength, 16,
			func() uint64 { return uint64(l.TotalLength) },
			func(v uint64) { l.TotalLength = uint16(v) }), nil
	case "id":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.Identification) },
			func(v uint64) { l.Identification = uint16(v) }), nil
	case "flags":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.Flags) },
			func(v uint64) { l.Flags = Flags(v) }), nil
	case "ttl":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.TTL) },
			func(v uint64) { l.TTL = uint8(v) }), nil
	case "proto":
		return packet.UintField(packet.FieldComputedNext, 8,
			func() uint64 { return uint64(l.Proto) },
			func(v uint64) { l.Proto = pktkit.IPProto(v) }), nil
	case "checksum":
		return packet.UintField(packet.FieldComputedChecksum, 16,
			func() uint64 { return uint64(l.Checksum) },
			func(v uint64) { l.Checksum = uint16(v) }), nil
	case "src":
		return packet.FixedBytes(packet.FieldBytes, l.Source[:]), nil
	case "dst":
		return packet.FixedBytes(packet.FieldBytes, l.Destination[:]), nil
	case "options":
		return packet.BytesField(packet.FieldBytes,
			func() []byte { return l.Options },
			func(p []byte) error {
				if sizeHeader+len(p) > maxHeaderSize {
					return fmt.Errorf("ipv4: %w: options length %d", pktkit.ErrFieldOverflow, len(p))
				}
				l.Options = p
				return nil
			}), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the IPv4 layer's dispatch values: its EtherType, and its IPIP
// protocol number when encapsulated in another IP header.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	switch f {
	case packet.FamilyEther:
		return uint32(pktkit.EtherTypeIPv4), true
	case packet.FamilyIP:
		return uint32(pktkit.IPProtoIPIP), true
	}
	return 0, false
}

// NextFamily implements [packet.NextBinder]: the protocol field selects
// within the IP protocol number family.
func (l *Layer) NextFamily() packet.Family { return packet.FamilyIP }

// BindNext stores the carried protocol's number.
func (l *Layer) BindNext(v uint32) error {
	if v > math.MaxUint8 {
		return fmt.Errorf("ipv4: %w: protocol %#x", pktkit.ErrFieldOverflow, v)
	}
	l.Proto = pktkit.IPProto(v)
	return nil
}

// BindLength pads options to a 32-bit boundary and binds TotalLength to the
// padded header plus suffix.
func (l *Layer) BindLength(suffix int) error {
	if pad := len(l.Options) % 4; pad != 0 {
		l.Options = append(l.Options, make([]byte, 4-pad)...)
	}
	hlen := sizeHeader + len(l.Options)
	if hlen > maxHeaderSize {
		return fmt.Errorf("ipv4: %w: header length %d", pktkit.ErrFieldOverflow, hlen)
	}
	total := hlen + suffix
	if total > math.MaxUint16 {
		return fmt.Errorf("ipv4: %w: total length %d", pktkit.ErrFieldOverflow, total)
	}
	l.TotalLength = uint16(total)
	return nil
}

// BindChecksum computes the header checksum. It covers the header bytes only
// so neither the suffix nor a pseudo-header enters the sum.
func (l *Layer) BindChecksum(_ packet.ChecksumContext) error {
	l.Checksum = 0
	var b pktkit.Builder
	if err := l.Encode(&b); err != nil {
		return err
	}
	var c pktkit.Checksum
	c.Write(b.Bytes())
	l.Checksum = c.Sum16()
	return nil
}

// WritePseudoHeader adds the IPv4 pseudo-header covering length bytes of
// protocol proto to a transport checksum.
func (l *Layer) WritePseudoHeader(c *pktkit.Checksum, proto pktkit.IPProto, length int) {
	c.Write(l.Source[:])
	c.Write(l.Destination[:])
	c.AddUint16(uint16(proto))
	c.AddUint16(uint16(length))
}
