// Package tcp implements the TCP layer. See [RFC9293].
//
// [RFC9293]: https://tools.ietf.org/html/rfc9293
package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.IPKey(pktkit.IPProtoTCP), Decode)
}

var errShortOffset = errors.New("tcp: data offset below minimum of 5")

// Layer holds the fields of a TCP header. Offset and Checksum are computed
// fields: building pads Options to a 32-bit boundary and rewrites Offset to
// the padded header size, then computes the checksum with a pseudo-header
// from the enclosing IP layer.
type Layer struct {
	SourcePort      uint16
	DestinationPort uint16
	// Seq is the segment's sequence number.
	Seq uint32
	// Ack is the acknowledgment number, valid with FlagACK set.
	Ack uint32
	// Offset is the header length in 32-bit words. Computed length field.
	Offset uint8
	// Flags holds the segment's control bits including NS.
	Flags  Flags
	Window uint16
	// Checksum covers the pseudo-header, the header and the payload.
	// Computed checksum field.
	Checksum      uint16
	UrgentPointer uint16
	// Options is the raw options run after the fixed header. Building pads
	// it with end-of-option-list zeros to a 32-bit boundary.
	Options []byte
}

// Decode parses one TCP header including options, leaving the cursor at the
// segment payload.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	hdr, err := cur.Bytes(sizeHeader)
	if err != nil {
		return nil, packet.None, fmt.Errorf("tcp: %w", err)
	}
	var l Layer
	l.SourcePort = binary.BigEndian.Uint16(hdr[0:2])
	l.DestinationPort = binary.BigEndian.Uint16(hdr[2:4])
	l.Seq = binary.BigEndian.Uint32(hdr[4:8])
	l.Ack = binary.BigEndian.Uint32(hdr[8:12])
	l.Offset = hdr[12] >> 4
	l.Flags = Flags(binary.BigEndian.Uint16(hdr[12:14])).Mask()
	l.Window = binary.BigEndian.Uint16(hdr[14:16])
	l.Checksum = binary.BigEndian.Uint16(hdr[16:18])
	l.UrgentPointer = binary.BigEndian.Uint16(hdr[18:20])
	if l.Offset < 5 {
		return nil, packet.None, errShortOffset
	}
	if l.Offset > 5 {
		l.Options, err = cur.Bytes(int(l.Offset-5) * 4)
		if err != nil {
			return nil, packet.None, fmt.Errorf("tcp: options: %w", err)
		}
	}
	return &l, packet.None, nil
}

func (l *Layer) Protocol() string { return "TCP" }

func (l *Layer) Length() int { return sizeHeader + len(l.Options) }

func (l *Layer) Encode(b *pktkit.Builder) error {
	b.PutUint16(pktkit.BigEndian, l.SourcePort)
	b.PutUint16(pktkit.BigEndian, l.DestinationPort)
	b.PutUint32(pktkit.BigEndian, l.Seq)
	b.PutUint32(pktkit.BigEndian, l.Ack)
	b.PutUint16(pktkit.BigEndian, uint16(l.Offset)<<12|uint16(l.Flags.Mask()))
	b.PutUint16(pktkit.BigEndian, l.Window)
	b.PutUint16(pktkit.BigEndian, l.Checksum)
	b.PutUint16(pktkit.BigEndian, l.UrgentPointer)
	b.Put(l.Options)
	return nil
}

func (l *Layer) Fields() []string {
	return []string{"sport", "dport", "seq", "ack", "offset", "flags", "window", "checksum", "urgptr", "options"}
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
	case "seq":
		return packet.UintField(packet.FieldInt, 32,
			func() uint64 { return uint64(l.Seq) },
			func(v uint64) { l.Seq = uint32(v) }), nil
	case "ack":
		return packet.UintField(packet.FieldInt, 32,
			func() uint64 { return uint64(l.Ack) },
			func(v uint64) { l.Ack = uint32(v) }), nil
	case "offset":
		return packet.UintField(packet.FieldComputedLength, 4,
			func() uint64 { return uint64(l.Offset) },
			func(v uint64) { l.Offset = uint8(v) }), nil
	case "flags":
		return packet.UintField(packet.FieldInt, 9,
			func() uint64 { return uint64(l.Flags) },
			func(v uint64) { l.Flags = Flags(v) }), nil
	case "window":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.Window) },
			func(v uint64) { l.Window = uint16(v) }), nil
	case "checksum":
		return packet.UintField(packet.FieldComputedChecksum, 16,
			func() uint64 { return uint64(l.Checksum) },
			func(v uint64) { l.Checksum = uint16(v) }), nil
	case "urgptr":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.UrgentPointer) },
			func(v uint64) { l.UrgentPointer = uint16(v) }), nil
	case "options":
		return packet.BytesField(packet.FieldBytes,
			func() []byte { return l.Options },
			func(p []byte) error {
				if sizeHeader+len(p) > maxHeaderSize {
					return fmt.Errorf("tcp: %w: options length %d", pktkit.ErrFieldOverflow, len(p))
				}
				l.Options = p
				return nil
			}), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the TCP protocol number.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	if f == packet.FamilyIP {
		return uint32(pktkit.IPProtoTCP), true
	}
	return 0, false
}

// BindLength pads options to a 32-bit boundary with end-of-option-list
// octets and binds Offset to the padded header size. The suffix does not
// enter the field; TCP carries no explicit length.
func (l *Layer) BindLength(_ int) error {
	if pad := len(l.Options) % 4; pad != 0 {
		l.Options = append(l.Options, make([]byte, 4-pad)...)
	}
	hlen := sizeHeader + len(l.Options)
	if hlen > maxHeaderSize {
		return fmt.Errorf("tcp: %w: header length %d", pktkit.ErrFieldOverflow, hlen)
	}
	l.Offset = uint8(hlen / 4)
	return nil
}

// BindChecksum computes the checksum over pseudo-header, header and suffix.
func (l *Layer) BindChecksum(ctx packet.ChecksumContext) error {
	if ctx.Pseudo == nil {
		return fmt.Errorf("tcp: %w: no enclosing layer supplies a pseudo-header", pktkit.ErrUnresolvedDependency)
	}
	l.Checksum = 0
	var c pktkit.Checksum
	ctx.Pseudo.WritePseudoHeader(&c, pktkit.IPProtoTCP, l.Length()+len(ctx.Suffix))
	var b pktkit.Builder
	if err := l.Encode(&b); err != nil {
		return err
	}
	c.Write(b.Bytes())
	c.Write(ctx.Suffix)
	l.Checksum = c.Sum16()
	return nil
}
