// Package icmpv4 implements the ICMPv4 layer. See [RFC792].
//
// [RFC792]: https://tools.ietf.org/html/rfc792
package icmpv4

import (
	"encoding/binary"
	"fmt"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.IPKey(pktkit.IPProtoICMP), Decode)
}

const sizeHeader = 8

type Type uint8

const (
	TypeEchoReply Type = 0 // echo reply
	TypeEcho      Type = 8 // echo

	TypeDestinationUnreachable Type = 3 // destination unreachable
	TypeSourceQuench           Type = 4 // source quench
	TypeRedirect               Type = 5 // redirect

	TypeTimeExceeded     Type = 11 // time exceeded
	TypeParameterProblem Type = 12 // parameter problem

	TypeTimestamp      Type = 13 // timestamp
	TypeTimestampReply Type = 14 // timestamp reply

	TypeInfoRequest      Type = 15 // information request
	TypeInfoRequestReply Type = 16 // information request reply
)

type CodeTimeExceeded uint8

const (
	CodeExceededInTransit  CodeTimeExceeded = iota // TTL exceeded in transit
	CodeFragmentReassembly                         // fragment reassembly time exceeded
)

type CodeDestinationUnreachable uint8

const (
	CodeNetUnreachable     CodeDestinationUnreachable = iota // net unreachable
	CodeHostUnreachable                                      // host unreachable
	CodeProtoUnreachable                                     // protocol unreachable
	CodePortUnreachable                                      // port unreachable
	CodeFragNeededAndDFSet                                   // fragmentation needed and DF set
	CodeSourceRouteFailed                                    // source route failed
)

// Layer holds the fields of an ICMPv4 message header. The four octets after
// type, code and checksum vary by message type (echo identifier+sequence,
// unused for destination unreachable, gateway address for redirects); they
// are kept raw as RestOfHeader with typed accessors for the echo form.
type Layer struct {
	Type Type
	Code uint8
	// Checksum covers the whole ICMP message, header and data, with no
	// pseudo-header. Computed checksum field.
	Checksum uint16
	// RestOfHeader is the type-dependent second header word.
	RestOfHeader uint32
}

// NewEcho returns an echo request header with the given identifier and
// sequence number.
func NewEcho(ident, seq uint16) *Layer {
	return &Layer{Type: TypeEcho, RestOfHeader: uint32(ident)<<16 | uint32(seq)}
}

// Decode parses one ICMPv4 message header, leaving the cursor at the message
// data.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	hdr, err := cur.Bytes(sizeHeader)
	if err != nil {
		return nil, packet.None, fmt.Errorf("icmpv4: %w", err)
	}
	var l Layer
	l.Type = Type(hdr[0])
	l.Code = hdr[1]
	l.Checksum = binary.BigEndian.Uint16(hdr[2:4])
	l.RestOfHeader = binary.BigEndian.Uint32(hdr[4:8])
	return &l, packet.None, nil
}

func (l *Layer) Protocol() string { return "ICMPv4" }

func (l *Layer) Length() int { return sizeHeader }

func (l *Layer) Encode(b *pktkit.Builder) error {
	b.PutUint8(uint8(l.Type))
	b.PutUint8(l.Code)
	b.PutUint16(pktkit.BigEndian, l.Checksum)
	b.PutUint32(pktkit.BigEndian, l.RestOfHeader)
	return nil
}

// Ident returns the identifier of an echo message.
func (l *Layer) Ident() uint16 { return uint16(l.RestOfHeader >> 16) }

// SeqNumber returns the sequence number of an echo message.
func (l *Layer) SeqNumber() uint16 { return uint16(l.RestOfHeader) }

func (l *Layer) Fields() []string {
	return []string{"type", "code", "checksum", "rest"}
}

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "type":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.Type) },
			func(v uint64) { l.Type = Type(v) }), nil
	case "code":
		return packet.UintField(packet.FieldInt, 8,
			func() uint64 { return uint64(l.Code) },
			func(v uint64) { l.Code = uint8(v) }), nil
	case "checksum":
		return packet.UintField(packet.FieldComputedChecksum, 16,
			func() uint64 { return uint64(l.Checksum) },
			func(v uint64) { l.Checksum = uint16(v) }), nil
	case "rest":
		return packet.UintField(packet.FieldInt, 32,
			func() uint64 { return uint64(l.RestOfHeader) },
			func(v uint64) { l.RestOfHeader = uint32(v) }), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the ICMP protocol number.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	if f == packet.FamilyIP {
		return uint32(pktkit.IPProtoICMP), true
	}
	return 0, false
}

// BindChecksum computes the checksum over header and suffix. ICMPv4 uses no
// pseudo-header.
func (l *Layer) BindChecksum(ctx packet.ChecksumContext) error {
	l.Checksum = 0
	var b pktkit.Builder
	if err := l.Encode(&b); err != nil {
		return err
	}
	var c pktkit.Checksum
	c.Write(b.Bytes())
	c.Write(ctx.Suffix)
	l.Checksum = c.Sum16()
	return nil
}
