// Package arp implements the ARP layer in its IPv4-over-Ethernet form.
// See [RFC826].
//
// [RFC826]: https://tools.ietf.org/html/rfc826
package arp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.EtherKey(pktkit.EtherTypeARP), Decode)
}

// ARP header operation values.
type Operation uint16

const (
	OpRequest Operation = 1 // request
	OpReply   Operation = 2 // reply
)

func (op Operation) String() string {
	switch op {
	case OpRequest:
		return "request"
	case OpReply:
		return "reply"
	}
	return "unknown op"
}

const (
	sizeHeader = 28
	// Ethernet hardware type and address length.
	hardwareTypeEthernet = 1
	hardwareLen          = 6
	protoLen             = 4
)

var (
	errHardware = errors.New("arp: not Ethernet hardware")
	errProtocol = errors.New("arp: not IPv4 protocol")
)

// Layer holds the fields of an IPv4-over-Ethernet ARP packet. It is a
// terminal layer with no computed fields: what follows it is always payload.
type Layer struct {
	// Operation discriminates request from reply.
	Operation Operation
	// SenderHardwareAddr indicates the address of the host sending the
	// request. In a reply it indicates the address of the host that the
	// request was looking for.
	SenderHardwareAddr [6]byte
	SenderProtoAddr    [4]byte
	// TargetHardwareAddr is ignored in requests. In a reply it indicates
	// the address of the host that originated the request.
	TargetHardwareAddr [6]byte
	TargetProtoAddr    [4]byte
}

// Decode parses one ARP packet, rejecting hardware/protocol spaces other
// than Ethernet/IPv4.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	hdr, err := cur.Bytes(sizeHeader)
	if err != nil {
		return nil, packet.None, fmt.Errorf("arp: %w", err)
	}
	v := pktkit.NewValidator(pktkit.ValidateAllowMultiErrors)
	if binary.BigEndian.Uint16(hdr[0:2]) != hardwareTypeEthernet || hdr[4] != hardwareLen {
		v.AddError(errHardware)
	}
	if pktkit.EtherType(binary.BigEndian.Uint16(hdr[2:4])) != pktkit.EtherTypeIPv4 || hdr[5] != protoLen {
		v.AddError(errProtocol)
	}
	if v.HasError() {
		return nil, packet.None, v.Err()
	}
	var l Layer
	l.Operation = Operation(binary.BigEndian.Uint16(hdr[6:8]))
	copy(l.SenderHardwareAddr[:], hdr[8:14])
	copy(l.SenderProtoAddr[:], hdr[14:18])
	copy(l.TargetHardwareAddr[:], hdr[18:24])
	copy(l.TargetProtoAddr[:], hdr[24:28])
	return &l, packet.None, nil
}

func (l *Layer) Protocol() string { return "ARP" }

func (l *Layer) Length() int { return sizeHeader }

func (l *Layer) Encode(b *pktkit.Builder) error {
	b.PutUint16(pktkit.BigEndian, hardwareTypeEthernet)
	b.PutUint16(pktkit.BigEndian, uint16(pktkit.EtherTypeIPv4))
	b.PutUint8(hardwareLen)
	b.PutUint8(protoLen)
	b.PutUint16(pktkit.BigEndian, uint16(l.Operation))
	b.Put(l.SenderHardwareAddr[:])
	b.Put(l.SenderProtoAddr[:])
	b.Put(l.TargetHardwareAddr[:])
	b.Put(l.TargetProtoAddr[:])
	return nil
}

func (l *Layer) Fields() []string {
	return []string{"op", "sha", "spa", "tha", "tpa"}
}

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "op":
		return packet.UintField(packet.FieldInt, 16,
			func() uint64 { return uint64(l.Operation) },
			func(v uint64) { l.Operation = Operation(v) }), nil
	case "sha":
		return packet.FixedBytes(packet.FieldBytes, l.SenderHardwareAddr[:]), nil
	case "spa":
		return packet.FixedBytes(packet.FieldBytes, l.SenderProtoAddr[:]), nil
	case "tha":
		return packet.FixedBytes(packet.FieldBytes, l.TargetHardwareAddr[:]), nil
	case "tpa":
		return packet.FixedBytes(packet.FieldBytes, l.TargetProtoAddr[:]), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the ARP layer's EtherType value.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	if f == packet.FamilyEther {
		return uint32(pktkit.EtherTypeARP), true
	}
	return 0, false
}
