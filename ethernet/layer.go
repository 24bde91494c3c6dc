package ethernet

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.LinkKey(pktkit.LinkTypeEthernet), Decode)
}

// Layer holds the fields of an Ethernet frame header without preamble
// (first octet is start of destination address) and without trailing frame
// check sequence. See [IEEE 802.3].
//
// [IEEE 802.3]: https://standards.ieee.org/ieee/802.3/7071/
type Layer struct {
	// Destination is the target's MAC/hardware address.
	Destination [6]byte
	// Source is the sender's MAC/hardware address.
	Source [6]byte
	// Type is the EtherType naming the protocol of the frame payload.
	// Next-protocol field: the resolver binds it to the dispatch value of
	// the following layer on build.
	Type pktkit.EtherType
}

// Decode parses one Ethernet header. The reported next key is the frame's
// EtherType; frames whose type field is actually a payload size are
// terminal.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	hdr, err := cur.Bytes(sizeHeader)
	if err != nil {
		return nil, packet.None, fmt.Errorf("ethernet: %w", err)
	}
	var l Layer
	copy(l.Destination[:], hdr[0:6])
	copy(l.Source[:], hdr[6:12])
	l.Type = pktkit.EtherType(binary.BigEndian.Uint16(hdr[12:14]))
	if l.Type.IsSize() {
		return &l, packet.None, nil
	}
	return &l, packet.EtherKey(l.Type), nil
}

func (l *Layer) Protocol() string { return "Ethernet" }

func (l *Layer) Length() int { return sizeHeader }

func (l *Layer) Encode(b *pktkit.Builder) error {
	b.Put(l.Destination[:])
	b.Put(l.Source[:])
	b.PutUint16(pktkit.BigEndian, uint16(l.Type))
	return nil
}

// IsBroadcast returns true if the destination is the broadcast address ff:ff:ff:ff:ff:ff.
func (l *Layer) IsBroadcast() bool {
	return l.Destination == BroadcastAddr()
}

func (l *Layer) Fields() []string { return []string{"dst", "src", "type"} }

func (l *Layer) Field(name string) (packet.Field, error) {
	switch name {
	case "dst":
		return packet.FixedBytes(packet.FieldBytes, l.Destination[:]), nil
	case "src":
		return packet.FixedBytes(packet.FieldBytes, l.Source[:]), nil
	case "type":
		return packet.UintField(packet.FieldComputedNext, 16,
			func() uint64 { return uint64(l.Type) },
			func(v uint64) { l.Type = pktkit.EtherType(v) }), nil
	}
	return nil, fmt.Errorf("%w: %q", packet.ErrUnknownField, name)
}

// KeyIn reports the Ethernet layer's dispatch value within the link family.
func (l *Layer) KeyIn(f packet.Family) (uint32, bool) {
	if f == packet.FamilyLink {
		return uint32(pktkit.LinkTypeEthernet), true
	}
	return 0, false
}

// NextFamily implements [packet.NextBinder]: the type field selects within
// the EtherType family.
func (l *Layer) NextFamily() packet.Family { return packet.FamilyEther }

// BindNext stores the following layer's EtherType value.
func (l *Layer) BindNext(v uint32) error {
	if v > math.MaxUint16 {
		return fmt.Errorf("ethernet: %w: ethertype %#x", pktkit.ErrFieldOverflow, v)
	}
	l.Type = pktkit.EtherType(v)
	return nil
}
