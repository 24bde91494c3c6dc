// Package packet composes independently-defined protocol layers into packet
// stacks: it dissects raw bytes into an ordered chain of typed layers plus a
// trailing payload, and serializes crafted stacks back into wire bytes,
// resolving inter-layer-dependent fields (lengths, checksums, next-protocol
// identifiers) along the way.
package packet

import (
	"github.com/pktkit/pktkit"
)

// Family namespaces dispatch key values. The same numeric value names
// different layer types in different families: 6 after an IPv4 header is
// TCP, 6 in the link family is something else entirely.
type Family uint8

const (
	FamilyNone  Family = iota // no family
	FamilyLink                // link types, values of pktkit.LinkType
	FamilyEther               // EtherType values
	FamilyIP                  // IP protocol numbers
)

func (f Family) String() string {
	switch f {
	case FamilyLink:
		return "link"
	case FamilyEther:
		return "ether"
	case FamilyIP:
		return "ip"
	}
	return "none"
}

// Key names a layer type: a dispatch value interpreted within a family.
type Key struct {
	Family Family
	Value  uint32
}

// None is the zero Key, reported by terminal layers.
var None = Key{}

// IsNone returns true for the zero Key.
func (k Key) IsNone() bool { return k == None }

// LinkKey returns the dispatch key of a capture link type.
func LinkKey(lt pktkit.LinkType) Key { return Key{Family: FamilyLink, Value: uint32(lt)} }

// EtherKey returns the dispatch key of an EtherType value.
func EtherKey(et pktkit.EtherType) Key { return Key{Family: FamilyEther, Value: uint32(et)} }

// IPKey returns the dispatch key of an IP protocol number.
func IPKey(proto pktkit.IPProto) Key { return Key{Family: FamilyIP, Value: uint32(proto)} }

// Layer is one protocol header of a packet: it decodes itself from bytes
// into typed fields and encodes its fields back into bytes. A Layer is owned
// exclusively by the Stack containing it and holds no references to sibling
// layers; cross-layer data needed by computed fields is supplied by the
// resolver at build time.
type Layer interface {
	// Protocol returns the identity tag of the layer type.
	Protocol() string
	// Length returns the encoded byte length of the layer given its current
	// field values.
	Length() int
	// Encode appends the layer's wire representation to b, serializing
	// fields in declared order. Computed fields emit the value most recently
	// bound by the resolver, or their currently set value when the layer is
	// encoded standalone.
	Encode(b *pktkit.Builder) error
	// Field returns a handle to the named field, or ErrUnknownField.
	Field(name string) (Field, error)
	// Fields lists the layer's field names in wire order.
	Fields() []string
}

// Decoder parses one layer from cur, consuming exactly the bytes that belong
// to it, and reports the dispatch key naming the type of what follows (None
// when the layer is terminal; remaining bytes then become payload).
type Decoder func(cur *pktkit.Cursor) (Layer, Key, error)

// Keyed is implemented by layers that have a dispatch value of their own
// within one or more families. The resolver uses it to bind the
// next-protocol field of the layer above.
type Keyed interface {
	// KeyIn reports the value naming this layer type within family f.
	KeyIn(f Family) (uint32, bool)
}

// NextBinder is implemented by layers carrying a next-protocol field.
type NextBinder interface {
	// NextFamily returns the family in which this layer's next-protocol
	// field selects the following layer.
	NextFamily() Family
	// BindNext stores the dispatch value of the following layer into the
	// next-protocol field. Returns ErrFieldOverflow if the value does not
	// fit the field.
	BindNext(value uint32) error
}

// LengthBinder is implemented by layers carrying a length field.
type LengthBinder interface {
	// BindLength binds the length field given suffix, the serialized byte
	// length of everything after this layer in the stack (later layers plus
	// payload). Whether the field covers the suffix alone or the layer's own
	// bytes too is the layer's declaration.
	BindLength(suffix int) error
}

// ChecksumContext carries the cross-layer data a checksum field depends on.
// The resolver assembles it; the layer never reaches into siblings.
type ChecksumContext struct {
	// Pseudo supplies pseudo-header data, taken from the nearest enclosing
	// layer implementing PseudoHeaderer. Nil when no such layer exists.
	Pseudo PseudoHeaderer
	// Suffix is the final encoding of everything after the layer: later
	// layers followed by the payload.
	Suffix []byte
}

// ChecksumBinder is implemented by layers carrying a checksum field.
type ChecksumBinder interface {
	// BindChecksum computes the checksum over the layer's own provisional
	// encoding (checksum octets zeroed) plus whatever the layer declares it
	// to cover from ctx, and stores it into the field. Returns
	// ErrUnresolvedDependency when a required pseudo-header source is
	// absent.
	BindChecksum(ctx ChecksumContext) error
}

// PseudoHeaderer is implemented by network layers able to contribute a
// pseudo-header to a transport checksum.
type PseudoHeaderer interface {
	// WritePseudoHeader adds the pseudo-header covering length bytes of
	// protocol proto to the checksum accumulator.
	WritePseudoHeader(c *pktkit.Checksum, proto pktkit.IPProto, length int)
}
