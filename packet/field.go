package packet

import (
	"errors"
	"fmt"

	"github.com/pktkit/pktkit"
)

// ErrUnknownField is returned by Layer.Field for names the layer does not declare.
var ErrUnknownField = errors.New("unknown field")

// FieldKind classifies a field handle.
type FieldKind uint8

const (
	FieldInt              FieldKind = iota // plain integer field
	FieldBytes                             // byte sequence field
	FieldComputedLength                    // length field bound by the resolver
	FieldComputedChecksum                  // checksum field bound by the resolver
	FieldComputedNext                      // next-protocol field bound by the resolver
)

// IsComputed returns true for fields whose value is bound by the resolver
// rather than set directly.
func (k FieldKind) IsComputed() bool { return k >= FieldComputedLength }

// Field is a typed handle to one named layer field. It lets the stack and
// resolver operate uniformly over heterogeneous layer types without
// reflection.
type Field interface {
	// Kind classifies the field.
	Kind() FieldKind
	// Uint returns the field's integer value. Zero for byte fields.
	Uint() uint64
	// SetUint stores an integer value, failing with ErrFieldOverflow when it
	// does not fit the field's declared width.
	SetUint(v uint64) error
	// Bytes returns the field's byte content. For integer fields it is nil.
	Bytes() []byte
	// SetBytes stores byte content. Integer fields reject it.
	SetBytes(p []byte) error
}

type uintField struct {
	kind FieldKind
	bits uint8
	get  func() uint64
	set  func(uint64)
}

// UintField returns a Field handle over an integer field of the given bit
// width backed by the get/set accessors.
func UintField(kind FieldKind, bits int, get func() uint64, set func(uint64)) Field {
	if bits <= 0 || bits > 64 {
		panic("packet: field bit width out of range")
	}
	return &uintField{kind: kind, bits: uint8(bits), get: get, set: set}
}

func (f *uintField) Kind() FieldKind { return f.kind }
func (f *uintField) Uint() uint64    { return f.get() }
func (f *uintField) Bytes() []byte   { return nil }

func (f *uintField) SetUint(v uint64) error {
	if f.bits < 64 && v >= 1<<f.bits {
		return fmt.Errorf("%w: %#x in %d bits", pktkit.ErrFieldOverflow, v, f.bits)
	}
	f.set(v)
	return nil
}

func (f *uintField) SetBytes(p []byte) error {
	return errors.New("integer field holds no bytes")
}

type bytesField struct {
	kind FieldKind
	get  func() []byte
	set  func([]byte) error
}

// BytesField returns a Field handle over a byte-sequence field backed by the
// get/set accessors. Pass kind FieldBytes for plain spans.
func BytesField(kind FieldKind, get func() []byte, set func([]byte) error) Field {
	return &bytesField{kind: kind, get: get, set: set}
}

func (f *bytesField) Kind() FieldKind { return f.kind }
func (f *bytesField) Uint() uint64    { return 0 }
func (f *bytesField) Bytes() []byte   { return f.get() }

func (f *bytesField) SetUint(v uint64) error {
	return errors.New("byte field holds no integer")
}

func (f *bytesField) SetBytes(p []byte) error { return f.set(p) }

// FixedBytes adapts a fixed-length byte array field: SetBytes fails unless
// the input length matches exactly.
func FixedBytes(kind FieldKind, dst []byte) Field {
	return BytesField(kind,
		func() []byte { return dst },
		func(p []byte) error {
			if len(p) != len(dst) {
				return fmt.Errorf("%w: need %d bytes, got %d", pktkit.ErrFieldOverflow, len(dst), len(p))
			}
			copy(dst, p)
			return nil
		})
}
