package packet

import (
	"fmt"

	"github.com/pktkit/pktkit"
)

// Raw is an opaque run of bytes used as a layer: un-parsed data inserted
// mid-stack, or application data crafted explicitly. It is terminal and has
// no computed fields.
type Raw struct {
	Data []byte
}

// DecodeRaw consumes all remaining bytes into a Raw layer.
func DecodeRaw(cur *pktkit.Cursor) (Layer, Key, error) {
	rest, err := cur.Rest()
	if err != nil {
		return nil, None, err
	}
	return &Raw{Data: rest}, None, nil
}

func (r *Raw) Protocol() string { return "Raw" }

func (r *Raw) Length() int { return len(r.Data) }

func (r *Raw) Encode(b *pktkit.Builder) error {
	b.Put(r.Data)
	return nil
}

func (r *Raw) Fields() []string { return []string{"data"} }

func (r *Raw) Field(name string) (Field, error) {
	if name != "data" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return BytesField(FieldBytes,
		func() []byte { return r.Data },
		func(p []byte) error { r.Data = p; return nil }), nil
}
