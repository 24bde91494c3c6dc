package packet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
)

func protocols(s *Stack) []string {
	names := make([]string, s.Len())
	for i, l := range s.Layers() {
		names[i] = l.Protocol()
	}
	return names
}

func TestStackEditing(t *testing.T) {
	s := NewStack(&capsule{id: 1}, &seal{})
	require.Equal(t, []string{"capsule", "seal"}, protocols(s))

	s.Push(&Raw{Data: []byte{1}})
	require.Equal(t, []string{"capsule", "seal", "Raw"}, protocols(s))

	s.Insert(1, &capsule{id: 2})
	require.Equal(t, []string{"capsule", "capsule", "seal", "Raw"}, protocols(s))

	removed := s.Remove(2)
	require.Equal(t, "seal", removed.Protocol())
	require.Equal(t, []string{"capsule", "capsule", "Raw"}, protocols(s))

	popped := s.Pop()
	require.Equal(t, "Raw", popped.Protocol())
	require.Equal(t, 2, s.Len())

	s.SetPayload([]byte{1, 2, 3})
	require.Equal(t, []byte{1, 2, 3}, s.Payload())
}

func TestStackPopEmpty(t *testing.T) {
	s := NewStack()
	require.Nil(t, s.Pop())
}

func TestStackLengthUnbuilt(t *testing.T) {
	// capsule carries a length field: its span is unknowable before a build.
	s := NewStack(&capsule{id: 1})
	_, err := s.Length()
	require.ErrorIs(t, err, pktkit.ErrNotBuilt)

	// A stack of fixed-span layers has a computable length.
	s = NewStack(&seal{}, &Raw{Data: []byte{1, 2}})
	s.SetPayload([]byte{3, 4, 5})
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 4+2+3, n)
}

func TestStackBytesRequiresBuild(t *testing.T) {
	s := NewStack(&capsule{id: 1})
	_, err := s.Bytes()
	require.ErrorIs(t, err, pktkit.ErrNotBuilt)
	_, err = s.Build()
	require.NoError(t, err)
	_, err = s.Bytes()
	require.NoError(t, err)
}

func TestStackMutationInvalidatesBuild(t *testing.T) {
	s := NewStack(&capsule{id: 1})
	s.SetPayload([]byte{1, 2})
	_, err := s.Build()
	require.NoError(t, err)

	// Taking a field handle may be followed by a write; the cached build
	// cannot be trusted afterwards.
	f, err := s.Field(0, "tag")
	require.NoError(t, err)
	require.NoError(t, f.SetUint(0xaaaa))
	_, err = s.Bytes()
	require.ErrorIs(t, err, pktkit.ErrNotBuilt)

	_, err = s.Build()
	require.NoError(t, err)
	s.Push(&Raw{Data: []byte{9}})
	_, err = s.Bytes()
	require.ErrorIs(t, err, pktkit.ErrNotBuilt)
}

func TestStackFieldErrors(t *testing.T) {
	s := NewStack(&capsule{id: 1})
	_, err := s.Field(3, "tag")
	require.Error(t, err)
	_, err = s.Field(0, "bogus")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestFieldKinds(t *testing.T) {
	c := &capsule{id: 1}
	f, err := c.Field("length")
	require.NoError(t, err)
	require.Equal(t, FieldComputedLength, f.Kind())
	require.True(t, f.Kind().IsComputed())

	f, err = c.Field("tag")
	require.NoError(t, err)
	require.False(t, f.Kind().IsComputed())
	require.NoError(t, f.SetUint(0xffff))
	require.Equal(t, uint64(0xffff), f.Uint())
	require.ErrorIs(t, f.SetUint(0x10000), pktkit.ErrFieldOverflow)
	require.Error(t, f.SetBytes([]byte{1}))

	r := &Raw{Data: []byte{1, 2}}
	rf, err := r.Field("data")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, rf.Bytes())
	require.NoError(t, rf.SetBytes([]byte{3}))
	require.Equal(t, []byte{3}, r.Data)
	require.Error(t, rf.SetUint(1))
}
