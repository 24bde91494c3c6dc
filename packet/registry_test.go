package packet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
)

func markerDecoder(marker byte) Decoder {
	return func(cur *pktkit.Cursor) (Layer, Key, error) {
		if err := cur.Skip(cur.Remaining()); err != nil {
			return nil, None, err
		}
		return &Raw{Data: []byte{marker}}, None, nil
	}
}

func decodeMarker(t *testing.T, r *Registry, k Key) byte {
	t.Helper()
	d, ok := r.Resolve(k)
	require.True(t, ok)
	cur := pktkit.NewCursor(nil)
	l, _, err := d(&cur)
	require.NoError(t, err)
	return l.(*Raw).Data[0]
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	k := EtherKey(0x1234)
	require.NoError(t, r.Register(k, markerDecoder('a')))
	err := r.Register(k, markerDecoder('b'))
	require.ErrorIs(t, err, pktkit.ErrDuplicateRegistration)
	// First binding survives a rejected duplicate.
	require.Equal(t, byte('a'), decodeMarker(t, r, k))
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry()
	k := IPKey(0xfe)
	require.NoError(t, r.Register(k, markerDecoder('a')))
	r.Override(k, markerDecoder('b'))
	require.Equal(t, byte('b'), decodeMarker(t, r, k))
}

func TestRegistryMiss(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve(LinkKey(200))
	require.False(t, ok)
}

func TestRegistryFamiliesDisambiguate(t *testing.T) {
	// The same numeric value maps to different layer types per family.
	r := NewRegistry()
	require.NoError(t, r.Register(Key{Family: FamilyEther, Value: 6}, markerDecoder('e')))
	require.NoError(t, r.Register(Key{Family: FamilyIP, Value: 6}, markerDecoder('i')))
	require.Equal(t, byte('e'), decodeMarker(t, r, Key{Family: FamilyEther, Value: 6}))
	require.Equal(t, byte('i'), decodeMarker(t, r, Key{Family: FamilyIP, Value: 6}))
}

func TestRegistryPanics(t *testing.T) {
	r := NewRegistry()
	require.Panics(t, func() { r.Register(EtherKey(1), nil) })
	require.Panics(t, func() { r.Register(None, markerDecoder('a')) })
	require.Panics(t, func() { r.Override(None, markerDecoder('a')) })
}
