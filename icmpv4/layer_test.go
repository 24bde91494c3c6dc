package icmpv4

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

func TestEcho(t *testing.T) {
	l := NewEcho(0x1234, 7)
	require.Equal(t, TypeEcho, l.Type)
	require.Equal(t, uint16(0x1234), l.Ident())
	require.Equal(t, uint16(7), l.SeqNumber())
}

func TestRoundTrip(t *testing.T) {
	want := Layer{
		Type:         TypeDestinationUnreachable,
		Code:         uint8(CodePortUnreachable),
		Checksum:     0xaabb,
		RestOfHeader: 0,
	}
	var b pktkit.Builder
	require.NoError(t, want.Encode(&b))
	require.Equal(t, sizeHeader, b.Len())

	cur := pktkit.NewCursor(b.Bytes())
	l, next, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, packet.None, next, "ICMP is terminal")
	require.Equal(t, want, *l.(*Layer))
}

func TestDecodeTruncated(t *testing.T) {
	cur := pktkit.NewCursor(make([]byte, 7))
	_, _, err := Decode(&cur)
	require.ErrorIs(t, err, pktkit.ErrTruncated)
}

func TestBindChecksumVerifies(t *testing.T) {
	l := NewEcho(0xbeef, 1)
	data := []byte{8, 6, 7, 5, 3, 0, 9}
	require.NoError(t, l.BindChecksum(packet.ChecksumContext{Suffix: data}))
	require.NotZero(t, l.Checksum)

	// The message with its bound checksum sums to zero; no pseudo-header
	// enters the ICMP sum.
	var b pktkit.Builder
	require.NoError(t, l.Encode(&b))
	var c pktkit.Checksum
	c.Write(b.Bytes())
	c.Write(data)
	require.Equal(t, uint16(0), c.Sum16())
}
