package udp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/ipv4"
	"github.com/pktkit/pktkit/packet"
)

func TestRoundTrip(t *testing.T) {
	want := Layer{
		SourcePort:      53,
		DestinationPort: 33000,
		DatagramLength:  8,
		Checksum:        0x1234,
	}
	var b pktkit.Builder
	require.NoError(t, want.Encode(&b))
	require.Equal(t, sizeHeader, b.Len())

	cur := pktkit.NewCursor(b.Bytes())
	l, next, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, packet.None, next, "UDP carries opaque payload")
	require.Equal(t, want, *l.(*Layer))
}

func TestDecodeTruncated(t *testing.T) {
	cur := pktkit.NewCursor(make([]byte, 7))
	_, _, err := Decode(&cur)
	require.ErrorIs(t, err, pktkit.ErrTruncated)
}

func TestBindLength(t *testing.T) {
	var l Layer
	require.NoError(t, l.BindLength(100))
	require.Equal(t, uint16(108), l.DatagramLength)
	require.ErrorIs(t, l.BindLength(1<<16-8), pktkit.ErrFieldOverflow)
}

func TestBindChecksumNeedsPseudo(t *testing.T) {
	var l Layer
	err := l.BindChecksum(packet.ChecksumContext{})
	require.ErrorIs(t, err, pktkit.ErrUnresolvedDependency)
}

func TestBindChecksumVerifies(t *testing.T) {
	ip := ipv4.Layer{Source: [4]byte{10, 0, 0, 1}, Destination: [4]byte{10, 0, 0, 2}}
	l := Layer{SourcePort: 5353, DestinationPort: 5353, DatagramLength: 12}
	payload := []byte{0, 1, 2, 3}
	require.NoError(t, l.BindChecksum(packet.ChecksumContext{Pseudo: &ip, Suffix: payload}))
	require.Equal(t, uint16(0xbffd), l.Checksum)

	// Pseudo-header plus datagram with the bound checksum sums to zero.
	var c pktkit.Checksum
	ip.WritePseudoHeader(&c, pktkit.IPProtoUDP, sizeHeader+len(payload))
	var b pktkit.Builder
	require.NoError(t, l.Encode(&b))
	c.Write(b.Bytes())
	c.Write(payload)
	require.Equal(t, uint16(0), c.Sum16())
}
