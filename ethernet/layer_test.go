package ethernet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/packet"
)

var testFrame = []byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // dst: broadcast
	0xde, 0xad, 0x00, 0x00, 0xbe, 0xef, // src
	0x08, 0x06, // ARP
}

func TestDecode(t *testing.T) {
	cur := pktkit.NewCursor(testFrame)
	l, next, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, packet.EtherKey(pktkit.EtherTypeARP), next)
	eth := l.(*Layer)
	require.Equal(t, BroadcastAddr(), eth.Destination)
	require.True(t, eth.IsBroadcast())
	require.Equal(t, [6]byte{0xde, 0xad, 0, 0, 0xbe, 0xef}, eth.Source)
	require.Equal(t, 0, cur.Remaining())

	var b pktkit.Builder
	require.NoError(t, eth.Encode(&b))
	require.Equal(t, testFrame, b.Bytes())
}

func TestDecodeSizeTypeIsTerminal(t *testing.T) {
	frame := append([]byte(nil), testFrame...)
	frame[12], frame[13] = 0x00, 0x40 // 64: a length, not an EtherType
	cur := pktkit.NewCursor(frame)
	l, next, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, packet.None, next)
	require.True(t, l.(*Layer).Type.IsSize())
}

func TestDecodeTruncated(t *testing.T) {
	cur := pktkit.NewCursor(testFrame[:10])
	_, _, err := Decode(&cur)
	require.ErrorIs(t, err, pktkit.ErrTruncated)
}

func TestFields(t *testing.T) {
	var l Layer
	f, err := l.Field("type")
	require.NoError(t, err)
	require.Equal(t, packet.FieldComputedNext, f.Kind())
	require.NoError(t, f.SetUint(uint64(pktkit.EtherTypeIPv6)))
	require.Equal(t, pktkit.EtherTypeIPv6, l.Type)

	f, err = l.Field("src")
	require.NoError(t, err)
	require.NoError(t, f.SetBytes([]byte{1, 2, 3, 4, 5, 6}))
	require.Error(t, f.SetBytes([]byte{1, 2}), "hardware address length is fixed")
	require.Equal(t, [6]byte{1, 2, 3, 4, 5, 6}, l.Source)

	_, err = l.Field("vlan")
	require.ErrorIs(t, err, packet.ErrUnknownField)
}

func TestBindNext(t *testing.T) {
	var l Layer
	require.NoError(t, l.BindNext(uint32(pktkit.EtherTypeIPv4)))
	require.Equal(t, pktkit.EtherTypeIPv4, l.Type)
	require.ErrorIs(t, l.BindNext(0x10000), pktkit.ErrFieldOverflow)
}

func TestAppendAddr(t *testing.T) {
	got := AppendAddr(nil, [6]byte{0x00, 0x1b, 0xc5, 0x00, 0x00, 0x0a})
	require.Equal(t, "00:1b:c5:00:00:0a", string(got))
}
