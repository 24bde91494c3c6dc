package tcp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/ipv4"
	"github.com/pktkit/pktkit/packet"
)

// Captured HTTP segment header, no options.
const testHeaderHex = "0d2c005038affe14114c618c501825bca9580000"

func TestDecodeKnownHeader(t *testing.T) {
	raw, err := hex.DecodeString(testHeaderHex)
	require.NoError(t, err)
	cur := pktkit.NewCursor(raw)
	l, next, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, packet.None, next, "TCP carries opaque payload")
	require.Equal(t, 0, cur.Remaining())

	seg := l.(*Layer)
	require.Equal(t, uint16(3372), seg.SourcePort)
	require.Equal(t, uint16(80), seg.DestinationPort)
	require.Equal(t, uint32(0x38affe14), seg.Seq)
	require.Equal(t, uint32(0x114c618c), seg.Ack)
	require.Equal(t, uint8(5), seg.Offset)
	require.Equal(t, FlagPSH|FlagACK, seg.Flags)
	require.Equal(t, uint16(9660), seg.Window)
	require.Equal(t, uint16(0xa958), seg.Checksum)
	require.Equal(t, uint16(0), seg.UrgentPointer)
	require.Empty(t, seg.Options)

	var b pktkit.Builder
	require.NoError(t, seg.Encode(&b))
	require.Equal(t, raw, b.Bytes())
}

func TestDecodeWithOptions(t *testing.T) {
	raw, _ := hex.DecodeString(testHeaderHex)
	raw[12] = 0x70 // offset 7: two option words
	raw = append(raw, 2, 4, 5, 0xb4, 1, 1, 4, 2) // MSS, NOP, NOP, SACK permitted
	cur := pktkit.NewCursor(raw)
	l, _, err := Decode(&cur)
	require.NoError(t, err)
	require.Equal(t, raw[20:], l.(*Layer).Options)
}

func TestDecodeShortOffset(t *testing.T) {
	raw, _ := hex.DecodeString(testHeaderHex)
	raw[12] = 0x40
	cur := pktkit.NewCursor(raw)
	_, _, err := Decode(&cur)
	require.ErrorIs(t, err, errShortOffset)
}

func TestDecodeTruncatedOptions(t *testing.T) {
	raw, _ := hex.DecodeString(testHeaderHex)
	raw[12] = 0x60 // one option word declared, none present
	cur := pktkit.NewCursor(raw)
	_, _, err := Decode(&cur)
	require.ErrorIs(t, err, pktkit.ErrTruncated)
}

func TestBindLength(t *testing.T) {
	l := Layer{Options: []byte{2, 4, 5, 0xb4, 4, 2}}
	require.NoError(t, l.BindLength(1000))
	require.Equal(t, []byte{2, 4, 5, 0xb4, 4, 2, 0, 0}, l.Options, "options padded with EOL to a word boundary")
	require.Equal(t, uint8(7), l.Offset)

	l.Options = make([]byte, 44)
	require.ErrorIs(t, l.BindLength(0), pktkit.ErrFieldOverflow, "data offset caps the header at 60 bytes")
}

func TestBindChecksumNeedsPseudo(t *testing.T) {
	var l Layer
	err := l.BindChecksum(packet.ChecksumContext{})
	require.ErrorIs(t, err, pktkit.ErrUnresolvedDependency)
}

func TestBindChecksumKnownValue(t *testing.T) {
	raw, _ := hex.DecodeString(testHeaderHex)
	cur := pktkit.NewCursor(raw)
	l, _, err := Decode(&cur)
	require.NoError(t, err)
	seg := l.(*Layer)

	ip := ipv4.Layer{Source: [4]byte{10, 0, 0, 1}, Destination: [4]byte{10, 0, 0, 2}}
	err = seg.BindChecksum(packet.ChecksumContext{Pseudo: &ip, Suffix: []byte{0, 1, 2, 3}})
	require.NoError(t, err)
	require.Equal(t, uint16(0xbced), seg.Checksum)
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "[]", Flags(0).String())
	require.Equal(t, "[PSH,ACK]", (FlagPSH | FlagACK).String())
	require.Equal(t, "[SYN,ACK]", (FlagSYN | FlagACK).String())
	require.Equal(t, "[FIN,URG,NS ]", (FlagFIN | FlagURG | FlagNS).String())
	require.True(t, (FlagSYN | FlagACK).HasAll(FlagSYN))
	require.False(t, FlagSYN.HasAny(FlagACK|FlagFIN))
	require.Equal(t, FlagFIN, Flags(0xfe01).Mask())
}
