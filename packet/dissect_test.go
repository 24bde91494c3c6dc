package packet_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/arp"
	"github.com/pktkit/pktkit/ethernet"
	"github.com/pktkit/pktkit/internal/ltest"
	"github.com/pktkit/pktkit/ipv4"
	"github.com/pktkit/pktkit/packet"
	"github.com/pktkit/pktkit/tcp"
	"github.com/pktkit/pktkit/udp"

	_ "github.com/pktkit/pktkit/icmpv4"
	_ "github.com/pktkit/pktkit/ipv6"
	_ "github.com/pktkit/pktkit/rawip"
)

var ethFirst = packet.LinkKey(pktkit.LinkTypeEthernet)

func newGen(seed int64) (*ltest.PacketGen, *rand.Rand) {
	rng := rand.New(rand.NewSource(seed))
	var gen ltest.PacketGen
	gen.RandomizeAddrs(rng)
	return &gen, rng
}

func TestDissectEthIPv4TCP(t *testing.T) {
	gen, rng := newGen(1)
	payload := make([]byte, 32)
	rng.Read(payload)
	frame := gen.EthIPv4TCP(0x11223344, 0x55667788, 4096, payload)

	s, err := packet.Dissect(frame, ethFirst, nil)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	eth := s.Layer(0).(*ethernet.Layer)
	require.Equal(t, gen.DstMAC, eth.Destination)
	require.Equal(t, gen.SrcMAC, eth.Source)
	require.Equal(t, pktkit.EtherTypeIPv4, eth.Type)

	ip := s.Layer(1).(*ipv4.Layer)
	require.Equal(t, gen.SrcIPv4, ip.Source)
	require.Equal(t, gen.DstIPv4, ip.Destination)
	require.Equal(t, pktkit.IPProtoTCP, ip.Proto)
	require.Equal(t, uint16(20+20+len(payload)), ip.TotalLength)
	require.Equal(t, uint8(64), ip.TTL)

	tl := s.Layer(2).(*tcp.Layer)
	require.Equal(t, gen.SrcPort, tl.SourcePort)
	require.Equal(t, gen.DstPort, tl.DestinationPort)
	require.Equal(t, uint32(0x11223344), tl.Seq)
	require.Equal(t, uint32(0x55667788), tl.Ack)
	require.Equal(t, tcp.FlagPSH|tcp.FlagACK, tl.Flags)
	require.Equal(t, uint16(4096), tl.Window)
	require.Equal(t, uint8(5), tl.Offset)

	require.Empty(t, cmp.Diff(payload, s.Payload()))
	got, err := s.Bytes()
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(frame, got), "dissected stack spans the input")
}

func TestDissectRawIPCapture(t *testing.T) {
	gen, rng := newGen(2)
	payload := make([]byte, 24)
	rng.Read(payload)
	frame := gen.EthIPv4UDP(payload)

	s, err := packet.Dissect(frame[14:], packet.LinkKey(pktkit.LinkTypeIPv4), nil)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.Equal(t, "IPv4", s.Layer(0).Protocol())
	ul := s.Layer(1).(*udp.Layer)
	require.Equal(t, gen.DstPort, ul.DestinationPort)
	require.Equal(t, uint16(8+len(payload)), ul.DatagramLength)
	require.Equal(t, payload, s.Payload())
}

func TestDissectEthIPv6UDP(t *testing.T) {
	gen, rng := newGen(3)
	payload := make([]byte, 16)
	rng.Read(payload)
	frame := gen.EthIPv6UDP(payload)

	s, err := packet.Dissect(frame, ethFirst, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Ethernet", "IPv6", "UDP"}, layerNames(s))
	require.Equal(t, payload, s.Payload())
}

func TestDissectUnknownKeyFallback(t *testing.T) {
	body := []byte{0xde, 0xad, 0xbe, 0xef}
	eth := &ethernet.Layer{Type: 0x88b5} // experimental, never registered
	s := packet.NewStack(eth)
	s.SetPayload(body)
	frame, err := s.Build()
	require.NoError(t, err)

	got, err := packet.Dissect(frame, ethFirst, nil)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, body, got.Payload())

	strict, err := packet.Dissect(frame, ethFirst, &packet.DissectOptions{Strict: true})
	require.ErrorIs(t, err, pktkit.ErrInvalidDispatchKey)
	require.Equal(t, 1, strict.Len(), "outer layers preserved on strict failure")
	require.Equal(t, body, strict.Payload())
}

func TestDissectTruncatedPreservesPartial(t *testing.T) {
	gen, rng := newGen(4)
	payload := make([]byte, 16)
	rng.Read(payload)
	frame := gen.EthIPv4TCP(1, 2, 512, payload)

	cut := frame[:20] // Ethernet plus 6 bytes of IPv4
	s, err := packet.Dissect(cut, ethFirst, nil)
	require.ErrorIs(t, err, pktkit.ErrTruncated)
	require.Equal(t, 1, s.Len())
	require.Equal(t, "Ethernet", s.Layer(0).Protocol())
	require.Equal(t, cut[14:], s.Payload(), "failed layer's bytes become payload")
}

func TestDissectRoundTrip(t *testing.T) {
	gen, rng := newGen(5)
	frames := map[string][]byte{
		"tcp":  gen.EthIPv4TCP(100, 200, 1024, randomPayload(rng, 32)),
		"udp4": gen.EthIPv4UDP(randomPayload(rng, 20)),
		"udp6": gen.EthIPv6UDP(randomPayload(rng, 8)),
		"icmp": gen.EthIPv4ICMPEcho(0x1234, 7, randomPayload(rng, 24)),
	}
	for name, frame := range frames {
		s, err := packet.Dissect(frame, ethFirst, nil)
		require.NoError(t, err, name)
		rebuilt, err := s.Build()
		require.NoError(t, err, name)
		require.Empty(t, cmp.Diff(frame, rebuilt), "%s: dissect then build is identity", name)
	}
}

func TestDissectEthARP(t *testing.T) {
	req := &arp.Layer{
		Operation:          arp.OpRequest,
		SenderHardwareAddr: [6]byte{1, 2, 3, 4, 5, 6},
		SenderProtoAddr:    [4]byte{192, 168, 0, 1},
		TargetProtoAddr:    [4]byte{192, 168, 0, 9},
	}
	s := packet.NewStack(
		&ethernet.Layer{Destination: ethernet.BroadcastAddr(), Source: [6]byte{1, 2, 3, 4, 5, 6}},
		req,
	)
	frame, err := s.Build()
	require.NoError(t, err)

	got, err := packet.Dissect(frame, ethFirst, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Ethernet", "ARP"}, layerNames(got))
	require.Equal(t, pktkit.EtherTypeARP, got.Layer(0).(*ethernet.Layer).Type, "type bound from the ARP layer")
	require.Empty(t, cmp.Diff(*req, *got.Layer(1).(*arp.Layer)))
	require.Empty(t, got.Payload())
}

func TestDissectRawIPVersionNibble(t *testing.T) {
	gen, rng := newGen(6)
	v4 := gen.EthIPv4UDP(randomPayload(rng, 20))[14:]
	v6 := gen.EthIPv6UDP(randomPayload(rng, 8))[14:]

	first := packet.LinkKey(pktkit.LinkTypeRawIP)
	s, err := packet.Dissect(v4, first, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"IPv4", "UDP"}, layerNames(s))
	s, err = packet.Dissect(v6, first, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"IPv6", "UDP"}, layerNames(s))

	bogus := append([]byte{0x20}, v4[1:]...)
	_, err = packet.Dissect(bogus, first, nil)
	require.ErrorIs(t, err, pktkit.ErrInvalidDispatchKey)
}

func TestBuiltinRegistrationConflict(t *testing.T) {
	err := packet.Register(packet.EtherKey(pktkit.EtherTypeIPv4), packet.DecodeRaw)
	require.ErrorIs(t, err, pktkit.ErrDuplicateRegistration)
}

func layerNames(s *packet.Stack) []string {
	names := make([]string, s.Len())
	for i, l := range s.Layers() {
		names[i] = l.Protocol()
	}
	return names
}

func randomPayload(rng *rand.Rand, n int) []byte {
	p := make([]byte, n)
	rng.Read(p)
	return p
}
