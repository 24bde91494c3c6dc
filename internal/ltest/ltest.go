// Package ltest generates reference packets for tests using an independent
// serializer, so checksum and length arithmetic is checked against a second
// implementation rather than against itself.
package ltest

import (
	"math/rand"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// PacketGen holds the addressing of generated reference packets.
type PacketGen struct {
	SrcMAC, DstMAC   [6]byte // hardware address
	SrcIPv4, DstIPv4 [4]byte // address
	SrcIPv6, DstIPv6 [16]byte
	SrcPort, DstPort uint16
}

// RandomizeAddrs derives fresh addresses and ports from rng. Multicast and
// broadcast bits are cleared on the hardware addresses so generated frames
// look like unicast traffic.
func (gen *PacketGen) RandomizeAddrs(rng *rand.Rand) {
	rng.Read(gen.SrcMAC[:])
	rng.Read(gen.DstMAC[:])
	gen.SrcMAC[0] &^= 1
	gen.DstMAC[0] &^= 1
	rng.Read(gen.SrcIPv4[:])
	rng.Read(gen.DstIPv4[:])
	rng.Read(gen.SrcIPv6[:])
	rng.Read(gen.DstIPv6[:])
	ports := rng.Uint32()
	gen.SrcPort = uint16(ports)
	gen.DstPort = uint16(ports >> 16)
}

var serializeOpts = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

// EthIPv4TCP returns a serialized Ethernet+IPv4+TCP packet with lengths and
// checksums computed. Flags are PSH+ACK.
func (gen *PacketGen) EthIPv4TCP(seq, ack uint32, window uint16, payload []byte) []byte {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(gen.SrcMAC[:]),
		DstMAC:       net.HardwareAddr(gen.DstMAC[:]),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IP(gen.SrcIPv4[:]),
		DstIP:    net.IP(gen.DstIPv4[:]),
	}
	tcp := layers.TCP{
		SrcPort: layers.TCPPort(gen.SrcPort),
		DstPort: layers.TCPPort(gen.DstPort),
		Seq:     seq,
		Ack:     ack,
		PSH:     true,
		ACK:     true,
		Window:  window,
	}
	if err := tcp.SetNetworkLayerForChecksum(&ip); err != nil {
		panic(err)
	}
	return serialize(&eth, &ip, &tcp, gopacket.Payload(payload))
}

// EthIPv4UDP returns a serialized Ethernet+IPv4+UDP packet with lengths and
// checksums computed.
func (gen *PacketGen) EthIPv4UDP(payload []byte) []byte {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(gen.SrcMAC[:]),
		DstMAC:       net.HardwareAddr(gen.DstMAC[:]),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP(gen.SrcIPv4[:]),
		DstIP:    net.IP(gen.DstIPv4[:]),
	}
	udp := layers.UDP{
		SrcPort: layers.UDPPort(gen.SrcPort),
		DstPort: layers.UDPPort(gen.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(&ip); err != nil {
		panic(err)
	}
	return serialize(&eth, &ip, &udp, gopacket.Payload(payload))
}

// EthIPv6UDP returns a serialized Ethernet+IPv6+UDP packet with lengths and
// checksums computed.
func (gen *PacketGen) EthIPv6UDP(payload []byte) []byte {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(gen.SrcMAC[:]),
		DstMAC:       net.HardwareAddr(gen.DstMAC[:]),
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip := layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolUDP,
		SrcIP:      net.IP(gen.SrcIPv6[:]),
		DstIP:      net.IP(gen.DstIPv6[:]),
	}
	udp := layers.UDP{
		SrcPort: layers.UDPPort(gen.SrcPort),
		DstPort: layers.UDPPort(gen.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(&ip); err != nil {
		panic(err)
	}
	return serialize(&eth, &ip, &udp, gopacket.Payload(payload))
}

// EthIPv4ICMPEcho returns a serialized Ethernet+IPv4+ICMP echo request with
// lengths and checksums computed.
func (gen *PacketGen) EthIPv4ICMPEcho(ident, seq uint16, payload []byte) []byte {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(gen.SrcMAC[:]),
		DstMAC:       net.HardwareAddr(gen.DstMAC[:]),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IP(gen.SrcIPv4[:]),
		DstIP:    net.IP(gen.DstIPv4[:]),
	}
	icmp := layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       ident,
		Seq:      seq,
	}
	return serialize(&eth, &ip, &icmp, gopacket.Payload(payload))
}

func serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, ls...); err != nil {
		panic(err)
	}
	out := append([]byte(nil), buf.Bytes()...)
	return out
}
