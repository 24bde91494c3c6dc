// Package pktkit provides the shared primitives of the packet toolkit: a
// bit/byte-level wire codec, the Internet checksum accumulator and the
// protocol identifier enumerations used by layer implementations.
package pktkit

type EtherType uint16

// IsSize returns true if the EtherType is actually the size of the payload
// and should NOT be interpreted as an EtherType.
func (et EtherType) IsSize() bool { return et <= 1500 }

// Ethernet type flags
const (
	EtherTypeIPv4        EtherType = 0x0800 // IPv4
	EtherTypeARP         EtherType = 0x0806 // ARP
	EtherTypeWakeOnLAN   EtherType = 0x0842 // wake on LAN
	EtherTypeRARP        EtherType = 0x8035 // RARP
	EtherTypeVLAN        EtherType = 0x8100 // VLAN
	EtherTypeIPv6        EtherType = 0x86DD // IPv6
	EtherTypeMPLSUnicast EtherType = 0x8847 // MPLS Unicast
	EtherTypePPPoE       EtherType = 0x8864 // PPPoE session
	EtherTypeLLDP        EtherType = 0x88CC // LLDP
	EtherTypeServiceVLAN EtherType = 0x88a8 // service VLAN
)

func (et EtherType) String() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeWakeOnLAN:
		return "wake on LAN"
	case EtherTypeRARP:
		return "RARP"
	case EtherTypeVLAN:
		return "VLAN"
	case EtherTypeIPv6:
		return "IPv6"
	case EtherTypeMPLSUnicast:
		return "MPLS Unicast"
	case EtherTypePPPoE:
		return "PPPoE session"
	case EtherTypeLLDP:
		return "LLDP"
	case EtherTypeServiceVLAN:
		return "service VLAN"
	}
	if et.IsSize() {
		return "size"
	}
	return "unknown ethertype"
}

// IPProto represents the protocol field of an IPv4 header and the
// next-header field of an IPv6 header.
type IPProto uint8

// IP protocol numbers.
const (
	IPProtoHopByHop IPProto = 0   // IPv6 hop by hop
	IPProtoICMP     IPProto = 1   // ICMP
	IPProtoIGMP     IPProto = 2   // IGMP
	IPProtoIPIP     IPProto = 4   // IP in IP
	IPProtoTCP      IPProto = 6   // TCP
	IPProtoUDP      IPProto = 17  // UDP
	IPProtoIPv6     IPProto = 41  // IPv6 tunneled
	IPProtoGRE      IPProto = 47  // GRE
	IPProtoESP      IPProto = 50  // ESP
	IPProtoICMPv6   IPProto = 58  // ICMPv6
	IPProtoOSPF     IPProto = 89  // OSPF
	IPProtoSCTP     IPProto = 132 // SCTP
)

func (proto IPProto) String() string {
	switch proto {
	case IPProtoHopByHop:
		return "IPv6 hop by hop"
	case IPProtoICMP:
		return "ICMP"
	case IPProtoIGMP:
		return "IGMP"
	case IPProtoIPIP:
		return "IP in IP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	case IPProtoIPv6:
		return "IPv6 tunneled"
	case IPProtoGRE:
		return "GRE"
	case IPProtoESP:
		return "ESP"
	case IPProtoICMPv6:
		return "ICMPv6"
	case IPProtoOSPF:
		return "OSPF"
	case IPProtoSCTP:
		return "SCTP"
	}
	return "unknown ipproto"
}

// LinkType identifies the outermost layer of a captured packet, mirroring
// the link types used by packet capture containers. It is the value half of
// the link dispatch family.
type LinkType uint8

const (
	LinkTypeEthernet LinkType = 1   // Ethernet
	LinkTypeRawIP    LinkType = 101 // raw IP, either version
	LinkTypeIPv4     LinkType = 228 // raw IPv4
	LinkTypeIPv6     LinkType = 229 // raw IPv6
)

func (lt LinkType) String() string {
	switch lt {
	case LinkTypeEthernet:
		return "Ethernet"
	case LinkTypeRawIP:
		return "raw IP"
	case LinkTypeIPv4:
		return "raw IPv4"
	case LinkTypeIPv6:
		return "raw IPv6"
	}
	return "unknown linktype"
}
