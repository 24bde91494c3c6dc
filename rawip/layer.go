// Package rawip dispatches captures with no link layer at all, where the
// first byte of the packet is the start of an IP header and the version
// nibble selects between IPv4 and IPv6.
package rawip

import (
	"fmt"

	"github.com/pktkit/pktkit"
	"github.com/pktkit/pktkit/ipv4"
	"github.com/pktkit/pktkit/ipv6"
	"github.com/pktkit/pktkit/packet"
)

func init() {
	packet.MustRegister(packet.LinkKey(pktkit.LinkTypeRawIP), Decode)
}

// Decode peeks the IP version nibble and hands the untouched cursor to the
// matching IP decoder.
func Decode(cur *pktkit.Cursor) (packet.Layer, packet.Key, error) {
	peek := *cur
	version, err := peek.Bits(4)
	if err != nil {
		return nil, packet.None, fmt.Errorf("rawip: %w", err)
	}
	switch version {
	case 4:
		return ipv4.Decode(cur)
	case 6:
		return ipv6.Decode(cur)
	}
	return nil, packet.None, fmt.Errorf("rawip: %w: IP version %d", pktkit.ErrInvalidDispatchKey, version)
}
