package packet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pktkit/pktkit"
)

// DissectOptions tunes dissection.
type DissectOptions struct {
	// Strict surfaces unknown dispatch keys as ErrInvalidDispatchKey instead
	// of falling back to raw payload.
	Strict bool
	// Registry to resolve decoders against. Nil selects the process-wide
	// builtin registry.
	Registry *Registry
	// Logger receives diagnostics for dropped dispatch keys. Nil is silent.
	Logger *slog.Logger
	// MaxLayers caps the number of decoded layers as a guard against
	// registration cycles. Zero selects a default of 32.
	MaxLayers int
}

const defaultMaxLayers = 32

// Dissect parses buf into a layer stack, starting with the layer type named
// by first (e.g. LinkKey(pktkit.LinkTypeEthernet) for a captured Ethernet
// frame). Each decoded layer reports the dispatch key of what follows;
// dissection stops when no decoder is registered for it, when the layer is
// terminal, or when the buffer is exhausted. Remaining bytes become the
// stack's payload.
//
// On a layer decode error the stack decoded so far is returned together with
// the error: partial results are preserved so the caller can inspect the
// outer layers that did parse. The returned stack aliases buf.
func Dissect(buf []byte, first Key, opts *DissectOptions) (*Stack, error) {
	var o DissectOptions
	if opts != nil {
		o = *opts
	}
	reg := o.Registry
	if reg == nil {
		reg = builtin
	}
	maxLayers := o.MaxLayers
	if maxLayers <= 0 {
		maxLayers = defaultMaxLayers
	}
	log := logger{o.Logger}

	s := NewStack()
	cur := pktkit.NewCursor(buf)
	key := first
	for !key.IsNone() && cur.Remaining() > 0 {
		if s.Len() >= maxLayers {
			log.debug("packet:max-layers", slog.Int("layers", s.Len()))
			break
		}
		d, ok := reg.Resolve(key)
		if !ok {
			if o.Strict {
				rest, _ := cur.Rest()
				s.payload = rest
				return s, fmt.Errorf("%w: (%s, %#x)", pktkit.ErrInvalidDispatchKey, key.Family, key.Value)
			}
			log.debug("packet:no-decoder", slog.String("family", key.Family.String()), slog.Uint64("value", uint64(key.Value)))
			break
		}
		start := cur.Offset()
		l, next, err := d(&cur)
		if err != nil {
			// Cursor position is unspecified after a failed decode; the
			// failed layer's bytes onward become payload.
			s.payload = buf[start:]
			return s, fmt.Errorf("decode (%s, %#x) at offset %d: %w", key.Family, key.Value, start, err)
		}
		s.layers = append(s.layers, l)
		key = next
	}
	rest, _ := cur.Rest()
	s.payload = rest
	// A fully dissected stack has known spans: its length is the input's.
	s.built = buf
	return s, nil
}

type logger struct {
	log *slog.Logger
}

func (l logger) debug(msg string, attrs ...slog.Attr) {
	if l.log != nil {
		l.log.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}
