package packet

import (
	"fmt"

	"github.com/pktkit/pktkit"
)

// BuildOptions tunes dependency resolution during a build.
type BuildOptions struct {
	// PseudoFor selects the pseudo-header donor for the checksum layer at
	// index i. When nil, the nearest enclosing layer implementing
	// PseudoHeaderer is used.
	PseudoFor func(s *Stack, i int) PseudoHeaderer
}

// BuildWith resolves the stack's computed fields and serializes every layer
// in order, returning the concatenated wire bytes with the payload appended.
//
// Resolution order is fixed: next-protocol fields first (top-down), then
// length fields (innermost-first, so suffix-covering lengths see final inner
// lengths), then checksum fields (innermost-first, over provisional
// encodings with all lengths already bound). Binding computed fields is a
// documented side effect: the layers' checksum, length and next-protocol
// fields hold their bound values after a successful build.
//
// When a computed field's prerequisites are absent, BuildWith fails with
// ErrUnresolvedDependency and returns no bytes.
func (s *Stack) BuildWith(opt BuildOptions) ([]byte, error) {
	if err := s.bindNextProtocols(); err != nil {
		return nil, err
	}
	if err := s.bindLengths(); err != nil {
		return nil, err
	}
	out, err := s.bindChecksumsAndEncode(opt)
	if err != nil {
		return nil, err
	}
	s.built = out
	return out, nil
}

// bindNextProtocols binds each next-protocol field to the dispatch value of
// the immediately following layer. A layer followed by raw payload, or by a
// layer with no value in the relevant family, keeps whatever value its field
// currently holds.
func (s *Stack) bindNextProtocols() error {
	for i, l := range s.layers {
		nb, ok := l.(NextBinder)
		if !ok || i+1 >= len(s.layers) {
			continue
		}
		kl, ok := s.layers[i+1].(Keyed)
		if !ok {
			continue
		}
		v, ok := kl.KeyIn(nb.NextFamily())
		if !ok {
			continue
		}
		if err := nb.BindNext(v); err != nil {
			return fmt.Errorf("bind next-protocol of %s: %w", l.Protocol(), err)
		}
	}
	return nil
}

// bindLengths walks innermost-first so that by the time an outer layer's
// length field is bound, every inner layer's own encoded length is final
// (variable tails like option padding settle during their BindLength).
func (s *Stack) bindLengths() error {
	suffix := len(s.payload)
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if lb, ok := l.(LengthBinder); ok {
			if err := lb.BindLength(suffix); err != nil {
				return fmt.Errorf("bind length of %s: %w", l.Protocol(), err)
			}
		}
		suffix += l.Length()
	}
	return nil
}

// bindChecksumsAndEncode encodes every layer, then binds checksum fields
// innermost-first so an outer checksum covering inner bytes sees their final
// values, re-encoding each checksum layer after its field is bound. The
// assembled packet grows from the payload outward.
func (s *Stack) bindChecksumsAndEncode(opt BuildOptions) ([]byte, error) {
	enc := make([][]byte, len(s.layers))
	var b pktkit.Builder
	for i, l := range s.layers {
		b.Reset()
		if err := l.Encode(&b); err != nil {
			return nil, fmt.Errorf("encode %s: %w", l.Protocol(), err)
		}
		enc[i] = append([]byte(nil), b.Bytes()...)
	}

	tail := s.payload
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if cb, ok := l.(ChecksumBinder); ok {
			ctx := ChecksumContext{Suffix: tail}
			if opt.PseudoFor != nil {
				ctx.Pseudo = opt.PseudoFor(s, i)
			} else {
				ctx.Pseudo = s.nearestPseudo(i)
			}
			if err := cb.BindChecksum(ctx); err != nil {
				return nil, fmt.Errorf("bind checksum of %s: %w", l.Protocol(), err)
			}
			b.Reset()
			if err := l.Encode(&b); err != nil {
				return nil, fmt.Errorf("encode %s: %w", l.Protocol(), err)
			}
			enc[i] = append(enc[i][:0], b.Bytes()...)
		}
		joined := make([]byte, 0, len(enc[i])+len(tail))
		joined = append(joined, enc[i]...)
		tail = append(joined, tail...)
	}
	// Copy so the result does not alias the payload when the stack has no layers.
	if len(s.layers) == 0 {
		tail = append([]byte(nil), tail...)
	}
	return tail, nil
}

// nearestPseudo returns the closest enclosing layer of i able to supply
// pseudo-header data, scanning outward.
func (s *Stack) nearestPseudo(i int) PseudoHeaderer {
	for j := i - 1; j >= 0; j-- {
		if ph, ok := s.layers[j].(PseudoHeaderer); ok {
			return ph
		}
	}
	return nil
}
