package packet

import (
	"fmt"

	"github.com/pktkit/pktkit"
)

// Stack is an ordered sequence of layers plus a trailing opaque payload,
// together representing one packet. Insertion order is wire order, outermost
// link layer first. A Stack is owned by a single logical caller; it is not
// safe for unsynchronized sharing across goroutines.
type Stack struct {
	layers  []Layer
	payload []byte
	// built caches the bytes of the last successful build. Any mutation
	// clears it.
	built []byte
}

// NewStack returns a stack over the given layers, outermost first.
func NewStack(layers ...Layer) *Stack {
	return &Stack{layers: layers}
}

// Len returns the number of layers, excluding the payload.
func (s *Stack) Len() int { return len(s.layers) }

// Layer returns the i-th layer, outermost first.
func (s *Stack) Layer(i int) Layer { return s.layers[i] }

// Layers returns the layer sequence. The slice is owned by the stack.
func (s *Stack) Layers() []Layer { return s.layers }

// Push appends a layer at the innermost position.
func (s *Stack) Push(l Layer) {
	s.layers = append(s.layers, l)
	s.built = nil
}

// Pop removes and returns the innermost layer, or nil on an empty stack.
func (s *Stack) Pop() Layer {
	if len(s.layers) == 0 {
		return nil
	}
	l := s.layers[len(s.layers)-1]
	s.layers = s.layers[:len(s.layers)-1]
	s.built = nil
	return l
}

// Insert places a layer before position i.
func (s *Stack) Insert(i int, l Layer) {
	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l
	s.built = nil
}

// Remove deletes and returns the layer at position i.
func (s *Stack) Remove(i int) Layer {
	l := s.layers[i]
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	s.built = nil
	return l
}

// SetPayload replaces the trailing payload. The bytes are owned by the stack
// from here on.
func (s *Stack) SetPayload(p []byte) {
	s.payload = p
	s.built = nil
}

// Payload returns the trailing payload bytes.
func (s *Stack) Payload() []byte { return s.payload }

// Field returns a handle to the named field of the i-th layer.
func (s *Stack) Field(i int, name string) (Field, error) {
	if i < 0 || i >= len(s.layers) {
		return nil, fmt.Errorf("layer index %d out of range", i)
	}
	f, err := s.layers[i].Field(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.layers[i].Protocol(), err)
	}
	// Editing through a handle may change what a prior build produced.
	s.built = nil
	return f, nil
}

// Length returns the stack's byte length. After a successful build it is the
// length of the built bytes. On an unbuilt stack it is computable only when
// no layer carries an unresolved length-dependent field; otherwise Length
// fails with ErrNotBuilt.
func (s *Stack) Length() (int, error) {
	if s.built != nil {
		return len(s.built), nil
	}
	n := len(s.payload)
	for _, l := range s.layers {
		if _, dependent := l.(LengthBinder); dependent {
			return 0, fmt.Errorf("%w: layer %s has an unresolved length field", pktkit.ErrNotBuilt, l.Protocol())
		}
		n += l.Length()
	}
	return n, nil
}

// Bytes returns the bytes of the last successful build, or ErrNotBuilt.
func (s *Stack) Bytes() ([]byte, error) {
	if s.built == nil {
		return nil, pktkit.ErrNotBuilt
	}
	return s.built, nil
}

// Build resolves computed fields and serializes the stack with default
// options. See BuildWith.
func (s *Stack) Build() ([]byte, error) {
	return s.BuildWith(BuildOptions{})
}
