package pktkit

type errKind uint8

// Error kinds shared by the codec, dispatcher, stack and resolver. Match with
// [errors.Is]; callers wrap them with context via fmt.Errorf and %w.
const (
	_ errKind = iota // non-initialized err

	// ErrTruncated is returned when a declared or implied field width reaches
	// past the end of the available buffer. Input-driven, always expected.
	ErrTruncated
	// ErrFieldOverflow is returned when a runtime value cannot fit a declared
	// fixed-width field during encode. Always a caller error.
	ErrFieldOverflow
	// ErrInvalidDispatchKey is returned in strict dissection when a declared
	// next-protocol value matches no registered layer type.
	ErrInvalidDispatchKey
	// ErrDuplicateRegistration is returned when registering a (family, key)
	// pair that already has a constructor and no override was requested.
	ErrDuplicateRegistration
	// ErrUnresolvedDependency is returned at build time when a computed
	// field's prerequisites are absent from the stack.
	ErrUnresolvedDependency
	// ErrNotBuilt is returned when querying a value that requires a prior
	// successful build pass.
	ErrNotBuilt
)

func (err errKind) Error() string {
	switch err {
	case ErrTruncated:
		return "truncated input"
	case ErrFieldOverflow:
		return "value overflows field width"
	case ErrInvalidDispatchKey:
		return "no layer registered for dispatch key"
	case ErrDuplicateRegistration:
		return "dispatch key already registered"
	case ErrUnresolvedDependency:
		return "computed field dependency absent"
	case ErrNotBuilt:
		return "stack not built"
	}
	return "unknown error"
}
