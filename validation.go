package pktkit

import (
	"errors"
)

type ValidateFlags uint64

const (
	validateReserved ValidateFlags = 1 << iota
	// ValidateAllowMultiErrors accumulates every inconsistency found instead
	// of keeping only the first.
	ValidateAllowMultiErrors
)

func (vf ValidateFlags) has(v ValidateFlags) bool {
	return vf&v == v
}

// Validator accumulates inconsistencies found while checking a decoded
// layer's fields against its buffer. Layer decoders add errors; the caller
// inspects the joined result.
type Validator struct {
	accum []error
	flags ValidateFlags
}

// NewValidator returns a Validator with the given flags.
func NewValidator(flags ValidateFlags) *Validator {
	return &Validator{flags: flags}
}

func (v *Validator) Flags() ValidateFlags {
	return v.flags
}

// ResetErr clears accumulated errors, retaining flags.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}

func (v *Validator) HasError() bool {
	if v.flags.has(validateReserved) {
		panic("reserved bit set")
	}
	return len(v.accum) != 0
}

// Err returns the accumulated error, joining when more than one was added.
func (v *Validator) Err() error {
	if len(v.accum) == 1 {
		return v.accum[0]
	} else if len(v.accum) == 0 {
		return nil
	}
	return errors.Join(v.accum...)
}

// AddError adds an error to the accumulator. Errors beyond the first are
// dropped unless [ValidateAllowMultiErrors] is set.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("error argument to AddError cannot be nil")
	} else if len(v.accum) != 0 && !v.flags.has(ValidateAllowMultiErrors) {
		return
	}
	v.accum = append(v.accum, err)
}
