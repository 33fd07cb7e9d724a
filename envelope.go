// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import "reflect"

// Envelope carries one payload value together with its concrete type
// identity. It is what lets heterogeneous message types travel through a
// single queue and a single handler signature; dispatch code never needs to
// know the payload's static type.
type Envelope struct {
	payload any
	rtype   reflect.Type
}

// NewEnvelope wraps v in an envelope. The type tag is taken from the static
// type parameter, so publishing through an interface-typed T tags the
// envelope with the interface type, not the dynamic value behind it.
func NewEnvelope[T any](v T) *Envelope {
	return &Envelope{payload: v, rtype: reflect.TypeOf((*T)(nil)).Elem()}
}

// Type returns the payload's type tag. Tags are comparable with == and are
// stable across calls for the same T.
func (e *Envelope) Type() reflect.Type {
	return e.rtype
}

// Extract returns the payload as T. The boolean is false when the envelope
// carries a different type; tags must match exactly, an assignable or
// convertible type is not enough. Extract is the only sanctioned downcast
// path out of an envelope.
func Extract[T any](e *Envelope) (T, bool) {
	if e == nil || e.rtype != reflect.TypeOf((*T)(nil)).Elem() {
		var zero T
		return zero, false
	}
	// Comma-ok guards the corner case of a nil payload behind an
	// interface-typed T.
	v, ok := e.payload.(T)
	return v, ok
}
