// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

// Response is the capsule a handler returns to a synchronous publisher.
// A capsule either carries a typed result, carries nothing but still counts
// as a delivered answer (Ack), or declines to respond at all (Skip).
//
// IsValid is O(1) and side-effect free; dispatch filters on it without ever
// touching the payload.
type Response interface {
	// IsValid reports whether the capsule counts as a delivered result.
	IsValid() bool
}

type typedResponse[T any] struct {
	value T
}

func (typedResponse[T]) IsValid() bool { return true }

type voidResponse struct {
	valid bool
}

func (r voidResponse) IsValid() bool { return r.valid }

// Respond builds a valid capsule carrying v.
func Respond[T any](v T) Response {
	return typedResponse[T]{value: v}
}

// Ack builds a valid capsule without a payload. Use it when a handler wants
// to acknowledge a message without returning data.
func Ack() Response {
	return voidResponse{valid: true}
}

// Skip builds an invalid capsule. A skipped response never appears in the
// result list of Post; it is how a handler declines a message, and what the
// bus substitutes when a handler's payload type does not match.
func Skip() Response {
	return voidResponse{}
}

// Value reads the typed payload out of a response capsule.
//
// Reading an invalid capsule fails with ErrInvalidResponse; callers are
// expected to check IsValid first. Reading a valid capsule under the wrong
// type parameter fails with ErrResponseType. Ack capsules hold no value and
// fail with ErrResponseType for every T.
func Value[T any](r Response) (T, error) {
	var zero T
	if r == nil || !r.IsValid() {
		return zero, ErrInvalidResponse
	}
	tr, ok := r.(typedResponse[T])
	if !ok {
		return zero, ErrResponseType
	}
	return tr.value, nil
}
