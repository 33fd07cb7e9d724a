// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import "errors"

var (
	// ErrInvalidResponse is returned when a value is read from a response
	// capsule whose IsValid reports false.
	ErrInvalidResponse = errors.New("eventbus: invalid response")

	// ErrResponseType is returned when a valid response capsule holds a
	// value of a different type than the one requested.
	ErrResponseType = errors.New("eventbus: response holds a different type")
)
