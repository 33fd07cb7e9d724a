// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Bus fields
	FieldTopic          = "topic"
	FieldPattern        = "pattern"
	FieldSubscriptionID = "subscription_id"
	FieldPriority       = "priority"
	FieldQueueDepth     = "queue_depth"
	FieldMode           = "mode"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Config fields
	FieldKey    = "key"
	FieldSource = "source"
	FieldPath   = "path"
)
