// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package eventbus provides an in-process typed publish/subscribe bus.
//
// Producers publish strongly-typed messages under string topics. Consumers
// register handlers for a topic pattern and a payload type; a handler only
// ever sees messages whose concrete type matches its own type parameter.
// Delivery is either synchronous (Post blocks and collects the handlers'
// response capsules) or asynchronous (PostAsync enqueues the message for a
// single background dispatcher started by Start).
//
// Topic patterns are matched literally, with one wildcard form: a pattern
// ending in '*' matches every topic sharing the preceding prefix, and the
// bare "*" matches everything. Handlers run in priority order (lower value
// first, ties in registration order) and never while the bus holds any
// internal lock, so handler bodies are free to call Subscribe, Unsubscribe,
// Post and PostAsync themselves.
//
// The bus is best-effort and at-most-once per dispatch: there is no
// persistence, no replay and no cross-process transport.
package eventbus
