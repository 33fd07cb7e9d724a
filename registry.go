// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

// SubscriptionID identifies one active subscription. Identifiers start at 1,
// increase monotonically and are never reused.
type SubscriptionID uint64

// subscription is the registry's internal record. The typed handler is
// already wrapped into the uniform envelope signature by Subscribe.
type subscription struct {
	id       SubscriptionID
	pattern  string
	priority int
	invoke   func(*Envelope) Response
}

// registry is the thread-safe ordered collection of active subscriptions.
// The slice is kept sorted by priority (stable, so equal priorities stay in
// registration order); the lock is held only for insert, remove and
// snapshot, never across a handler invocation.
type registry struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID atomic.Uint64
}

func (r *registry) add(pattern string, priority int, invoke func(*Envelope) Response) SubscriptionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Assigned under the lock so id order always matches registration order.
	id := SubscriptionID(r.nextID.Add(1))
	r.subs = append(r.subs, subscription{
		id:       id,
		pattern:  pattern,
		priority: priority,
		invoke:   invoke,
	})
	slices.SortStableFunc(r.subs, func(a, b subscription) int {
		return cmp.Compare(a.priority, b.priority)
	})
	return id
}

// remove drops every subscription with the given id. Removing an unknown or
// already removed id is a no-op.
func (r *registry) remove(id SubscriptionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.subs[:0]
	for _, s := range r.subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	r.subs = out
}

// snapshotMatching copies every subscription whose pattern matches topic,
// preserving priority order. Handlers are invoked against the copy so that
// a running handler never blocks Subscribe or Unsubscribe.
func (r *registry) snapshotMatching(topic string) []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []subscription
	for _, s := range r.subs {
		if MatchTopic(s.pattern, topic) {
			matched = append(matched, s)
		}
	}
	return matched
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
