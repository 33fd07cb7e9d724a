// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import (
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/eventbus/internal/log"
	"github.com/ManuGH/eventbus/internal/metrics"
)

// Handler consumes a typed message and returns a response capsule. Returning
// Skip means the handler declines this message; returning Ack acknowledges
// it without data.
type Handler[T any] func(T) Response

// pendingMessage is one (topic, envelope) pair awaiting asynchronous
// dispatch.
type pendingMessage struct {
	topic string
	env   *Envelope
}

// Bus is an in-process typed publish/subscribe bus. The zero value is not
// usable; construct with New. A Bus is safe for concurrent use from any
// number of goroutines, including from within handlers.
type Bus struct {
	reg registry

	// qmu guards queue, running and done. The condition variable wakes the
	// dispatch worker when a message arrives or a stop is requested.
	qmu     sync.Mutex
	qcond   *sync.Cond
	queue   []pendingMessage
	running bool
	done    chan struct{}

	logger zerolog.Logger
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithLogger replaces the default component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// New constructs a stopped bus. Synchronous Post works immediately; call
// Start before relying on PostAsync delivery.
func New(opts ...Option) *Bus {
	b := &Bus{
		logger: log.WithComponent("bus"),
	}
	b.qcond = sync.NewCond(&b.qmu)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the background dispatch worker. Calling Start on a running
// bus has no effect.
func (b *Bus) Start() {
	b.qmu.Lock()
	if b.running {
		b.qmu.Unlock()
		return
	}
	b.running = true
	b.done = make(chan struct{})
	done := b.done
	b.qmu.Unlock()

	b.logger.Info().Str(log.FieldEvent, "bus.start").Msg("dispatch worker starting")
	go b.dispatchLoop(done)
}

// Stop asks the worker to exit once the pending queue is drained and blocks
// until it has. Calling Stop on a stopped bus has no effect. Messages posted
// asynchronously before Stop are still delivered.
func (b *Bus) Stop() {
	b.qmu.Lock()
	if !b.running {
		b.qmu.Unlock()
		return
	}
	b.running = false
	done := b.done
	b.qcond.Broadcast()
	b.qmu.Unlock()

	<-done
	b.logger.Info().Str(log.FieldEvent, "bus.stop").Msg("dispatch worker stopped")
}

// Close stops the bus. It exists so a Bus can be handed to teardown code
// expecting an io.Closer.
func (b *Bus) Close() error {
	b.Stop()
	return nil
}

// Subscribe registers a typed handler for every topic matching pattern and
// returns its subscription id. The handler only receives messages whose
// concrete type is exactly T; everything else is silently skipped for that
// subscription. Lower priority values are delivered earlier; equal
// priorities keep registration order.
func Subscribe[T any](b *Bus, pattern string, handler Handler[T], opts ...SubscribeOption) SubscriptionID {
	var so subscribeOptions
	for _, opt := range opts {
		opt(&so)
	}

	invoke := func(env *Envelope) Response {
		msg, ok := Extract[T](env)
		if !ok {
			// Routine type filtering, not a failure.
			return Skip()
		}
		return handler(msg)
	}

	id := b.reg.add(pattern, so.priority, invoke)
	b.logger.Debug().
		Str(log.FieldEvent, "bus.subscribe").
		Str(log.FieldPattern, pattern).
		Int(log.FieldPriority, so.priority).
		Uint64(log.FieldSubscriptionID, uint64(id)).
		Msg("subscription registered")
	return id
}

// SubscribeOption configures a single Subscribe call.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	priority int
}

// WithPriority sets the subscription's delivery priority. Lower values run
// earlier; the default is 0.
func WithPriority(priority int) SubscribeOption {
	return func(o *subscribeOptions) { o.priority = priority }
}

// Unsubscribe removes the subscription with the given id. Unknown ids are
// ignored. An in-flight delivery that already snapshotted the subscription
// is not interrupted; only future dispatches are affected.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.reg.remove(id)
	b.logger.Debug().
		Str(log.FieldEvent, "bus.unsubscribe").
		Uint64(log.FieldSubscriptionID, uint64(id)).
		Msg("subscription removed")
}

// Post publishes msg synchronously on the caller's goroutine and blocks
// until every matching handler has run. It returns the valid response
// capsules in handler priority order; skipped, mismatched and faulted
// handlers contribute nothing.
func Post[T any](b *Bus, topic string, msg T) []Response {
	metrics.IncPublished(topic, "sync")
	return b.dispatch(topic, NewEnvelope(msg), true)
}

// PostAsync publishes msg to the background dispatcher and returns
// immediately. No result is observable by the caller; responses are
// discarded. Messages enqueued while the bus is stopped are delivered once
// Start is called.
func PostAsync[T any](b *Bus, topic string, msg T) {
	env := NewEnvelope(msg)

	b.qmu.Lock()
	b.queue = append(b.queue, pendingMessage{topic: topic, env: env})
	depth := len(b.queue)
	b.qcond.Signal()
	b.qmu.Unlock()

	metrics.IncPublished(topic, "async")
	metrics.SetQueueDepth(depth)
}

// dispatchLoop is the single background worker. It suspends on the
// condition variable while the queue is empty and exits only when a stop has
// been requested and the queue is drained.
func (b *Bus) dispatchLoop(done chan<- struct{}) {
	defer close(done)

	for {
		b.qmu.Lock()
		for b.running && len(b.queue) == 0 {
			b.qcond.Wait()
		}
		if !b.running && len(b.queue) == 0 {
			b.qmu.Unlock()
			return
		}
		pm := b.queue[0]
		b.queue = b.queue[1:]
		depth := len(b.queue)
		b.qmu.Unlock()

		metrics.SetQueueDepth(depth)
		b.dispatch(pm.topic, pm.env, false)
	}
}

// dispatch snapshots the matching subscriptions and invokes them in priority
// order. With collect set it gathers the valid responses for a synchronous
// caller; the async path discards them.
func (b *Bus) dispatch(topic string, env *Envelope, collect bool) []Response {
	subs := b.reg.snapshotMatching(topic)

	var results []Response
	for _, sub := range subs {
		resp, ok := b.invoke(topic, sub, env)
		if !ok {
			continue
		}
		metrics.IncDelivery(topic)
		if collect && resp != nil && resp.IsValid() {
			results = append(results, resp)
		}
	}
	return results
}

// invoke runs a single handler, converting a panic into a logged fault.
// A faulting handler contributes no response and never aborts the dispatch
// or the worker.
func (b *Bus) invoke(topic string, sub subscription, env *Envelope) (resp Response, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncHandlerFault(topic)
			b.logger.Error().
				Str(log.FieldEvent, "bus.handler_fault").
				Str(log.FieldTopic, topic).
				Uint64(log.FieldSubscriptionID, uint64(sub.id)).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked during dispatch")
			resp, ok = nil, false
		}
	}()
	return sub.invoke(env), true
}
