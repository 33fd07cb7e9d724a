// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/eventbus/internal/metrics"
)

// Shared payload types, mirroring the trading domain of the example program.
type tradeEvent struct {
	Symbol string
	Price  float64
}

type riskResult struct {
	Allowed bool
	Reason  string
}

type notification struct {
	Message string
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestBasicSubscription(t *testing.T) {
	b := New()
	var called atomic.Bool

	id := Subscribe(b, "trade.test", func(trade tradeEvent) Response {
		called.Store(true)
		require.Equal(t, "AAPL", trade.Symbol)
		require.Equal(t, 150.25, trade.Price)
		return Ack()
	})
	defer b.Unsubscribe(id)

	results := Post(b, "trade.test", tradeEvent{Symbol: "AAPL", Price: 150.25})
	require.True(t, called.Load())
	require.Len(t, results, 1)
	require.True(t, results[0].IsValid())
}

func TestPostWithoutSubscribersReturnsEmpty(t *testing.T) {
	b := New()
	require.Empty(t, Post(b, "nobody.home", tradeEvent{}))
}

func TestWildcardTopic(t *testing.T) {
	b := New()
	var matched atomic.Int64

	id1 := Subscribe(b, "trade.*", func(tradeEvent) Response {
		matched.Add(1)
		return Ack()
	})
	id2 := Subscribe(b, "trade.specific", func(tradeEvent) Response {
		matched.Add(10)
		return Ack()
	})
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	Post(b, "trade.wildcard", tradeEvent{Symbol: "GOOG", Price: 175.75})
	require.Equal(t, int64(1), matched.Load())
}

func TestHandlerPriority(t *testing.T) {
	b := New()
	var order []int

	// Registered low-priority first; delivery order must follow priority,
	// not registration.
	Subscribe(b, "trade.priority", func(tradeEvent) Response {
		order = append(order, 100)
		return Ack()
	}, WithPriority(100))
	Subscribe(b, "trade.priority", func(tradeEvent) Response {
		order = append(order, 10)
		return Ack()
	}, WithPriority(10))

	Post(b, "trade.priority", tradeEvent{Symbol: "TSLA", Price: 250.75})

	if diff := cmp.Diff([]int{10, 100}, order); diff != "" {
		t.Fatalf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestPriorityTieKeepsRegistrationOrder(t *testing.T) {
	b := New()
	var order []int

	for i := 0; i < 3; i++ {
		n := i
		Subscribe(b, "trade.tie", func(tradeEvent) Response {
			order = append(order, n)
			return Ack()
		}, WithPriority(7))
	}

	Post(b, "trade.tie", tradeEvent{})

	if diff := cmp.Diff([]int{0, 1, 2}, order); diff != "" {
		t.Fatalf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestResponsesKeepPriorityOrder(t *testing.T) {
	b := New()

	Subscribe(b, "trade.order", func(tradeEvent) Response {
		return Respond("second")
	}, WithPriority(20))
	Subscribe(b, "trade.order", func(tradeEvent) Response {
		return Respond("first")
	}, WithPriority(1))

	results := Post(b, "trade.order", tradeEvent{})
	require.Len(t, results, 2)

	first, err := Value[string](results[0])
	require.NoError(t, err)
	second, err := Value[string](results[1])
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, []string{first, second})
}

func TestResponseData(t *testing.T) {
	b := New()

	id := Subscribe(b, "trade.response", func(trade tradeEvent) Response {
		if trade.Price > 100 {
			return Respond(riskResult{Allowed: true, Reason: "OK"})
		}
		return Respond(riskResult{Allowed: false, Reason: "Price too low"})
	})
	defer b.Unsubscribe(id)

	results := Post(b, "trade.response", tradeEvent{Symbol: "AAPL", Price: 150.25})
	require.Len(t, results, 1)
	allowed, err := Value[riskResult](results[0])
	require.NoError(t, err)
	require.True(t, allowed.Allowed)

	results = Post(b, "trade.response", tradeEvent{Symbol: "BIDU", Price: 80.50})
	require.Len(t, results, 1)
	rejected, err := Value[riskResult](results[0])
	require.NoError(t, err)
	require.False(t, rejected.Allowed)
}

func TestTypeMismatchSkipsHandler(t *testing.T) {
	b := New()
	var called atomic.Bool

	Subscribe(b, "trade.typed", func(riskResult) Response {
		called.Store(true)
		return Ack()
	})

	results := Post(b, "trade.typed", tradeEvent{Symbol: "AAPL"})
	require.False(t, called.Load(), "handler must never see a mismatched payload")
	require.Empty(t, results, "a mismatched handler contributes no valid response")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var calls atomic.Int64

	id := Subscribe(b, "basic.trade", func(tradeEvent) Response {
		calls.Add(1)
		return Ack()
	})

	Post(b, "basic.trade", tradeEvent{Symbol: "GOOG"})
	b.Unsubscribe(id)
	Post(b, "basic.trade", tradeEvent{Symbol: "UNSUB"})

	require.Equal(t, int64(1), calls.Load())
}

func TestUnsubscribeMidPriorityOrder(t *testing.T) {
	b := New()
	var order []int

	Subscribe(b, "t", func(tradeEvent) Response { order = append(order, 1); return Ack() }, WithPriority(1))
	mid := Subscribe(b, "t", func(tradeEvent) Response { order = append(order, 2); return Ack() }, WithPriority(2))
	Subscribe(b, "t", func(tradeEvent) Response { order = append(order, 3); return Ack() }, WithPriority(3))

	b.Unsubscribe(mid)
	Post(b, "t", tradeEvent{})

	if diff := cmp.Diff([]int{1, 3}, order); diff != "" {
		t.Fatalf("order mismatch after unsubscribe (-want +got):\n%s", diff)
	}
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	b := New()
	b.Unsubscribe(SubscriptionID(12345))
}

func TestHandlerPanicDoesNotAbortDispatch(t *testing.T) {
	b := New(WithLogger(zerolog.Nop()))
	topic := "trade.faulty"

	Subscribe(b, topic, func(tradeEvent) Response { return Respond("before") }, WithPriority(1))
	Subscribe(b, topic, func(tradeEvent) Response { panic("boom") }, WithPriority(2))
	Subscribe(b, topic, func(tradeEvent) Response { return Respond("after") }, WithPriority(3))

	faultsBefore := getCounterValue(t, metrics.HandlerFaultsTotal.WithLabelValues(topic))
	results := Post(b, topic, tradeEvent{})
	faultsAfter := getCounterValue(t, metrics.HandlerFaultsTotal.WithLabelValues(topic))

	require.Len(t, results, 2, "the faulting handler contributes nothing, the rest still run")
	require.Greater(t, faultsAfter, faultsBefore, "expected handler fault counter to increase")
}

func TestHandlerPanicDoesNotKillWorker(t *testing.T) {
	b := New(WithLogger(zerolog.Nop()))
	var delivered atomic.Int64

	Subscribe(b, "async.fault", func(tradeEvent) Response { panic("boom") }, WithPriority(1))
	Subscribe(b, "async.fault", func(tradeEvent) Response {
		delivered.Add(1)
		return Ack()
	}, WithPriority(2))

	b.Start()
	PostAsync(b, "async.fault", tradeEvent{})
	PostAsync(b, "async.fault", tradeEvent{})
	b.Stop()

	require.Equal(t, int64(2), delivered.Load())
}

func TestAsyncDelivery(t *testing.T) {
	b := New()
	var calls atomic.Int64
	var gotSymbol atomic.Value

	Subscribe(b, "trade.async", func(trade tradeEvent) Response {
		gotSymbol.Store(trade.Symbol)
		calls.Add(1)
		return Ack()
	})

	b.Start()
	PostAsync(b, "trade.async", tradeEvent{Symbol: "MSFT", Price: 200.50})
	b.Stop()

	require.Equal(t, int64(1), calls.Load())
	require.Equal(t, "MSFT", gotSymbol.Load())
}

func TestAsyncEnqueuedBeforeStartIsDelivered(t *testing.T) {
	b := New()
	var calls atomic.Int64

	Subscribe(b, "early.bird", func(tradeEvent) Response {
		calls.Add(1)
		return Ack()
	})

	PostAsync(b, "early.bird", tradeEvent{})
	b.Start()
	b.Stop()

	require.Equal(t, int64(1), calls.Load())
}

func TestConcurrentPostAsyncNoLossNoDuplication(t *testing.T) {
	const producers = 10
	const messages = 100

	b := New()
	var delivered atomic.Int64
	seen := sync.Map{}

	Subscribe(b, "load.*", func(trade tradeEvent) Response {
		if _, dup := seen.LoadOrStore(trade.Symbol, struct{}{}); dup {
			t.Errorf("duplicate delivery for %s", trade.Symbol)
		}
		delivered.Add(1)
		return Ack()
	})

	b.Start()

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		producer := p
		g.Go(func() error {
			for m := 0; m < messages; m++ {
				PostAsync(b, "load.test", tradeEvent{
					Symbol: fmt.Sprintf("P%d-M%d", producer, m),
					Price:  float64(m),
				})
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	b.Stop()

	require.Equal(t, int64(producers*messages), delivered.Load())
}

func TestStartIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := New()
	var calls atomic.Int64
	Subscribe(b, "t", func(tradeEvent) Response { calls.Add(1); return Ack() })

	b.Start()
	b.Start()
	PostAsync(b, "t", tradeEvent{})
	b.Stop()

	require.Equal(t, int64(1), calls.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	b := New()
	b.Stop() // never started
	b.Start()
	b.Stop()
	b.Stop()
}

func TestCloseStopsBus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := New()
	b.Start()
	require.NoError(t, b.Close())
}

func TestRestartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := New()
	var calls atomic.Int64
	Subscribe(b, "t", func(tradeEvent) Response { calls.Add(1); return Ack() })

	b.Start()
	PostAsync(b, "t", tradeEvent{})
	b.Stop()

	b.Start()
	PostAsync(b, "t", tradeEvent{})
	b.Stop()

	require.Equal(t, int64(2), calls.Load())
}

func TestStartStopNoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := New()
	b.Start()
	for i := 0; i < 10; i++ {
		PostAsync(b, "leak.check", tradeEvent{Price: float64(i)})
	}
	b.Stop()
}

func TestHandlerMayRepublishAsync(t *testing.T) {
	// The Notifier pattern: a synchronous handler fans out an async
	// notification. Handlers run outside every bus lock, so this must not
	// deadlock.
	b := New()
	var notified atomic.Int64

	Subscribe(b, "trade.*", func(trade tradeEvent) Response {
		PostAsync(b, "notification", notification{Message: "Trade executed: " + trade.Symbol})
		return Ack()
	})
	Subscribe(b, "notification", func(notification) Response {
		notified.Add(1)
		return Ack()
	})

	b.Start()
	Post(b, "trade.special", tradeEvent{Symbol: "TSLA", Price: 699.20})
	b.Stop()

	require.Equal(t, int64(1), notified.Load())
}

func TestHandlerMaySubscribeAndUnsubscribe(t *testing.T) {
	b := New()
	var lateCalls atomic.Int64

	id := Subscribe(b, "boot", func(tradeEvent) Response {
		Subscribe(b, "late", func(tradeEvent) Response {
			lateCalls.Add(1)
			return Ack()
		})
		return Ack()
	})

	Post(b, "boot", tradeEvent{})
	b.Unsubscribe(id)

	Post(b, "late", tradeEvent{})
	require.Equal(t, int64(1), lateCalls.Load())
}
