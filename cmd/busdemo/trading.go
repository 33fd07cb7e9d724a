// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/eventbus"
)

// TradeEvent is a trade execution flowing through the bus.
type TradeEvent struct {
	Symbol string
	Price  float64
}

// RiskResult is a risk engine verdict returned to synchronous publishers.
type RiskResult struct {
	Allowed bool
	Reason  string
}

// Notification is a fire-and-forget operator message.
type Notification struct {
	Message string
}

const maxTradePrice = 1000

// riskEngine answers risk checks at low priority so that higher-priority
// handlers on the same topic see the trade first.
type riskEngine struct {
	bus    *eventbus.Bus
	logger zerolog.Logger
	subID  eventbus.SubscriptionID
}

func newRiskEngine(bus *eventbus.Bus, logger zerolog.Logger) *riskEngine {
	e := &riskEngine{
		bus:    bus,
		logger: logger.With().Str("component", "risk-engine").Logger(),
	}
	e.subID = eventbus.Subscribe(bus, "risk.check", e.checkRisk, eventbus.WithPriority(200))
	return e
}

func (e *riskEngine) checkRisk(trade TradeEvent) eventbus.Response {
	e.logger.Info().
		Str("symbol", trade.Symbol).
		Float64("price", trade.Price).
		Msg("processing risk check")

	if trade.Price > maxTradePrice {
		return eventbus.Respond(RiskResult{Allowed: false, Reason: "Price too high"})
	}
	// Pass without payload.
	return eventbus.Ack()
}

func (e *riskEngine) Close() {
	e.bus.Unsubscribe(e.subID)
}

// notifier listens on the trade wildcard and fans out async notifications.
type notifier struct {
	bus    *eventbus.Bus
	logger zerolog.Logger
	subID  eventbus.SubscriptionID
}

func newNotifier(bus *eventbus.Bus, logger zerolog.Logger) *notifier {
	n := &notifier{
		bus:    bus,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
	n.subID = eventbus.Subscribe(bus, "trade.*", n.sendNotification)
	return n
}

func (n *notifier) sendNotification(trade TradeEvent) eventbus.Response {
	n.logger.Info().Str("symbol", trade.Symbol).Msg("sending trade alert")
	eventbus.PostAsync(n.bus, "notification", Notification{
		Message: "Trade executed: " + trade.Symbol,
	})
	return eventbus.Ack()
}

func (n *notifier) Close() {
	n.bus.Unsubscribe(n.subID)
}

// wireNotificationLog prints every notification the bus delivers.
func wireNotificationLog(bus *eventbus.Bus, logger zerolog.Logger) {
	l := logger.With().Str("component", "notification-log").Logger()
	eventbus.Subscribe(bus, "notification", func(n Notification) eventbus.Response {
		l.Info().Str("message", n.Message).Msg("notification received")
		return eventbus.Ack()
	})
}

// wireValidator answers trade validation requests synchronously.
func wireValidator(bus *eventbus.Bus) {
	eventbus.Subscribe(bus, "trade.validate", func(trade TradeEvent) eventbus.Response {
		if trade.Price <= 0 {
			return eventbus.Respond(RiskResult{Allowed: false, Reason: "Invalid price"})
		}
		return eventbus.Respond(RiskResult{Allowed: true, Reason: "Valid"})
	})
}

// runTradeFeed publishes a rotating set of trades until ctx is cancelled,
// alternating synchronous validation and asynchronous risk checks.
func runTradeFeed(ctx context.Context, bus *eventbus.Bus, logger zerolog.Logger) {
	trades := []TradeEvent{
		{Symbol: "GOOG", Price: 142.56},
		{Symbol: "AAPL", Price: 150.25},
		{Symbol: "MSFT", Price: 247.86},
		{Symbol: "TSLA", Price: 699.20},
		{Symbol: "BRK.A", Price: 4321.00}, // rejected by the risk engine
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		trade := trades[i%len(trades)]

		results := eventbus.Post(bus, "trade.validate", trade)
		for _, r := range results {
			verdict, err := eventbus.Value[RiskResult](r)
			if err != nil {
				continue
			}
			logger.Info().
				Str("symbol", trade.Symbol).
				Bool("allowed", verdict.Allowed).
				Str("reason", verdict.Reason).
				Msg("validation result")
		}

		eventbus.PostAsync(bus, "risk.check", trade)
		eventbus.Post(bus, "trade.executed", trade)
	}
}
