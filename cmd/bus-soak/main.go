// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command bus-soak floods the event bus with concurrent asynchronous
// publishes and verifies that every message is delivered exactly once after
// the queue drains. It prints a JSON report and exits non-zero on loss or
// duplication.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/eventbus"
	buslog "github.com/ManuGH/eventbus/internal/log"
)

// Report is the JSON output schema of a soak run.
type Report struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         time.Time      `json:"ended_at"`
	DurationSeconds float64        `json:"duration_s"`
	Scenario        ScenarioResult `json:"scenario"`
	Verdict         string         `json:"verdict"`
}

// ScenarioResult holds the outcome of the delivery scenario.
type ScenarioResult struct {
	Name         string           `json:"name"`
	Pass         bool             `json:"pass"`
	Reason       string           `json:"reason,omitempty"`
	Observations map[string]int64 `json:"observations"`
}

// Config holds the command-line configuration.
type Config struct {
	Producers int
	Messages  int
	Rate      float64 // messages/second across all producers; 0 means unpaced
	Topic     string
	Pattern   string
}

// soakMessage is the payload published during a run. The sequence pair makes
// every message unique so duplicates are detectable.
type soakMessage struct {
	Producer int
	Seq      int
}

func runSoak(ctx context.Context, cfg Config) ScenarioResult {
	bus := eventbus.New()

	var delivered atomic.Int64
	var duplicates atomic.Int64
	seen := &sync.Map{}

	eventbus.Subscribe(bus, cfg.Pattern, func(msg soakMessage) eventbus.Response {
		key := [2]int{msg.Producer, msg.Seq}
		if _, dup := seen.LoadOrStore(key, struct{}{}); dup {
			duplicates.Add(1)
		}
		delivered.Add(1)
		return eventbus.Ack()
	})

	bus.Start()

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	var published atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Producers; p++ {
		producer := p
		g.Go(func() error {
			for m := 0; m < cfg.Messages; m++ {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				} else if err := ctx.Err(); err != nil {
					return err
				}
				eventbus.PostAsync(bus, cfg.Topic, soakMessage{Producer: producer, Seq: m})
				published.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()

	// Stop drains the queue before returning, so the counts below are final.
	bus.Stop()

	result := ScenarioResult{
		Name: "async_no_loss_no_duplication",
		Observations: map[string]int64{
			"published":  published.Load(),
			"delivered":  delivered.Load(),
			"duplicates": duplicates.Load(),
		},
	}

	switch {
	case err != nil:
		result.Reason = fmt.Sprintf("producers aborted: %v", err)
	case duplicates.Load() != 0:
		result.Reason = "duplicate deliveries observed"
	case delivered.Load() != published.Load():
		result.Reason = "delivered count does not match published count"
	default:
		result.Pass = true
	}
	return result
}

func parseFlags() Config {
	cfg := Config{}
	flag.IntVar(&cfg.Producers, "producers", 10, "number of concurrent producer goroutines")
	flag.IntVar(&cfg.Messages, "messages", 100, "messages published per producer")
	flag.Float64Var(&cfg.Rate, "rate", 0, "messages per second across all producers (0 = unpaced)")
	flag.StringVar(&cfg.Topic, "topic", "soak.load", "topic to publish to")
	flag.StringVar(&cfg.Pattern, "pattern", "soak.*", "subscription pattern for the counting handler")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	buslog.Configure(buslog.Config{Service: "bus-soak"})

	started := time.Now()
	scenario := runSoak(context.Background(), cfg)
	ended := time.Now()

	report := Report{
		RunID:           fmt.Sprintf("soak-%d", started.UnixNano()),
		StartedAt:       started,
		EndedAt:         ended,
		DurationSeconds: ended.Sub(started).Seconds(),
		Scenario:        scenario,
		Verdict:         "PASS",
	}
	if !scenario.Pass {
		report.Verdict = "FAIL"
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "bus-soak: encode report: %v\n", err)
		os.Exit(1)
	}
	if !scenario.Pass {
		os.Exit(1)
	}
}
