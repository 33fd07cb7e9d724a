// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command busdemo runs a small trading pipeline on top of the event bus:
// a risk engine, a notifier and a validator wired together through topics,
// with Prometheus metrics exposed over HTTP. It exists to exercise the bus
// the way a real process would; the bus core has no process surface of its
// own.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/eventbus"
	"github.com/ManuGH/eventbus/internal/config"
	buslog "github.com/ManuGH/eventbus/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "busdemo: %v\n", err)
		os.Exit(1)
	}

	buslog.Configure(buslog.Config{Level: cfg.LogLevel, Service: cfg.Service})
	logger := buslog.WithComponent("busdemo")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()
	bus.Start()
	defer bus.Stop()

	engine := newRiskEngine(bus, logger)
	defer engine.Close()
	notifier := newNotifier(bus, logger)
	defer notifier.Close()
	wireNotificationLog(bus, logger)
	wireValidator(bus)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("listen", cfg.MetricsAddr).
			Str("version", version).
			Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runTradeFeed(ctx, bus, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("busdemo exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("busdemo stopped")
}
