// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_published_total",
		Help: "Total number of messages published, by topic and dispatch mode",
	}, []string{"topic", "mode"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_deliveries_total",
		Help: "Total number of handler invocations, by topic",
	}, []string{"topic"})

	HandlerFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_handler_faults_total",
		Help: "Total number of handler panics recovered during dispatch, by topic",
	}, []string{"topic"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventbus_queue_depth",
		Help: "Number of messages currently waiting for the async dispatcher",
	})
)

// IncPublished records one published message. Mode is "sync" or "async".
func IncPublished(topic, mode string) {
	if topic == "" {
		topic = "unknown"
	}
	if mode == "" {
		mode = "unknown"
	}
	PublishedTotal.WithLabelValues(topic, mode).Inc()
}

// IncDelivery records one handler invocation for the given topic.
func IncDelivery(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	DeliveriesTotal.WithLabelValues(topic).Inc()
}

// IncHandlerFault records a recovered handler panic for the given topic.
func IncHandlerFault(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	HandlerFaultsTotal.WithLabelValues(topic).Inc()
}

// SetQueueDepth records the current async queue depth.
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}
