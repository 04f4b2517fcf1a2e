// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package listener

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/internal/walker"
)

const metricsNamespace = "datatree_listener"

const (
	resultLabel = "result"
	kindLabel   = "kind"
	reasonLabel = "reason"

	resultSuccess = "success"
	resultError   = "error"
)

// Collector is a prometheus.Collector that collects metrics about change
// listeners. It can be shared by several shells.
type Collector struct {
	batches *prometheus.CounterVec
	events  *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_total",
				Help:      "The number of modification batches processed, by result.",
			}, []string{resultLabel},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_total",
				Help:      "The number of change events handled, by kind.",
			}, []string{kindLabel},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "skipped_nodes_total",
				Help:      "The number of malformed modification nodes left out, by reason.",
			}, []string{reasonLabel},
		),
	}
}

// RecordSkipped is part of the walker.Recorder interface.
func (c *Collector) RecordSkipped(reason walker.SkipReason) {
	c.skipped.WithLabelValues(string(reason)).Inc()
}

func (c *Collector) observeEvent(kind changestream.ChangeType) {
	c.events.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) observeBatch(err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	c.batches.WithLabelValues(result).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.batches.Describe(ch)
	c.events.Describe(ch)
	c.skipped.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.batches.Collect(ch)
	c.events.Collect(ch)
	c.skipped.Collect(ch)
}
