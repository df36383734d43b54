// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-co
// SPDX-FileContributor: mochi-co

// Package system tracks delivery-core runtime counters and exposes
// them as both a plain snapshot struct and, optionally, Prometheus
// metrics.
package system

import (
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Info contains atomic counters for the delivery core's own
// statistics, trimmed to the counters this package's callers can
// actually derive (no network/session-layer figures, since those
// belong to the transport layer, not the delivery core).
type Info struct {
	Version             string `json:"version"`             // the current version of the delivery core
	Started             int64  `json:"started"`             // the time the core started, in unix seconds
	MessagesReceived    int64  `json:"messages_received"`   // total number of incoming publishes accepted
	MessagesSent        int64  `json:"messages_sent"`       // total number of outgoing publishes sent
	MessagesDropped     int64  `json:"messages_dropped"`    // total number of deliveries refused by admission control
	Inflight            int64  `json:"inflight"`            // current number of in-flight delivery records, across all clients
	Queued              int64  `json:"queued"`              // current number of queued delivery records, across all clients
	PersistenceChanges  int64  `json:"persistence_changes"` // total number of persistence add/update/delete calls issued
	MemoryAlloc         int64  `json:"memory_alloc"`        // memory currently allocated
	Threads             int64  `json:"threads"`             // number of active goroutines, named as threads for platform ambiguity
}

// Clone makes a copy of Info using atomic loads, so a caller never
// observes a torn read across fields that other goroutines are
// concurrently incrementing.
func (i *Info) Clone() *Info {
	return &Info{
		Version:            i.Version,
		Started:            atomic.LoadInt64(&i.Started),
		MessagesReceived:   atomic.LoadInt64(&i.MessagesReceived),
		MessagesSent:       atomic.LoadInt64(&i.MessagesSent),
		MessagesDropped:    atomic.LoadInt64(&i.MessagesDropped),
		Inflight:           atomic.LoadInt64(&i.Inflight),
		Queued:             atomic.LoadInt64(&i.Queued),
		PersistenceChanges: atomic.LoadInt64(&i.PersistenceChanges),
		MemoryAlloc:        atomic.LoadInt64(&i.MemoryAlloc),
		Threads:            atomic.LoadInt64(&i.Threads),
	}
}

// RegisterPrometheusMetrics exposes i's counters under registry (or
// the default registerer if nil), the same CounterFunc/GaugeFunc
// pattern the rest of the corpus uses for live atomic counters.
func (i *Info) RegisterPrometheusMetrics(registry prometheus.Registerer) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	type metrics struct {
		metricType string
		name       string
		help       string
		value      *int64
	}

	metricsList := []metrics{
		{"c", "messages_received", "A counter of total number of incoming publishes accepted", &i.MessagesReceived},
		{"c", "messages_sent", "A counter of total number of outgoing publishes sent", &i.MessagesSent},
		{"c", "messages_dropped", "A counter of total number of deliveries refused by admission control", &i.MessagesDropped},
		{"g", "inflight", "A gauge of the current number of in-flight delivery records", &i.Inflight},
		{"g", "queued", "A gauge of the current number of queued delivery records", &i.Queued},
		{"c", "persistence_changes", "A counter of total number of persistence add/update/delete calls issued", &i.PersistenceChanges},
	}

	for _, m := range metricsList {
		m := m
		fn := func() float64 {
			return float64(atomic.LoadInt64(m.value))
		}

		switch m.metricType {
		case "c":
			registry.MustRegister(
				prometheus.NewCounterFunc(
					prometheus.CounterOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		case "g":
			registry.MustRegister(
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		}
	}

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build Information",
		},
		[]string{"goversion", "version"},
	)
	registry.MustRegister(buildInfo)
	buildInfo.With(prometheus.Labels{"goversion": runtime.Version(), "version": i.Version}).Set(1)
}
