// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exports interop and overlay measurements to Prometheus.
//
// Instrument wraps a gpubridge.Channel so every invocation is timed and
// every failure is counted by cause. ObserveSnapshot mirrors the latest
// perf.Snapshot into gauges, so the overlay's numbers are also scrapeable.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/perf"
)

const namespace = "gpubridge"

// Outcome and failure labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"

	FailureTransport   = "transport"
	FailureDeviceLost  = "device_lost"
	FailureCompilation = "compilation"
	FailureRemote      = "remote"
	FailureCanceled    = "canceled"
	FailureOther       = "other"
)

// Collector owns the gpubridge metric families.
type Collector struct {
	latency  *prometheus.HistogramVec
	failures *prometheus.CounterVec
	inflight prometheus.Gauge

	overlay       *prometheus.GaugeVec
	metricFailure prometheus.Gauge
}

// New registers the metric families with reg. Pass
// prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoke_duration_seconds",
			Help:      "Interop invocation latency by identifier and outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"identifier", "outcome"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoke_failures_total",
			Help:      "Failed interop invocations by identifier and cause.",
		}, []string{"identifier", "cause"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocations_in_flight",
			Help:      "Interop invocations awaiting an answer.",
		}),
		overlay: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlay_value",
			Help:      "Latest performance overlay values by field.",
		}, []string{"field"}),
		metricFailure: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlay_custom_metric_failures",
			Help:      "Custom overlay metric evaluations that failed since start.",
		}),
	}
}

// Instrument returns a Channel that records metrics for every invocation
// on ch. Results and errors pass through untouched. If ch holds resources,
// closing the returned Channel with gpubridge.Close closes ch.
func (c *Collector) Instrument(ch gpubridge.Channel) gpubridge.Channel {
	return &instrumentedChannel{ch: ch, c: c}
}

type instrumentedChannel struct {
	ch gpubridge.Channel
	c  *Collector
}

func (i *instrumentedChannel) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	i.c.inflight.Inc()
	start := time.Now()
	v, err := i.ch.Invoke(ctx, identifier, args...)
	elapsed := time.Since(start).Seconds()
	i.c.inflight.Dec()

	if err != nil {
		i.c.latency.WithLabelValues(identifier, OutcomeError).Observe(elapsed)
		i.c.failures.WithLabelValues(identifier, FailureLabel(err)).Inc()
		return v, err
	}
	i.c.latency.WithLabelValues(identifier, OutcomeOK).Observe(elapsed)
	return v, nil
}

func (i *instrumentedChannel) Close() error { return gpubridge.Close(i.ch) }

// FailureLabel maps an invocation error to its cause label.
func FailureLabel(err error) string {
	switch {
	case errors.Is(err, gpubridge.ErrTransport):
		return FailureTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	}
	var re *gpubridge.RemoteError
	if !errors.As(err, &re) {
		return FailureOther
	}
	switch gpubridge.CauseOf(err) {
	case gpubridge.CauseDeviceLost:
		return FailureDeviceLost
	case gpubridge.CauseCompilationError:
		return FailureCompilation
	}
	return FailureRemote
}

// ObserveSnapshot sets the overlay gauges from s. Fields absent from s are
// left at their previous value.
func (c *Collector) ObserveSnapshot(s perf.Snapshot) {
	if s.FPS != nil {
		c.overlay.WithLabelValues("fps").Set(*s.FPS)
	}
	if s.FrameTimeMs != nil {
		c.overlay.WithLabelValues("frame_time_ms").Set(*s.FrameTimeMs)
	}
	if s.FrameTimeUsagePct != nil {
		c.overlay.WithLabelValues("frame_time_usage_pct").Set(*s.FrameTimeUsagePct)
	}
	if s.DrawCalls != nil {
		c.overlay.WithLabelValues("draw_calls").Set(float64(*s.DrawCalls))
	}
	if s.TriangleCount != nil {
		c.overlay.WithLabelValues("triangles").Set(float64(*s.TriangleCount))
	}
}

// ObserveAggregator records the aggregator's cumulative custom metric
// failures.
func (c *Collector) ObserveAggregator(a *perf.Aggregator) {
	c.metricFailure.Set(float64(a.MetricFailures()))
}
