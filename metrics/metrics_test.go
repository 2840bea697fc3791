package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/interoptest"
	"github.com/gogpu/gpubridge/perf"
)

func TestInstrumentCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c := New(reg)

	double := interoptest.NewChannel()
	ch := c.Instrument(double)

	dev, err := gpubridge.Open(ctx, ch)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	double.SimulateShaderCompilationError("bad syntax")
	if _, err := dev.CreateShaderModule(ctx, gpubridge.ShaderModuleDescriptor{Code: "x"}); err == nil {
		t.Fatal("CreateShaderModule() succeeded")
	}

	if got := testutil.ToFloat64(c.failures.WithLabelValues(gpubridge.OpCreateShaderModule, FailureCompilation)); got != 1 {
		t.Errorf("compilation failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.latency); got != 4 {
		t.Errorf("latency series = %d, want 4", got)
	}
	if got := testutil.ToFloat64(c.inflight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestFailureLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&gpubridge.TransportError{Identifier: "x", Err: errors.New("eof")}, FailureTransport},
		{&gpubridge.RemoteError{Message: "lost", Cause: gpubridge.CauseDeviceLost}, FailureDeviceLost},
		{&gpubridge.RemoteError{Message: "bad", Cause: gpubridge.CauseCompilationError}, FailureCompilation},
		{&gpubridge.RemoteError{Message: "out of memory"}, FailureRemote},
		{context.DeadlineExceeded, FailureCanceled},
		{errors.New("weird"), FailureOther},
	}
	for _, tt := range tests {
		if got := FailureLabel(tt.err); got != tt.want {
			t.Errorf("FailureLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	fps, draws := 59.5, 42
	c.ObserveSnapshot(perf.Snapshot{FPS: &fps, DrawCalls: &draws, Timestamp: time.Now()})

	want := `
# HELP gpubridge_overlay_value Latest performance overlay values by field.
# TYPE gpubridge_overlay_value gauge
gpubridge_overlay_value{field="draw_calls"} 42
gpubridge_overlay_value{field="fps"} 59.5
`
	if err := testutil.CollectAndCompare(c.overlay, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}

func TestObserveAggregator(t *testing.T) {
	c := New(prometheus.NewRegistry())
	a, err := perf.New(perf.DisplayOptions{
		UpdateIntervalMs: 10,
		CustomMetrics: map[string]perf.MetricFunc{
			"bad": func() (string, error) { return "", errors.New("nope") },
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	a.Tick(time.Now())
	a.Tick(time.Now())

	c.ObserveAggregator(a)
	if got := testutil.ToFloat64(c.metricFailure); got != 2 {
		t.Errorf("custom metric failures = %v, want 2", got)
	}
}
