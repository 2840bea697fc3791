// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command gpuprobe checks that a gpubridge transport reaches a working
// WebGPU device. It opens a device, builds a buffer, a shader module and a
// render pipeline, then drives a synthetic frame loop through the
// performance overlay aggregator and prints each snapshot.
//
//	gpuprobe -transport native -duration 5s
//	gpuprobe -transport ws-listen -addr 127.0.0.1:8080 -metrics :9090
//
// Invocation and overlay metrics are served for Prometheus at /metrics
// when -metrics is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/metrics"
	"github.com/gogpu/gpubridge/perf"

	_ "github.com/gogpu/gpubridge/native"
	_ "github.com/gogpu/gpubridge/wsbridge"
)

var (
	okColor    = color.New(color.FgHiGreen, color.Bold)
	failColor  = color.New(color.FgHiRed, color.Bold)
	labelColor = color.New(color.FgHiBlack)
	valueColor = color.New(color.FgHiBlue, color.Bold)
)

func main() {
	var (
		transport   = flag.String("transport", "native", "transport name ("+strings.Join(gpubridge.Transports(), ", ")+")")
		addr        = flag.String("addr", "", "transport address")
		configPath  = flag.String("config", "", "overlay config file (yaml, json or toml)")
		metricsAddr = flag.String("metrics", "", "serve Prometheus metrics on this address")
		duration    = flag.Duration("duration", 3*time.Second, "how long to run the frame loop; 0 runs until interrupted")
		fps         = flag.Int("fps", 60, "synthetic frame rate")
		verbose     = flag.Bool("v", false, "log invocations")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	gpubridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := probe{
		transport:   *transport,
		addr:        *addr,
		configPath:  *configPath,
		metricsAddr: *metricsAddr,
		duration:    *duration,
		fps:         *fps,
		out:         color.Output,
	}
	if err := p.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		failColor.Fprintf(os.Stderr, "gpuprobe: %v\n", err)
		os.Exit(1)
	}
}

type probe struct {
	transport   string
	addr        string
	configPath  string
	metricsAddr string
	duration    time.Duration
	fps         int
	out         io.Writer
}

func (p *probe) run(ctx context.Context) error {
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	display, aggOpts, err := cfg.displayOptions()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	ch, err := gpubridge.Dial(ctx, p.transport, p.addr)
	if err != nil {
		return err
	}
	ch = collector.Instrument(ch)
	defer gpubridge.Close(ch)

	dev, err := gpubridge.Open(ctx, ch, gpubridge.WithLabel("gpuprobe"))
	if err != nil {
		return err
	}
	defer dev.Destroy(context.WithoutCancel(ctx))
	p.status(true, "device", dev.Handle().String())

	buf, err := p.build(ctx, dev)
	if err != nil {
		return err
	}

	display.CustomMetrics = map[string]perf.MetricFunc{
		"handles": func() (string, error) { return strconv.Itoa(dev.LiveHandles()), nil },
	}
	agg, err := perf.New(display, aggOpts...)
	if err != nil {
		return err
	}

	runCtx := ctx
	if p.duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.duration)
		defer cancel()
	}
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return agg.Run(gctx, func(s perf.Snapshot) {
			collector.ObserveSnapshot(s)
			collector.ObserveAggregator(agg)
			p.snapshot(s)
		})
	})
	g.Go(func() error {
		return p.frames(gctx, dev, buf, agg)
	})
	if p.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, p.metricsAddr, reg)
		})
	}
	err = g.Wait()
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil
	}
	return err
}

// build creates the probe's resources. The buffer, the shader module and
// the preferred format do not depend on each other and are requested
// concurrently; the pipeline waits for the shader module.
func (p *probe) build(ctx context.Context, dev *gpubridge.Device) (gpubridge.Handle, error) {
	var (
		buf    gpubridge.Handle
		module gpubridge.Handle
		format = defaultFormat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		buf, err = dev.CreateBuffer(gctx, gpubridge.BufferDescriptor{
			Label: "gpuprobe vertices",
			Size:  uint64(len(triangle)),
			Usage: vertexUsage,
		})
		return err
	})
	g.Go(func() (err error) {
		module, err = dev.CreateShaderModule(gctx, gpubridge.ShaderModuleDescriptor{Label: "gpuprobe", Code: probeWGSL})
		return err
	})
	g.Go(func() error {
		f, err := dev.PreferredCanvasFormat(gctx)
		if err != nil {
			return err
		}
		format = f
		return nil
	})
	if err := g.Wait(); err != nil {
		p.status(false, "resources", err.Error())
		return gpubridge.Handle{}, err
	}
	p.status(true, "buffer", buf.String())
	p.status(true, "shader module", module.String())

	pipeline, err := dev.CreateRenderPipeline(ctx, probePipeline(module, format))
	if err != nil {
		p.status(false, "render pipeline", err.Error())
		return gpubridge.Handle{}, err
	}
	p.status(true, "render pipeline", pipeline.String())
	if err := dev.Release(ctx, pipeline); err != nil {
		return gpubridge.Handle{}, err
	}
	if err := dev.Release(ctx, module); err != nil {
		return gpubridge.Handle{}, err
	}
	return buf, nil
}

// frames uploads the triangle once per frame and feeds the aggregator.
func (p *probe) frames(ctx context.Context, dev *gpubridge.Device, buf gpubridge.Handle, agg *perf.Aggregator) error {
	rate := p.fps
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := dev.WriteBuffer(ctx, buf, 0, triangle); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			agg.AddDrawCalls(1)
			agg.AddTriangles(1)
			agg.RecordFrame(now)
		}
	}
}

func (p *probe) status(ok bool, what, detail string) {
	mark := okColor.Sprint("ok  ")
	if !ok {
		mark = failColor.Sprint("FAIL")
	}
	fmt.Fprintf(p.out, "%s %s %s\n", mark, labelColor.Sprint(what), detail)
}

func (p *probe) snapshot(s perf.Snapshot) {
	lines := s.Lines(language.English)
	for i, l := range lines {
		name, value, found := strings.Cut(l, ": ")
		if found {
			lines[i] = labelColor.Sprint(name+":") + " " + valueColor.Sprint(value)
		}
	}
	fmt.Fprintf(p.out, "%s  %s\n", labelColor.Sprint(s.Timestamp.Format("15:04:05.000")), strings.Join(lines, "  "))
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	gpubridge.Logger().Info("gpuprobe: serving metrics", "addr", addr)
	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}
