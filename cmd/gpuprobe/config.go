// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gogpu/gpubridge/perf"
)

// overlayConfig is the on-disk form of the overlay settings. Any field can
// also be set from the environment as GPUPROBE_<FIELD>.
type overlayConfig struct {
	Flags             []string `mapstructure:"flags"`
	Position          string   `mapstructure:"position"`
	BackgroundOpacity float64  `mapstructure:"backgroundOpacity"`
	UpdateIntervalMs  int      `mapstructure:"updateIntervalMs"`
	TargetFrameMs     float64  `mapstructure:"targetFrameMs"`
}

// loadConfig reads the overlay config at path. An empty path yields the
// defaults, still overridable from the environment.
func loadConfig(path string) (overlayConfig, error) {
	v := viper.New()
	def := perf.DefaultDisplayOptions()
	v.SetDefault("flags", strings.Split(def.Flags.String(), ","))
	v.SetDefault("position", def.Position.String())
	v.SetDefault("backgroundOpacity", def.BackgroundOpacity)
	v.SetDefault("updateIntervalMs", def.UpdateIntervalMs)
	v.SetDefault("targetFrameMs", float64(perf.DefaultFrameBudget)/float64(time.Millisecond))
	v.SetEnvPrefix("gpuprobe")
	v.AutomaticEnv()

	if path != "" {
		dir, name := filepath.Split(path)
		if dir == "" {
			dir = "./"
		}
		v.SetConfigName(strings.TrimSuffix(name, filepath.Ext(name)))
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(name), "."))
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			return overlayConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg overlayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return overlayConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// displayOptions converts the config into validated overlay options and
// aggregator options.
func (c overlayConfig) displayOptions() (perf.DisplayOptions, []perf.Option, error) {
	flags, err := perf.ParseFlags(c.Flags)
	if err != nil {
		return perf.DisplayOptions{}, nil, err
	}
	corner, err := perf.ParseCorner(c.Position)
	if err != nil {
		return perf.DisplayOptions{}, nil, err
	}
	opts := perf.DisplayOptions{
		Flags:             flags,
		Position:          corner,
		BackgroundOpacity: c.BackgroundOpacity,
		UpdateIntervalMs:  c.UpdateIntervalMs,
	}
	if err := opts.Validate(); err != nil {
		return perf.DisplayOptions{}, nil, err
	}
	var aggOpts []perf.Option
	if c.TargetFrameMs > 0 {
		aggOpts = append(aggOpts, perf.WithTargetFrameBudget(time.Duration(c.TargetFrameMs*float64(time.Millisecond))))
	}
	return opts, aggOpts, nil
}
