// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Command mapflowd runs a MapFlow engine, headless by default or with a
// GL preview window when -headless=false: it loads a graph document,
// opens the configured output sinks, and drives the scheduler loop
// until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mapflow/core"
	"github.com/mapflow/core/compositor"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// settings mirrors mapflow.Config in the flat, file/flag-friendly
// shape viper expects; run translates it into mapflow.Attrs.
type settings struct {
	FPS          int     `mapstructure:"fps"`
	SampleRate   int     `mapstructure:"sample_rate"`
	FFTSize      int     `mapstructure:"fft_size"`
	Overlap      float64 `mapstructure:"overlap"`
	Smoothing    float64 `mapstructure:"smoothing"`
	GraphPath    string  `mapstructure:"graph"`
	Headless     bool    `mapstructure:"headless"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	PreviewTitle string  `mapstructure:"preview_title"`
}

func loadSettings() (settings, error) {
	fs := pflag.NewFlagSet("mapflowd", pflag.ExitOnError)
	fs.Int("fps", 60, "scheduler target frame rate")
	fs.Int("sample_rate", 44100, "audio sample rate in Hz")
	fs.Int("fft_size", 1024, "audio analyzer FFT size")
	fs.Float64("overlap", 0.5, "audio analyzer hop overlap ratio")
	fs.Float64("smoothing", 0.7, "audio analyzer per-band smoothing factor")
	fs.String("graph", "", "path to a graph document to load at startup")
	fs.Bool("headless", true, "run without a preview window")
	fs.String("metrics_addr", "", "address to serve /metrics on, empty disables it")
	fs.String("preview_title", "MapFlow", "preview window title, used when -headless=false")
	fs.String("config", "", "path to a config file (yaml/json/toml)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return settings{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("MAPFLOW")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return settings{}, err
	}
	if cfgFile, _ := fs.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, err
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("mapflowd exited with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	producer := newFileProducer()
	var backend compositor.Backend = compositor.NewSoftBackend()
	if !s.Headless {
		backend = compositor.NewGLBackend()
	}

	eng, err := mapflow.New(producer, backend,
		mapflow.FPS(s.FPS),
		mapflow.Audio(s.SampleRate, s.FFTSize, s.Overlap),
		mapflow.Smoothing(s.Smoothing),
	)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	if s.GraphPath != "" {
		g, err := loadGraphDocument(s.GraphPath)
		if err != nil {
			return err
		}
		eng.SetGraph(g)
	}

	if !s.Headless {
		win, err := iface.NewWindowOutputSink(s.PreviewTitle, 1280, 720)
		if err != nil {
			return err
		}
		defer win.Close()
		eng.AttachOutput(graph.ID(1), win)
	}

	if s.MetricsAddr != "" {
		eng.EnableMetrics(prometheusDefaultRegisterer())
		go serveMetrics(s.MetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("mapflowd starting", "fps", s.FPS, "headless", s.Headless)
	return eng.Run(ctx, func() int64 { return time.Now().UnixMilli() })
}
