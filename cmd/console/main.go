// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/app"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/mag"
)

func main() {
	configPath := flag.String("config", "./compass_config.txt", "Path to configuration file")
	flag.Parse()

	log.Info("starting compass (mock console)")

	// The mock needs no hardware or broker; the config only supplies
	// declination and rate when present.
	cfg := config.Defaults()
	if loaded, err := config.Load(*configPath); err != nil {
		log.WithError(err).Warn("using default settings")
	} else {
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := mag.NewMockSource(cfg.DeclinationDeg)
	interval := time.Duration(cfg.HMCSampleInterval) * time.Millisecond
	if err := app.RunMockConsole(ctx, src, os.Stdout, interval); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
