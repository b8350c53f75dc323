// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/app"
	"github.com/relabs-tech/compass/internal/config"
)

func main() {
	configPath := flag.String("config", "./compass_config.txt", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	log.Info("starting compass producer (HMC5883L → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCompassProducer(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
