// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/relabs-tech/compass/internal/app"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./compass_config.txt", "Path to configuration file")
	addr := flag.String("addr", ":8081", "Listen address")
	flag.Parse()

	log.Info("starting HMC5883L register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := run(config.Get(), *addr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, addr string) (err error) {
	compass, err := sensors.OpenCompass(cfg)
	if err != nil {
		return fmt.Errorf("compass init failed: %w", err)
	}
	defer func() {
		err = multierr.Append(err, compass.Close())
	}()

	if id, err := compass.ID(); err != nil {
		log.WithError(err).Warn("failed to read identification registers")
	} else {
		log.WithField("id", id).Info("sensor identified")
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", &app.RegisterDebugHandler{Dev: compass})

	// API endpoint for live compass data
	mux.HandleFunc("/api/heading", app.HandleReading(compass.Read))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})

	log.WithField("addr", addr).Info("register debug tool listening")
	return http.ListenAndServe(addr, mux)
}
