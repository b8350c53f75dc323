// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/relabs-tech/compass/internal/calibration"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/gps"
	"github.com/relabs-tech/compass/internal/mag"
	"github.com/relabs-tech/compass/internal/sensors"
)

// RunCompassProducer reads the HMC5883L every HMC_SAMPLE_INTERVAL and
// publishes readings on TOPIC_MAG and headings on TOPIC_HEADING. The
// calibration websocket and /api/heading are served on WEB_SERVER_PORT.
func RunCompassProducer(cfg *config.Config) (err error) {
	compass, err := sensors.OpenCompass(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, compass.Close()) }()

	if id, err := compass.ID(); err != nil {
		log.WithError(err).Warn("compass: failed to read identification registers")
	} else if id != "H43" {
		log.WithField("id", id).Warn("compass: unexpected identification, continuing")
	}
	restoreCalibration(compass, cfg.CalibrationFile)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCompass)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if cfg.DeclinationFromGPS {
		err := subscribeJSON(client, cfg.TopicGPS, func(f gps.Fix) { applyVariation(compass, f) })
		if err != nil {
			return err
		}
	}

	last := &latest[mag.Reading]{}
	mux := http.NewServeMux()
	mux.Handle("/ws/calibration", &CalibrationHandler{
		Dev:            compass,
		File:           cfg.CalibrationFile,
		DefaultSamples: cfg.CalibrationSamples,
	})
	mux.Handle("/api/heading", last)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WebServerPort), Handler: mux}
	go func() {
		log.WithField("addr", srv.Addr).Info("compass: calibration server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("compass: calibration server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.HMCSampleInterval) * time.Millisecond
	log.WithField("interval", interval).Info("compass: producer started")
	runReadings(ctx, interval, compass.Read, func(r mag.Reading) {
		last.Set(r)
		publishReading(client, cfg, r)
	})
	log.Info("compass: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runReadings calls read every interval until ctx is done and hands each
// successful reading to emit. Read errors are logged and skipped.
func runReadings(ctx context.Context, interval time.Duration, read func() (mag.Reading, error), emit func(mag.Reading)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		r, err := read()
		if err != nil {
			log.WithError(err).Warn("compass: read error")
			continue
		}
		emit(r)
	}
}

func publishReading(client mqtt.Client, cfg *config.Config, r mag.Reading) {
	if err := publishJSON(client, cfg.TopicMag, false, r); err != nil {
		log.WithError(err).Warn("compass: publish error")
	}
	if err := publishJSON(client, cfg.TopicHeading, false, r.Summary()); err != nil {
		log.WithError(err).Warn("compass: publish error")
	}
}

// restoreCalibration applies a previously saved calibration, if any.
func restoreCalibration(c *sensors.Compass, path string) {
	if path == "" {
		return
	}
	switch err := c.LoadCalibration(path); {
	case errors.Is(err, calibration.ErrNotFound):
		log.WithField("file", path).Info("compass: no stored calibration, running uncalibrated")
	case err != nil:
		log.WithError(err).Warn("compass: stored calibration ignored")
	default:
		cal := c.Calibration()
		log.WithFields(log.Fields{"file": path, "offset": cal.Offset, "scale": cal.Scale}).Info("compass: calibration restored")
	}
}

type declinationSetter interface {
	Declination() float64
	SetDeclination(deg float64)
}

// applyVariation uses the magnetic variation of a valid GPS fix as
// declination. It reports whether the declination changed.
func applyVariation(dev declinationSetter, f gps.Fix) bool {
	if !f.HasVariation() || math.Abs(dev.Declination()-f.VariationDeg) < 1e-6 {
		return false
	}
	log.WithFields(log.Fields{"from": dev.Declination(), "to": f.VariationDeg}).Info("compass: declination updated from GPS")
	dev.SetDeclination(f.VariationDeg)
	return true
}
