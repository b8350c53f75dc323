// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/gps"
	"github.com/relabs-tech/compass/internal/mag"
)

// RunConsoleMQTT prints heading, magnetometer and GPS messages until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicHeading, func(h mag.Heading) {
		fmt.Println(formatHeading(h))
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicMag, func(r mag.Reading) {
		fmt.Println(formatReading(r))
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGPS, func(f gps.Fix) {
		fmt.Println(formatFix(f))
	}); err != nil {
		return err
	}

	waitForSignal()
	log.Info("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatHeading(h mag.Heading) string {
	return fmt.Sprintf("[HDG ]  HEADING=%6.2f° %-3s  DECL=%+6.2f°", h.Heading, h.Cardinal, h.Declination)
}

func formatReading(r mag.Reading) string {
	return fmt.Sprintf(
		"[MAG ]  x=%8.2f y=%8.2f z=%8.2f mG  |B|=%8.2f mG  heading=%6.2f°",
		r.X, r.Y, r.Z, r.Norm, r.Heading,
	)
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° var=%+.1f° validity=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.VariationDeg, f.Validity,
	)
}
