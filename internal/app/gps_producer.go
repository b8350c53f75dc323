// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes every RMC fix, including magnetic variation, as retained JSON on
// TOPIC_GPS.
func RunGPSProducer(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open GPS serial port %s: %w", cfg.GPSSerialPort, err)
	}
	defer port.Close()
	log.WithFields(log.Fields{"port": serialOpts.PortName, "baud": serialOpts.BaudRate}).Info("GPS serial port opened")

	return streamFixes(port, func(f gps.Fix) error {
		if err := publishJSON(client, cfg.TopicGPS, true, f); err != nil {
			log.WithError(err).Warn("GPS publish error")
			return nil
		}
		log.WithFields(log.Fields{
			"lat": f.Latitude, "lon": f.Longitude, "validity": f.Validity, "variation": f.VariationDeg,
		}).Debug("published GPS fix")
		return nil
	})
}

// streamFixes reads NMEA lines from r until it fails and hands every RMC fix
// to emit. Unparseable sentences are skipped. An emit error stops the stream.
func streamFixes(r io.Reader, emit func(gps.Fix) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fix, ok, perr := gps.ParseSentence(line)
			switch {
			case perr != nil:
				log.WithError(perr).Debug("NMEA parse error")
			case ok:
				if err := emit(fix); err != nil {
					return err
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("GPS read: %w", err)
		}
	}
}
