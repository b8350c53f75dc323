// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Guided hard-iron calibration for the HMC5883L.
//
// The sensor is sampled CALIBRATION_SAMPLES times while the user rotates it
// through every orientation. Per-axis extrema give the offset and scale, which
// are written to CALIBRATION_FILE (JSON if it ends in .json, YAML otherwise)
// together with a coverage confidence. compass_producer restores the file on
// start.
//
// Run:
//
//	go run ./cmd/calibration -config ./compass_config.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/relabs-tech/compass/internal/calibration"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/mag"
	"github.com/relabs-tech/compass/internal/sensors"
)

const verifyReadings = 10

func main() {
	configPath := flag.String("config", "./compass_config.txt", "Path to configuration file")
	out := flag.String("out", "", "Output file (defaults to CALIBRATION_FILE)")
	samples := flag.Int("samples", 0, "Sample count (defaults to CALIBRATION_SAMPLES)")
	flag.Parse()

	fmt.Println("=== Guided Compass Calibration (HMC5883L hard iron) ===")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fatal(fmt.Errorf("failed to load config from %s: %w", *configPath, err))
	}
	if err := run(config.Get(), sensors.OpenCompass, os.Stdin, *out, *samples); err != nil {
		fatal(err)
	}
	fmt.Println("\nCalibration complete.")
}

// run owns the sensor; it is halted and the bus closed on every return path.
func run(cfg *config.Config, open func(*config.Config) (*sensors.Compass, error), stdin io.Reader, out string, samples int) (err error) {
	in := bufio.NewReader(stdin)
	if out == "" {
		out = cfg.CalibrationFile
	}
	if samples <= 0 {
		samples = cfg.CalibrationSamples
	}

	compass, err := open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, compass.Close())
	}()

	if id, err := compass.ID(); err != nil {
		log.WithError(err).Warn("failed to read identification registers")
	} else if id != "H43" {
		log.WithField("id", id).Warn("unexpected identification, continuing")
	}

	pass := time.Duration(samples) * time.Duration(cfg.CalibrationDelayMS) * time.Millisecond
	fmt.Printf("Samples: %d (about %s). Gain: %s. Output: %s\n\n", samples, pass.Round(time.Second), compass.Gain(), out)
	fmt.Println("Keep the sensor away from steel and electronics.")
	fmt.Println("During capture, slowly rotate it through every orientation:")
	fmt.Println("a full turn flat, a full turn on its side and a full turn nose up.")
	waitEnter(in, "Press ENTER to start capture...")

	start := time.Now()
	cal, err := compass.Calibrate(samples)
	if err != nil {
		return err
	}
	rec := compass.Record(samples, cal)

	fmt.Printf("\nCapture finished in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Offset (counts): X=%d Y=%d Z=%d\n", cal.Offset[0], cal.Offset[1], cal.Offset[2])
	fmt.Printf("Scale:           X=%.6f Y=%.6f Z=%.6f\n", cal.Scale[0], cal.Scale[1], cal.Scale[2])
	fmt.Printf("Coverage confidence: %.2f\n", rec.Confidence)
	if rec.Confidence < 0.5 {
		fmt.Println("Warning: axes were excited unevenly; consider repeating with fuller rotations.")
	}

	if err := calibration.Save(out, rec); err != nil {
		return err
	}
	fmt.Printf("\nWrote: %s\n\n", out)

	waitEnter(in, fmt.Sprintf("Press ENTER to show %d calibrated headings for verification...", verifyReadings))
	for i := 0; i < verifyReadings; i++ {
		r, err := compass.Read()
		if err != nil {
			log.WithError(err).Warn("read error")
		} else {
			fmt.Printf("  heading %6.2f° %-3s  |B|=%7.2f mG\n", r.Heading, mag.Cardinal(r.Heading), r.Norm)
		}
		time.Sleep(time.Duration(cfg.HMCSampleInterval) * time.Millisecond)
	}
	return nil
}

// ---------- Console helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
