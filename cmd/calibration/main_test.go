// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/compass/internal/calibration"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/hmc5883l"
	"github.com/relabs-tech/compass/internal/sensors"
)

var errNACK = errors.New("bus: NACK")

// sensorBus stores register writes and answers data reads with a growing
// sample until failData is set.
type sensorBus struct {
	regs     [13]byte
	n        int16
	failData bool
	closed   bool
}

func (b *sensorBus) String() string                  { return "sensorBus" }
func (b *sensorBus) SetSpeed(physic.Frequency) error { return nil }
func (b *sensorBus) Close() error                    { b.closed = true; return nil }

func (b *sensorBus) Tx(addr uint16, w, r []byte) error {
	reg := w[0]
	if len(r) == 0 {
		b.regs[reg] = w[1]
		return nil
	}
	if reg == hmc5883l.RegDataXM {
		if b.failData {
			return errNACK
		}
		b.n += 10
		for i := 0; i < 6; i += 2 {
			r[i], r[i+1] = byte(uint16(b.n)>>8), byte(b.n)
		}
		return nil
	}
	copy(r, b.regs[reg:])
	return nil
}

func testSetup(t *testing.T, bus *sensorBus) (*config.Config, func(*config.Config) (*sensors.Compass, error)) {
	t.Helper()
	cfg := config.Defaults()
	cfg.MQTTBroker = "tcp://localhost:1883"
	cfg.CalibrationSamples = 5
	cfg.CalibrationDelayMS = 1
	cfg.HMCSampleInterval = 1
	open := func(cfg *config.Config) (*sensors.Compass, error) {
		return sensors.NewCompass(bus, cfg)
	}
	return cfg, open
}

func TestRunSavesAndReleasesSensor(t *testing.T) {
	bus := &sensorBus{}
	cfg, open := testSetup(t, bus)
	out := filepath.Join(t.TempDir(), "cal.yaml")

	if err := run(cfg, open, strings.NewReader("\n\n"), out, 0); err != nil {
		t.Fatal(err)
	}
	rec, err := calibration.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Samples != 5 || rec.Gain != hmc5883l.Gain1090.String() {
		t.Errorf("saved record = %+v", rec)
	}
	if !bus.closed || bus.regs[hmc5883l.RegMode] != hmc5883l.ModeIdle {
		t.Errorf("sensor not released: closed=%v mode=0x%02X", bus.closed, bus.regs[hmc5883l.RegMode])
	}
}

func TestRunFailureReleasesSensor(t *testing.T) {
	bus := &sensorBus{failData: true}
	cfg, open := testSetup(t, bus)
	out := filepath.Join(t.TempDir(), "cal.yaml")

	err := run(cfg, open, strings.NewReader("\n"), out, 3)
	if !errors.Is(err, errNACK) {
		t.Fatalf("err = %v, want bus error", err)
	}
	if !bus.closed || bus.regs[hmc5883l.RegMode] != hmc5883l.ModeIdle {
		t.Errorf("sensor not released: closed=%v mode=0x%02X", bus.closed, bus.regs[hmc5883l.RegMode])
	}
	if _, err := calibration.Load(out); !errors.Is(err, calibration.ErrNotFound) {
		t.Errorf("calibration file written after failed pass: %v", err)
	}
}
