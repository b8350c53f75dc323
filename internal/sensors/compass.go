// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass/internal/calibration"
	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/hmc5883l"
	"github.com/relabs-tech/compass/internal/mag"
)

// SensorName identifies compass readings and stored calibrations.
const SensorName = "hmc5883l"

// Compass serializes access to one HMC5883L so the producer loop, the
// calibration websocket and the register debugger can share it.
type Compass struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *hmc5883l.Dev
	now func() time.Time
}

// OpenCompass initializes the host drivers, opens the configured I2C bus and
// configures the sensor on it.
func OpenCompass(cfg *config.Config) (*Compass, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.HMCI2CBus)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", cfg.HMCI2CBus, err)
	}
	c, err := NewCompass(bus, cfg)
	if err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	log.WithFields(log.Fields{
		"bus":  bus.String(),
		"addr": fmt.Sprintf("0x%02X", cfg.HMCI2CAddr),
		"gain": cfg.HMCGain.String(),
		"avg":  cfg.HMCAvgSamples,
		"odr":  cfg.HMCODRHz,
	}).Info("HMC5883L initialized")
	return c, nil
}

// NewCompass configures the sensor on an already open bus. The compass owns
// bus from then on and closes it in Close.
func NewCompass(bus i2c.BusCloser, cfg *config.Config) (*Compass, error) {
	opts := cfg.HMCOpts()
	dev, err := hmc5883l.New(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("HMC5883L init: %w", err)
	}
	dev.SetDeclination(cfg.DeclinationDeg)
	return &Compass{bus: bus, dev: dev, now: time.Now}, nil
}

// Read takes one calibrated sample and computes its heading.
func (c *Compass) Read() (mag.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.dev.ReadCalibrated()
	if err != nil {
		return mag.Reading{}, err
	}
	return mag.FromMeasurement(SensorName, m, c.dev.Heading(m), c.dev.Declination(), c.now()), nil
}

// Calibrate runs an n-sample hard-iron pass while holding the device. The
// sensor must be rotated through all orientations meanwhile.
func (c *Compass) Calibrate(n int) (hmc5883l.Calibration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Calibrate(n); err != nil {
		return c.dev.Calibration(), err
	}
	return c.dev.Calibration(), nil
}

// Calibration returns the calibration currently applied.
func (c *Compass) Calibration() hmc5883l.Calibration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Calibration()
}

// SetCalibration replaces the calibration currently applied.
func (c *Compass) SetCalibration(cal hmc5883l.Calibration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev.SetCalibration(cal)
}

// Record wraps cal, usually the result of Calibrate, as a storable record
// tagged with this sensor's gain.
func (c *Compass) Record(samples int, cal hmc5883l.Calibration) calibration.Record {
	return calibration.FromCalibration(SensorName, c.dev.Gain(), samples, cal)
}

// LoadCalibration restores a calibration saved with calibration.Save. A
// missing file is reported as calibration.ErrNotFound. A record taken with a
// different gain is still applied, with a warning.
func (c *Compass) LoadCalibration(path string) error {
	rec, err := calibration.Load(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if g := c.dev.Gain().String(); rec.Gain != "" && rec.Gain != g {
		log.WithFields(log.Fields{"file": rec.Gain, "sensor": g}).Warn("calibration was taken with a different gain")
	}
	c.dev.SetCalibration(rec.Calibration())
	return nil
}

// SetDeclination sets the heading correction in degrees.
func (c *Compass) SetDeclination(deg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev.SetDeclination(deg)
}

// Declination returns the heading correction in degrees.
func (c *Compass) Declination() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Declination()
}

// Gain returns the configured sensor gain.
func (c *Compass) Gain() hmc5883l.Gain {
	return c.dev.Gain()
}

// ID returns the three identification bytes, "H43" on a genuine part.
func (c *Compass) ID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, b, d, err := c.dev.ID()
	if err != nil {
		return "", err
	}
	return string([]byte{a, b, d}), nil
}

// ReadRegister reads one register.
func (c *Compass) ReadRegister(reg byte) (byte, error) {
	if reg > hmc5883l.RegIDC {
		return 0, fmt.Errorf("register 0x%02X out of range", reg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.ReadRegister(reg)
}

// ReadAllRegisters reads every register of the sensor.
func (c *Compass) ReadAllRegisters() (map[byte]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	regs := make(map[byte]byte, hmc5883l.RegIDC+1)
	var errs error
	for reg := byte(0); reg <= hmc5883l.RegIDC; reg++ {
		v, err := c.dev.ReadRegister(reg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		regs[reg] = v
	}
	return regs, errs
}

var (
	// ErrReadOnly is returned when writing a register that is not writable.
	ErrReadOnly = errors.New("register is read-only")
	// ErrGainFixed is returned for writes to CRB. The driver converts with
	// the gain chosen at initialization, so the gain cannot change afterwards.
	ErrGainFixed = errors.New("gain is fixed; re-initialize to change it")
)

// WriteRegister writes CRA or the mode register.
func (c *Compass) WriteRegister(reg, val byte) error {
	if reg > hmc5883l.RegMode {
		return fmt.Errorf("register 0x%02X: %w", reg, ErrReadOnly)
	}
	if reg == hmc5883l.RegConfigB {
		return fmt.Errorf("register 0x%02X: %w", reg, ErrGainFixed)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.WriteRegister(reg, val)
}

// Close idles the sensor and releases the bus.
func (c *Compass) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return multierr.Combine(c.dev.Halt(), c.bus.Close())
}

func (c *Compass) String() string {
	return c.dev.String()
}
