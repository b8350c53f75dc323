// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hmc5883l controls a Honeywell HMC5883L three-axis magnetometer over
// I²C and turns its raw counts into calibrated field readings and a compass
// heading.
//
// A Dev owns its calibration (hard-iron offset and per-axis scale), its gain and
// its declination. It does no locking of its own: callers sharing one Dev across
// goroutines must serialize access.
//
// The sensor transmits the data registers as X, Z, Y. Everything returned by this
// package is in X, Y, Z order.
package hmc5883l

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// ErrInvalidSampleCount is returned by Calibrate for a non-positive count.
var ErrInvalidSampleCount = errors.New("hmc5883l: calibration sample count must be positive")

// TransportError reports a failed bus transaction. NACK, timeout and bus-busy
// conditions are not told apart.
type TransportError struct {
	Op  string // "read" or "write"
	Reg byte
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hmc5883l: %s register 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Opts holds initialization options.
//
// Averaging: samples averaged per measurement (1, 2, 4, 8).
// ODRHz: continuous output rate (0.75, 1.5, 3, 7.5, 15, 30, 75).
// CalibrationDelay: pause between calibration samples; it should be at least one
// output period so consecutive reads see a fresh register snapshot.
type Opts struct {
	Addr             uint16
	Gain             Gain
	Averaging        int
	ODRHz            float64
	CalibrationDelay time.Duration
}

// DefaultOpts is 8-sample averaging at 15Hz with the power-on gain.
var DefaultOpts = Opts{
	Addr:             DefaultAddr,
	Gain:             Gain1090,
	Averaging:        8,
	ODRHz:            15,
	CalibrationDelay: 10 * time.Millisecond,
}

// Raw is one sample of signed counts.
type Raw struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

func (r Raw) axes() [3]int16 {
	return [3]int16{r.X, r.Y, r.Z}
}

// Dev is a handle to an initialized HMC5883L.
type Dev struct {
	c    i2c.Dev
	gain Gain

	offset      [3]int16
	scale       [3]float64
	declination float64 // radians

	calDelay time.Duration
	sleep    func(time.Duration)
}

// New configures the sensor and puts it in continuous measurement mode.
//
// The three configuration writes are issued in order and the first failure is
// returned; writes that already succeeded are not undone.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if !opts.Gain.Valid() {
		return nil, fmt.Errorf("hmc5883l: invalid gain %d", opts.Gain)
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	delay := opts.CalibrationDelay
	if delay == 0 {
		delay = DefaultOpts.CalibrationDelay
	}
	d := &Dev{
		c:        i2c.Dev{Bus: bus, Addr: addr},
		gain:     opts.Gain,
		scale:    [3]float64{1, 1, 1},
		calDelay: delay,
		sleep:    time.Sleep,
	}
	if err := d.writeReg(RegConfigA, configA(opts.Averaging, opts.ODRHz)); err != nil {
		return nil, err
	}
	if err := d.writeReg(RegConfigB, opts.Gain.register()); err != nil {
		return nil, err
	}
	if err := d.writeReg(RegMode, ModeContinuous); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("HMC5883L{%s}", &d.c)
}

// Halt puts the sensor in idle mode.
func (d *Dev) Halt() error {
	return d.writeReg(RegMode, ModeIdle)
}

// Gain returns the gain the device was initialized with.
func (d *Dev) Gain() Gain {
	return d.gain
}

// ID returns the three identity bytes, expected 'H','4','3'.
func (d *Dev) ID() (byte, byte, byte, error) {
	var buf [3]byte
	if err := d.readRegs(RegIDA, buf[:]); err != nil {
		return 0, 0, 0, err
	}
	return buf[0], buf[1], buf[2], nil
}

// Status reads the status register (StatusReady, StatusLock).
func (d *Dev) Status() (byte, error) {
	var b [1]byte
	if err := d.readRegs(RegStatus, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRaw reads all three axes in a single transaction so they come from the same
// measurement.
func (d *Dev) ReadRaw() (Raw, error) {
	var buf [6]byte
	if err := d.readRegs(RegDataXM, buf[:]); err != nil {
		return Raw{}, err
	}
	return Raw{
		X: int16(uint16(buf[0])<<8 | uint16(buf[1])),
		Z: int16(uint16(buf[2])<<8 | uint16(buf[3])),
		Y: int16(uint16(buf[4])<<8 | uint16(buf[5])),
	}, nil
}

// ReadRegister reads one register. It is meant for diagnostics.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	var b [1]byte
	if err := d.readRegs(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteRegister writes one register. Writing CRB changes the sensor gain behind
// the driver's back; it is meant for diagnostics only.
func (d *Dev) WriteRegister(reg, val byte) error {
	return d.writeReg(reg, val)
}

func (d *Dev) writeReg(reg, val byte) error {
	if err := d.c.Tx([]byte{reg, val}, nil); err != nil {
		return &TransportError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Dev) readRegs(reg byte, out []byte) error {
	if len(out) == 0 {
		return errors.New("hmc5883l: read into empty buffer")
	}
	if err := d.c.Tx([]byte{reg}, out); err != nil {
		return &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return nil
}

var _ conn.Resource = &Dev{}
