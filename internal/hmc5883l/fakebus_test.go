// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

var errBus = errors.New("bus: NACK")

// fakeBus is a scripted register file. Reads of the data block pop the next
// sample from samples; failRead makes the n-th data read (1-based) fail.
type fakeBus struct {
	regs      [16]byte
	writes    [][2]byte
	samples   []Raw
	dataReads int
	failRead  int
	failWrite map[byte]bool
}

func (f *fakeBus) String() string { return "fakeBus" }

func (f *fakeBus) SetSpeed(physic.Frequency) error { return nil }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if addr != DefaultAddr {
		return fmt.Errorf("unexpected address 0x%02X", addr)
	}
	if len(w) == 0 {
		return errors.New("empty write")
	}
	reg := w[0]
	if len(w) == 2 && r == nil {
		if f.failWrite[reg] {
			return errBus
		}
		f.writes = append(f.writes, [2]byte{reg, w[1]})
		f.regs[reg] = w[1]
		return nil
	}
	if reg == RegDataXM {
		f.dataReads++
		if f.failRead != 0 && f.dataReads == f.failRead {
			return errBus
		}
		if len(f.samples) == 0 {
			return errors.New("no samples left")
		}
		s := f.samples[0]
		f.samples = f.samples[1:]
		// Bus order is X, Z, Y.
		r[0], r[1] = byte(uint16(s.X)>>8), byte(s.X)
		r[2], r[3] = byte(uint16(s.Z)>>8), byte(s.Z)
		r[4], r[5] = byte(uint16(s.Y)>>8), byte(s.Y)
		return nil
	}
	copy(r, f.regs[reg:])
	return nil
}

// newTestDev returns a device on a fake bus that does not sleep between
// calibration samples.
func newTestDev(bus *fakeBus, g Gain) (*Dev, error) {
	opts := DefaultOpts
	opts.Gain = g
	d, err := New(bus, &opts)
	if err != nil {
		return nil, err
	}
	d.sleep = func(time.Duration) {}
	return d, nil
}
