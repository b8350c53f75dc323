// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"fmt"
	"math"
)

// Calibration is a hard-iron offset and a per-axis normalization scale, both in
// raw count space. They do not depend on the gain.
type Calibration struct {
	Offset [3]int16   `json:"offset" yaml:"offset"`
	Scale  [3]float64 `json:"scale" yaml:"scale"`
}

// IdentityCalibration leaves raw counts unchanged.
var IdentityCalibration = Calibration{Scale: [3]float64{1, 1, 1}}

// CalibrationFromExtrema derives offset and scale from the per-axis minimum and
// maximum seen during a calibration pass.
//
// A zero-width axis gets scale 1 instead of dividing by zero.
func CalibrationFromExtrema(min, max [3]int16) Calibration {
	var c Calibration
	for i := 0; i < 3; i++ {
		c.Offset[i] = int16((int32(max[i]) + int32(min[i])) / 2)
		half := float64(int32(max[i])-int32(min[i])) / 2
		if half != 0 {
			c.Scale[i] = 1 / half
		} else {
			c.Scale[i] = 1
		}
	}
	return c
}

// Calibrate samples the sensor n times, tracking per-axis extrema, and replaces
// offset and scale with values derived from them.
//
// It blocks for roughly n times the calibration delay and cannot be interrupted.
// A failed read aborts the pass and leaves the previous calibration in place.
func (d *Dev) Calibrate(n int) error {
	if n <= 0 {
		return ErrInvalidSampleCount
	}
	min := [3]int16{math.MaxInt16, math.MaxInt16, math.MaxInt16}
	max := [3]int16{math.MinInt16, math.MinInt16, math.MinInt16}
	for i := 0; i < n; i++ {
		r, err := d.ReadRaw()
		if err != nil {
			return fmt.Errorf("calibration sample %d/%d: %w", i+1, n, err)
		}
		for j, v := range r.axes() {
			if v < min[j] {
				min[j] = v
			}
			if v > max[j] {
				max[j] = v
			}
		}
		d.sleep(d.calDelay)
	}
	c := CalibrationFromExtrema(min, max)
	d.offset, d.scale = c.Offset, c.Scale
	return nil
}

// Calibration returns the calibration currently applied.
func (d *Dev) Calibration() Calibration {
	return Calibration{Offset: d.offset, Scale: d.scale}
}

// SetCalibration restores a previously computed calibration. A zero scale is
// replaced by 1.
func (d *Dev) SetCalibration(c Calibration) {
	for i, s := range c.Scale {
		if s == 0 {
			c.Scale[i] = 1
		}
	}
	d.offset, d.scale = c.Offset, c.Scale
}
