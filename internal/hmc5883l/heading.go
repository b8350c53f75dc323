// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// Measurement is a calibrated sample in milligauss.
type Measurement struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm is the field magnitude in milligauss.
func (m Measurement) Norm() float64 {
	return math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
}

// Field converts m to flux density (1mG = 100nT).
func (m Measurement) Field() [3]physic.MagneticFluxDensity {
	conv := func(mg float64) physic.MagneticFluxDensity {
		return physic.MagneticFluxDensity(math.Round(mg * 100))
	}
	return [3]physic.MagneticFluxDensity{conv(m.X) * physic.NanoTesla, conv(m.Y) * physic.NanoTesla, conv(m.Z) * physic.NanoTesla}
}

// Apply converts a raw sample using the stored calibration and gain. It does
// not touch the bus or the device state.
//
// Per axis: (raw - offset) * scale * gain factor. The scale was derived in raw
// count space, so it must be applied before the gain factor.
func (d *Dev) Apply(r Raw) Measurement {
	f := d.gain.Factor()
	a := r.axes()
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = float64(int32(a[i])-int32(d.offset[i])) * d.scale[i] * f
	}
	return Measurement{X: out[0], Y: out[1], Z: out[2]}
}

// ReadCalibrated reads one raw sample and applies the calibration to it.
func (d *Dev) ReadCalibrated() (Measurement, error) {
	r, err := d.ReadRaw()
	if err != nil {
		return Measurement{}, err
	}
	return d.Apply(r), nil
}

// SetDeclination sets the angle, in degrees, added to the magnetic bearing to get
// true north. East is positive. The value is stored as given, without wrapping.
func (d *Dev) SetDeclination(deg float64) {
	d.declination = deg * (math.Pi / 180)
}

// Declination returns the stored declination in degrees.
func (d *Dev) Declination() float64 {
	return d.declination * (180 / math.Pi)
}

// DeclinationRadians returns the stored declination.
func (d *Dev) DeclinationRadians() float64 {
	return d.declination
}

// Heading returns the bearing of m in degrees, corrected by the stored
// declination.
func (d *Dev) Heading(m Measurement) float64 {
	return HeadingDegrees(m, d.declination)
}

// HeadingDegrees computes atan2(Y, X) plus decl (radians) and normalizes it with
// a single full-turn correction in each direction.
//
// The result is in [0, 360) as long as the corrected angle is in [-2π, 4π), which
// holds for any |decl| <= π. Larger declinations can leave it out of range: the
// correction is one step, not a modulo.
func HeadingDegrees(m Measurement, decl float64) float64 {
	h := math.Atan2(m.Y, m.X) + decl
	if h < 0 {
		h += 2 * math.Pi
	}
	if h >= 2*math.Pi {
		h -= 2 * math.Pi
	}
	return h * (180 / math.Pi)
}
