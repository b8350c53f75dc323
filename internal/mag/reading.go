// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mag holds the magnetometer reading published over MQTT and the
// sources that produce it.
package mag

import (
	"time"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

// Reading is one calibrated magnetometer sample with its heading.
// Field values are in milligauss, angles in degrees.
type Reading struct {
	Source      string    `json:"source"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Z           float64   `json:"z"`
	Norm        float64   `json:"norm"`
	Heading     float64   `json:"heading"`
	Declination float64   `json:"declination"`
	Time        time.Time `json:"time"`
}

// Source is anything that can provide readings over time.
type Source interface {
	Next() (Reading, error)
}

// FromMeasurement builds a Reading from a calibrated measurement. declDeg is
// the declination already folded into heading.
func FromMeasurement(source string, m hmc5883l.Measurement, heading, declDeg float64, t time.Time) Reading {
	return Reading{
		Source:      source,
		X:           m.X,
		Y:           m.Y,
		Z:           m.Z,
		Norm:        m.Norm(),
		Heading:     heading,
		Declination: declDeg,
		Time:        t,
	}
}

// Cardinal returns the 16-point compass name for a heading in degrees.
func Cardinal(heading float64) string {
	points := [...]string{
		"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
	}
	i := int((heading+11.25)/22.5) % len(points)
	if i < 0 {
		i += len(points)
	}
	return points[i]
}

// Heading is the compact payload published on the heading topic.
type Heading struct {
	Heading     float64   `json:"heading"`
	Cardinal    string    `json:"cardinal"`
	Declination float64   `json:"declination"`
	Time        time.Time `json:"time"`
}

// Summary returns the heading payload for r.
func (r Reading) Summary() Heading {
	return Heading{
		Heading:     r.Heading,
		Cardinal:    Cardinal(r.Heading),
		Declination: r.Declination,
		Time:        r.Time,
	}
}
