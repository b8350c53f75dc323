// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time         string  `json:"time"`          // e.g. "12:34:56"
	Date         string  `json:"date"`          // e.g. "23/03/94"
	Latitude     float64 `json:"lat"`           // decimal degrees
	Longitude    float64 `json:"lon"`           // decimal degrees
	SpeedKnots   float64 `json:"speed_knots"`   // speed over ground
	CourseDeg    float64 `json:"course_deg"`    // course over ground, true
	Validity     string  `json:"validity"`      // "A" (valid) / "V" (void)
	VariationDeg float64 `json:"variation_deg"` // magnetic variation, east positive
}

// Valid reports whether the receiver flagged the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == nmea.ValidRMC
}

// HasVariation reports whether the fix carries a magnetic variation. Receivers
// leave the field empty when they have no model, which parses as zero.
func (f Fix) HasVariation() bool {
	return f.Valid() && f.VariationDeg != 0
}

// FromRMC fills a Fix from an RMC sentence.
func FromRMC(m nmea.RMC) Fix {
	return Fix{
		Time:         m.Time.String(),
		Date:         m.Date.String(),
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		SpeedKnots:   m.Speed,
		CourseDeg:    m.Course,
		Validity:     string(m.Validity),
		VariationDeg: m.Variation,
	}
}

// ParseSentence parses one NMEA line. ok is false for lines that are not NMEA
// sentences and for sentence types other than RMC.
func ParseSentence(line string) (fix Fix, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false, nil
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false, fmt.Errorf("nmea parse: %w", err)
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false, nil
	}
	return FromRMC(sentence.(nmea.RMC)), true, nil
}
