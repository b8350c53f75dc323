// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mag

import (
	"math"
	"time"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

// Horizontal field strength of the mock, in milligauss.
const mockFieldMG = 250

type mockSource struct {
	start   time.Time
	now     func() time.Time
	declDeg float64
	rate    float64 // degrees per second
}

// NewMockSource creates a mock source whose horizontal field turns slowly
// through a full circle. Headings go through the same math as the real
// sensor, with declDeg applied.
func NewMockSource(declDeg float64) Source {
	return &mockSource{start: time.Now(), now: time.Now, declDeg: declDeg, rate: 30}
}

func (m *mockSource) Next() (Reading, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()
	rad := math.Mod(elapsed*m.rate, 360) * math.Pi / 180

	meas := hmc5883l.Measurement{
		X: mockFieldMG * math.Cos(rad),
		Y: mockFieldMG * math.Sin(rad),
		Z: -400 + 20*math.Sin(elapsed*0.3),
	}
	h := hmc5883l.HeadingDegrees(meas, m.declDeg*math.Pi/180)
	return FromMeasurement("mock", meas, h, m.declDeg, t), nil
}
