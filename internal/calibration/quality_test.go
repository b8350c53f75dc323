// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"math"
	"testing"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

func TestCoverage(t *testing.T) {
	data := []struct {
		name string
		cal  hmc5883l.Calibration
		want float64
	}{
		{"balanced", hmc5883l.Calibration{Scale: [3]float64{0.005, 0.005, 0.005}}, 1},
		{"flat axis", hmc5883l.Calibration{Scale: [3]float64{0.005, 0.005, 1}}, 0},
		{"zero scale", hmc5883l.Calibration{Scale: [3]float64{0.005, 0, 0.005}}, 0},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			if got := Coverage(line.cal); math.Abs(got-line.want) > 1e-9 {
				t.Errorf("Coverage() = %v, want %v", got, line.want)
			}
		})
	}

	// Half ranges 200, 200, 100: mean 166.67, stddev 47.14, cv 0.2828.
	got := Coverage(hmc5883l.Calibration{Scale: [3]float64{0.005, 0.005, 0.01}})
	if math.Abs(got-(1-0.28284271/0.7)) > 1e-6 {
		t.Errorf("Coverage() = %v", got)
	}
}
