// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"math"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

// Coverage rates how evenly a calibration pass excited the three axes, from 0
// (one axis barely moved) to 1 (equal swing on every axis). The swing of an
// axis is the half range recovered from its scale.
func Coverage(c hmc5883l.Calibration) float64 {
	var half [3]float64
	for i, s := range c.Scale {
		if s <= 0 {
			return 0
		}
		half[i] = 1 / s
	}
	m := (half[0] + half[1] + half[2]) / 3
	if m <= 0 {
		return 0
	}
	var v float64
	for _, h := range half {
		v += (h - m) * (h - m)
	}
	cv := math.Sqrt(v/3) / m
	return clamp01(1 - cv/0.7)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
