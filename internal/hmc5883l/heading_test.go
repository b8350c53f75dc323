// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"math"
	"testing"

	"periph.io/x/conn/v3/physic"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestApplyScenario(t *testing.T) {
	d, err := newTestDev(&fakeBus{}, Gain1090)
	if err != nil {
		t.Fatal(err)
	}
	m := d.Apply(Raw{X: 100})
	if !near(m.X, 92) || m.Y != 0 || m.Z != 0 {
		t.Fatalf("Apply() = %+v, want {92 0 0}", m)
	}
	if h := d.Heading(m); h != 0 {
		t.Errorf("Heading() = %v, want 0", h)
	}
}

func TestApplyOrder(t *testing.T) {
	d, err := newTestDev(&fakeBus{}, Gain440)
	if err != nil {
		t.Fatal(err)
	}
	d.SetCalibration(Calibration{Offset: [3]int16{10, -20, 0}, Scale: [3]float64{0.5, 0.25, 2}})
	m := d.Apply(Raw{X: 110, Y: 20, Z: -3})
	want := Measurement{X: 100 * 0.5 * 2.27, Y: 40 * 0.25 * 2.27, Z: -3 * 2 * 2.27}
	if !near(m.X, want.X) || !near(m.Y, want.Y) || !near(m.Z, want.Z) {
		t.Errorf("Apply() = %+v, want %+v", m, want)
	}
}

func TestApplyExtremeOffset(t *testing.T) {
	// raw - offset must not wrap in int16.
	d, err := newTestDev(&fakeBus{}, Gain1370)
	if err != nil {
		t.Fatal(err)
	}
	d.SetCalibration(Calibration{Offset: [3]int16{math.MinInt16, 0, 0}, Scale: [3]float64{1, 1, 1}})
	m := d.Apply(Raw{X: math.MaxInt16})
	if !near(m.X, 65535*0.73) {
		t.Errorf("Apply().X = %v, want %v", m.X, 65535*0.73)
	}
}

func TestReadCalibratedDeterministic(t *testing.T) {
	r := Raw{X: 321, Y: -45, Z: 1000}
	bus := &fakeBus{samples: []Raw{r, r}}
	d, err := newTestDev(bus, Gain820)
	if err != nil {
		t.Fatal(err)
	}
	d.SetCalibration(Calibration{Offset: [3]int16{21, -5, 0}, Scale: [3]float64{0.01, 0.02, 0.001}})
	before := d.Calibration()
	m1, err := d.ReadCalibrated()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := d.ReadCalibrated()
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 || m1 != d.Apply(r) {
		t.Errorf("readings differ: %+v %+v %+v", m1, m2, d.Apply(r))
	}
	if d.Calibration() != before {
		t.Errorf("reading mutated calibration")
	}
}

func TestHeadingScenarios(t *testing.T) {
	d, err := newTestDev(&fakeBus{}, Gain1090)
	if err != nil {
		t.Fatal(err)
	}
	data := []struct {
		name string
		raw  Raw
		decl float64
		want float64
	}{
		{"north", Raw{X: 100}, 0, 0},
		{"north west", Raw{X: -50, Y: 50}, 0, 135},
		{"east", Raw{Y: 200}, 0, 90},
		{"south", Raw{X: -200}, 0, 180},
		{"west", Raw{Y: -200}, 0, 270},
		{"negative declination wraps", Raw{X: 100}, -10, 350},
		{"positive declination", Raw{Y: -200}, 45, 315},
		{"declination past full turn", Raw{Y: -200}, 120, 30},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			d.SetDeclination(line.decl)
			got := d.Heading(d.Apply(line.raw))
			if !near(got, line.want) {
				t.Errorf("Heading() = %v, want %v", got, line.want)
			}
		})
	}
}

func TestHeadingRange(t *testing.T) {
	for decl := -180.0; decl <= 180; decl += 7.5 {
		for a := 0.0; a < 360; a += 2.5 {
			rad := a * math.Pi / 180
			m := Measurement{X: 100 * math.Cos(rad), Y: 100 * math.Sin(rad)}
			h := HeadingDegrees(m, decl*math.Pi/180)
			if h < 0 || h >= 360 {
				t.Fatalf("heading(%v°, decl %v°) = %v out of [0, 360)", a, decl, h)
			}
		}
	}
}

func TestHeadingFullTurnBoundary(t *testing.T) {
	// atan2 = π, declination = π: exactly one full turn maps to 0.
	h := HeadingDegrees(Measurement{X: -1, Y: 0}, math.Pi)
	if h != 0 {
		t.Errorf("heading = %v, want 0", h)
	}
	// A tiny negative angle lifted by one turn rounds to 2π and must not
	// come out as 360.
	h = HeadingDegrees(Measurement{X: 1, Y: -1e-300}, 0)
	if h < 0 || h >= 360 {
		t.Errorf("heading = %v, want [0, 360)", h)
	}
}

func TestHeadingSingleStepNormalization(t *testing.T) {
	// Corrections larger than one turn are not reduced modulo 360.
	data := []struct {
		decl float64
		want float64
	}{
		{-450, -90},
		{810, 450},
	}
	for _, line := range data {
		h := HeadingDegrees(Measurement{X: 1}, line.decl*math.Pi/180)
		if !near(h, line.want) {
			t.Errorf("decl %v: heading = %v, want %v", line.decl, h, line.want)
		}
	}
}

func TestDeclinationRoundTrip(t *testing.T) {
	d, err := newTestDev(&fakeBus{}, Gain1090)
	if err != nil {
		t.Fatal(err)
	}
	for _, deg := range []float64{0, 90, -45, 359, 3.25, -720} {
		d.SetDeclination(deg)
		if got := d.Declination(); !near(got, deg) {
			t.Errorf("Declination() = %v, want %v", got, deg)
		}
		if got := d.DeclinationRadians() * 180 / math.Pi; !near(got, deg) {
			t.Errorf("radians round trip = %v, want %v", got, deg)
		}
	}
}

func TestMeasurementField(t *testing.T) {
	m := Measurement{X: 250, Y: -0.5, Z: 0}
	f := m.Field()
	if f[0] != 25*physic.MicroTesla {
		t.Errorf("X = %s, want 25µT", f[0])
	}
	if f[1] != -50*physic.NanoTesla {
		t.Errorf("Y = %s, want -50nT", f[1])
	}
	if !near(Measurement{X: 3, Y: 4}.Norm(), 5) {
		t.Errorf("Norm() = %v", Measurement{X: 3, Y: 4}.Norm())
	}
}
