// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"fmt"
	"strconv"
)

// I2C register map for HMC5883L.
const (
	RegConfigA = 0x00
	RegConfigB = 0x01
	RegMode    = 0x02
	RegDataXM  = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB
	RegDataXL  = 0x04
	RegDataZM  = 0x05
	RegDataZL  = 0x06
	RegDataYM  = 0x07
	RegDataYL  = 0x08
	RegStatus  = 0x09
	RegIDA     = 0x0A
	RegIDB     = 0x0B
	RegIDC     = 0x0C
)

// Mode register values.
const (
	ModeContinuous = 0x00
	ModeSingle     = 0x01
	ModeIdle       = 0x03
)

// Status register bits.
const (
	StatusReady = 0x01
	StatusLock  = 0x02
)

// DefaultAddr is the fixed 7-bit bus address of the sensor.
const DefaultAddr = 0x1E

// Gain selects the sensitivity of the sensor. Variants are named after their
// LSB/Gauss resolution.
type Gain uint8

const (
	Gain1370 Gain = iota // ±0.88 Ga, 0.73 mG/LSB
	Gain1090             // ±1.3 Ga, 0.92 mG/LSB, power-on default
	Gain820              // ±1.9 Ga
	Gain660              // ±2.5 Ga
	Gain440              // ±4.0 Ga
	Gain390              // ±4.7 Ga
	Gain330              // ±5.6 Ga
	Gain230              // ±8.1 Ga
	gainCount
)

// gainFactors is in mG/LSB. The array length is tied to gainCount so adding a
// variant without a factor does not compile.
var gainFactors = [gainCount]float64{
	Gain1370: 0.73,
	Gain1090: 0.92,
	Gain820:  1.22,
	Gain660:  1.52,
	Gain440:  2.27,
	Gain390:  2.56,
	Gain330:  3.03,
	Gain230:  4.35,
}

var gainLSBPerGauss = [gainCount]int{1370, 1090, 820, 660, 440, 390, 330, 230}

// Valid reports whether g is one of the 8 supported settings.
func (g Gain) Valid() bool {
	return g < gainCount
}

// Factor returns the milligauss per LSB multiplier for g.
func (g Gain) Factor() float64 {
	if !g.Valid() {
		return gainFactors[Gain1090]
	}
	return gainFactors[g]
}

// LSBPerGauss returns the resolution named by g.
func (g Gain) LSBPerGauss() int {
	if !g.Valid() {
		return gainLSBPerGauss[Gain1090]
	}
	return gainLSBPerGauss[g]
}

// register returns the CRB value selecting g (bits 7..5).
func (g Gain) register() byte {
	return byte(g) << 5
}

func (g Gain) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Gain(%d)", uint8(g))
	}
	return fmt.Sprintf("Gain%d", gainLSBPerGauss[g])
}

// ParseGain accepts either the LSB/Gauss value ("1090") or the register code
// 0..7 ("1").
func ParseGain(s string) (Gain, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid gain %q: %w", s, err)
	}
	if v >= 0 && v < int(gainCount) {
		return Gain(v), nil
	}
	for i, lsb := range gainLSBPerGauss {
		if lsb == v {
			return Gain(i), nil
		}
	}
	return 0, fmt.Errorf("invalid gain %q: want 0-7 or one of %v", s, gainLSBPerGauss)
}

// configA builds the CRA value: averaging in bits 6..5, output rate in bits
// 4..2, normal measurement (00) in bits 1..0.
func configA(avg int, odrHz float64) byte {
	cra := byte(0)
	switch avg {
	case 8:
		cra |= 0b11 << 5
	case 4:
		cra |= 0b10 << 5
	case 2:
		cra |= 0b01 << 5
	default:
		cra |= 0b00 << 5
	}
	switch odrHz {
	case 0.75:
		cra |= 0b000 << 2
	case 1.5:
		cra |= 0b001 << 2
	case 3:
		cra |= 0b010 << 2
	case 7.5:
		cra |= 0b011 << 2
	case 30:
		cra |= 0b101 << 2
	case 75:
		cra |= 0b110 << 2
	default: // 15Hz
		cra |= 0b100 << 2
	}
	return cra
}
