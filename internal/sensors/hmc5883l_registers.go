// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes one device register for the debug tool.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// HMC5883LRegisterMap returns metadata for all HMC5883L registers.
func HMC5883LRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Configuration
		{Address: "0x00", Name: "CRA", Description: "Configuration Register A", Access: "RW", Default: "0x10",
			BitFields: []BitField{
				{Bits: "7", Name: "CRA7", Description: "Reserved", Values: "Must be 0"},
				{Bits: "6:5", Name: "MA", Description: "Samples averaged per output", Values: "0=1, 1=2, 2=4, 3=8"},
				{Bits: "4:2", Name: "DO", Description: "Output data rate (continuous mode)", Values: "0=0.75Hz, 1=1.5Hz, 2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz"},
				{Bits: "1:0", Name: "MS", Description: "Measurement mode", Values: "0=Normal, 1=Positive bias, 2=Negative bias"},
			}},
		{Address: "0x01", Name: "CRB", Description: "Configuration Register B (gain, fixed after initialization)", Access: "RW", Default: "0x20",
			BitFields: []BitField{
				{Bits: "7:5", Name: "GN", Description: "Gain", Values: "0=1370, 1=1090, 2=820, 3=660, 4=440, 5=390, 6=330, 7=230 LSb/Gauss"},
				{Bits: "4:0", Name: "RESERVED", Description: "Reserved", Values: "Must be 0"},
			}},
		{Address: "0x02", Name: "MODE", Description: "Mode Register", Access: "RW", Default: "0x01",
			BitFields: []BitField{
				{Bits: "7", Name: "HS", Description: "High speed I2C (3400kHz)", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2=Idle, 3=Idle"},
			}},

		// Data output, big endian, X then Z then Y
		{Address: "0x03", Name: "DXRA", Description: "Data Output X MSB", Access: "R"},
		{Address: "0x04", Name: "DXRB", Description: "Data Output X LSB", Access: "R"},
		{Address: "0x05", Name: "DZRA", Description: "Data Output Z MSB", Access: "R"},
		{Address: "0x06", Name: "DZRB", Description: "Data Output Z LSB", Access: "R"},
		{Address: "0x07", Name: "DYRA", Description: "Data Output Y MSB", Access: "R"},
		{Address: "0x08", Name: "DYRB", Description: "Data Output Y LSB", Access: "R"},

		{Address: "0x09", Name: "SR", Description: "Status Register", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "1", Name: "LOCK", Description: "Data output registers locked", Values: "0=Unlocked, 1=Locked until all six read"},
				{Bits: "0", Name: "RDY", Description: "Ready", Values: "0=Measuring, 1=New data available"},
			}},

		// Identification
		{Address: "0x0A", Name: "IRA", Description: "Identification Register A", Access: "R", Default: "0x48",
			BitFields: []BitField{{Bits: "7:0", Name: "IRA", Description: "ASCII 'H'", Values: "0x48"}}},
		{Address: "0x0B", Name: "IRB", Description: "Identification Register B", Access: "R", Default: "0x34",
			BitFields: []BitField{{Bits: "7:0", Name: "IRB", Description: "ASCII '4'", Values: "0x34"}}},
		{Address: "0x0C", Name: "IRC", Description: "Identification Register C", Access: "R", Default: "0x33",
			BitFields: []BitField{{Bits: "7:0", Name: "IRC", Description: "ASCII '3'", Values: "0x33"}}},
	}
}
