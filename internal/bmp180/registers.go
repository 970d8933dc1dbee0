// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bmp180

import (
	"fmt"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
)

// DefaultAddress is the fixed I²C address of the BMP180.
const DefaultAddress bus.Address = 0x77

// ChipID is the value of the identification register on a genuine BMP180.
const ChipID = 0x55

// Register addresses.
const (
	RegChipID  = 0xD0
	RegAC5     = 0xB2 // MSB, LSB at 0xB3
	RegAC6     = 0xB4
	RegMC      = 0xBC
	RegMD      = 0xBE
	RegCtrl    = 0xF4
	RegOutMSB  = 0xF6
	RegOutLSB  = 0xF7
	CmdReadTmp = 0x2E // written to RegCtrl to start a temperature conversion
)

// RegisterInfo describes one register the driver touches.
type RegisterInfo struct {
	Address     byte
	Name        string
	Description string
	Access      string // "R", "W", "RW"
}

var registerMap = []RegisterInfo{
	{Address: RegAC5, Name: "AC5", Description: "Calibration AC5 (MSB)", Access: "R"},
	{Address: RegAC6, Name: "AC6", Description: "Calibration AC6 (MSB)", Access: "R"},
	{Address: RegMC, Name: "MC", Description: "Calibration MC (MSB)", Access: "R"},
	{Address: RegMD, Name: "MD", Description: "Calibration MD (MSB)", Access: "R"},
	{Address: RegChipID, Name: "ID", Description: "Chip identification, 0x55", Access: "R"},
	{Address: RegCtrl, Name: "CTRL_MEAS", Description: "Measurement control", Access: "RW"},
	{Address: RegOutMSB, Name: "OUT_MSB", Description: "Conversion result MSB", Access: "R"},
	{Address: RegOutLSB, Name: "OUT_LSB", Description: "Conversion result LSB", Access: "R"},
}

// Registers returns the registers the driver uses, in calibration-first order.
func Registers() []RegisterInfo {
	out := make([]RegisterInfo, len(registerMap))
	copy(out, registerMap)
	return out
}

// RegisterName returns a printable name such as "AC5 (0xB2)".
func RegisterName(reg byte) string {
	for _, r := range registerMap {
		if r.Address == reg {
			return fmt.Sprintf("%s (0x%02X)", r.Name, reg)
		}
	}
	return fmt.Sprintf("0x%02X", reg)
}
