// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bmp180

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
)

// ErrInvalidCalibration means a calibration word read as 0x0000 or 0xFFFF,
// which the datasheet rules out for a working device.
var ErrInvalidCalibration = errors.New("bmp180: invalid calibration word")

// Calibration holds the factory constants used by the temperature formula.
// It is built once by ReadCalibration and never modified afterwards.
type Calibration struct {
	AC5 int16
	AC6 int16
	MC  int16
	MD  int16
}

// IdentityMismatchError reports a chip id other than ChipID.
type IdentityMismatchError struct {
	Got byte
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("bmp180: chip id 0x%02X, want 0x%02X", e.Got, ChipID)
}

// ReadIdentity reads the one-byte chip id register.
func ReadIdentity(t bus.Transport, addr bus.Address) (byte, error) {
	var buf [1]byte
	if err := t.WriteRead(addr, []byte{RegChipID}, buf[:]); err != nil {
		return 0, fmt.Errorf("read %s: %w", RegisterName(RegChipID), err)
	}
	return buf[0], nil
}

// CheckIdentity returns an *IdentityMismatchError unless id is ChipID.
func CheckIdentity(id byte) error {
	if id != ChipID {
		return &IdentityMismatchError{Got: id}
	}
	return nil
}

// calibrationBuilder collects the four words; build refuses to produce a
// record until every one of them has been set.
type calibrationBuilder struct {
	words [4]int16
	have  [4]bool
}

// calibrationOrder is the read order, which is also the reporting order.
var calibrationOrder = [4]byte{RegAC5, RegAC6, RegMC, RegMD}

func (b *calibrationBuilder) set(i int, w int16) {
	b.words[i] = w
	b.have[i] = true
}

func (b *calibrationBuilder) build() (*Calibration, error) {
	for i, ok := range b.have {
		if !ok {
			return nil, fmt.Errorf("bmp180: %s not read", RegisterName(calibrationOrder[i]))
		}
		if w := uint16(b.words[i]); w == 0x0000 || w == 0xFFFF {
			return nil, fmt.Errorf("%s = 0x%04X: %w", RegisterName(calibrationOrder[i]), w, ErrInvalidCalibration)
		}
	}
	return &Calibration{
		AC5: b.words[0],
		AC6: b.words[1],
		MC:  b.words[2],
		MD:  b.words[3],
	}, nil
}

// ReadCalibration reads AC5, AC6, MC and MD, in that order, each as a
// big-endian signed word. The first failed read aborts; no partial record is
// ever returned.
func ReadCalibration(t bus.Transport, addr bus.Address) (*Calibration, error) {
	var b calibrationBuilder
	var buf [2]byte
	for i, reg := range calibrationOrder {
		if err := t.WriteRead(addr, []byte{reg}, buf[:]); err != nil {
			return nil, fmt.Errorf("read %s: %w", RegisterName(reg), err)
		}
		b.set(i, int16(uint16(buf[0])<<8|uint16(buf[1])))
	}
	return b.build()
}
