// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bmp180

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
)

var errSimNack = errors.New("sim: no acknowledge")

// Sim is a bus.Transport with a single simulated BMP180 at DefaultAddress.
// It carries the datasheet calibration and produces a raw temperature that
// drifts slowly around 15 °C, so the full pipeline can run without hardware.
type Sim struct {
	mu    sync.Mutex
	start time.Time
	regs  map[byte]byte
	ptr   byte
}

// NewSim creates a simulated sensor.
func NewSim() *Sim {
	return &Sim{
		start: time.Now(),
		regs: map[byte]byte{
			RegChipID:  ChipID,
			RegAC5:     0x7F,
			RegAC5 + 1: 0xF5,
			RegAC6:     0x5A,
			RegAC6 + 1: 0x71,
			RegMC:      0xDD,
			RegMC + 1:  0xF9,
			RegMD:      0x0B,
			RegMD + 1:  0x34,
		},
	}
}

func (s *Sim) String() string {
	return "sim"
}

// Write acknowledges any write to the sensor. The first byte sets the
// register pointer, a second byte is stored there, and a temperature command
// starts a conversion.
func (s *Sim) Write(addr bus.Address, w []byte) error {
	if addr != DefaultAddress {
		return &bus.Error{Op: "write", Addr: addr, Err: errSimNack}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) > 0 {
		s.ptr = w[0]
	}
	if len(w) == 2 {
		s.regs[w[0]] = w[1]
		if w[0] == RegCtrl && w[1] == CmdReadTmp {
			s.convert()
		}
	}
	return nil
}

// Read returns consecutive registers from the last register pointer.
func (s *Sim) Read(addr bus.Address, r []byte) error {
	if addr != DefaultAddress {
		return &bus.Error{Op: "read", Addr: addr, Err: errSimNack}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(s.ptr, r)
	return nil
}

// WriteRead returns consecutive registers starting at w[0]. Unset registers
// read as zero.
func (s *Sim) WriteRead(addr bus.Address, w, r []byte) error {
	if addr != DefaultAddress {
		return &bus.Error{Op: "write-read", Addr: addr, Err: errSimNack}
	}
	if len(w) != 1 {
		return &bus.Error{Op: "write-read", Addr: addr, Err: errors.New("sim: expected one register byte")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ptr = w[0]
	s.read(w[0], r)
	return nil
}

func (s *Sim) read(reg byte, r []byte) {
	for i := range r {
		r[i] = s.regs[reg+byte(i)]
	}
}

// convert latches a new raw reading. At 27898 the datasheet calibration
// gives 15.0 °C; 160 counts swings it by about 1.3 °C either way.
func (s *Sim) convert() {
	elapsed := time.Since(s.start).Seconds()
	raw := uint16(27898 + int(160*math.Sin(elapsed/30)))
	s.regs[RegOutMSB] = byte(raw >> 8)
	s.regs[RegOutLSB] = byte(raw)
}
