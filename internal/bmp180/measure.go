// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bmp180

import (
	"context"
	"fmt"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
)

// State is a step of the temperature measurement protocol.
type State int

const (
	Idle State = iota
	Triggered
	Converting
	ReadMSB
	ReadLSB
	Complete
)

var stateNames = [...]string{"idle", "triggered", "converting", "read-msb", "read-lsb", "complete"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CycleError is a measurement cycle that failed while in State.
type CycleError struct {
	State State
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("bmp180: measurement failed in %s: %v", e.State, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Cycle runs the trigger, wait, read sequence against one sensor. It owns the
// bus for the duration of Measure and is not safe for concurrent use.
type Cycle struct {
	t     bus.Transport
	addr  bus.Address
	wait  clock.Waiter
	state State
}

// NewCycle returns a cycle that waits on w between trigger and read.
// w must not return before the conversion time has passed.
func NewCycle(t bus.Transport, addr bus.Address, w clock.Waiter) *Cycle {
	return &Cycle{t: t, addr: addr, wait: w}
}

// State returns the step the cycle is in. Outside Measure it is always Idle.
func (c *Cycle) State() State {
	return c.state
}

// Measure triggers a temperature conversion, waits, then reads the MSB and
// LSB output registers and returns the raw reading.
//
// A failed trigger returns before any wait or read. Errors are *CycleError.
func (c *Cycle) Measure(ctx context.Context) (int16, error) {
	defer func() { c.state = Idle }()

	var raw uint16
	var buf [1]byte
	for c.state = Idle; c.state != Complete; {
		var err error
		switch c.state {
		case Idle:
			err = c.t.Write(c.addr, []byte{RegCtrl, CmdReadTmp})
			if err == nil {
				c.state = Triggered
			}
		case Triggered:
			c.state = Converting
		case Converting:
			err = c.wait.Wait(ctx)
			if err == nil {
				c.state = ReadMSB
			}
		case ReadMSB:
			err = c.t.WriteRead(c.addr, []byte{RegOutMSB}, buf[:])
			if err == nil {
				raw = uint16(buf[0]) << 8
				c.state = ReadLSB
			}
		case ReadLSB:
			err = c.t.WriteRead(c.addr, []byte{RegOutLSB}, buf[:])
			if err == nil {
				raw |= uint16(buf[0])
				c.state = Complete
			}
		}
		if err != nil {
			return 0, &CycleError{State: c.state, Err: err}
		}
	}
	return int16(raw), nil
}
