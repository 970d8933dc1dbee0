// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// MaxAddress is the highest 7-bit I²C address.
const MaxAddress Address = 0x7F

// ErrInvalidAddress is returned when an address does not fit in 7 bits.
var ErrInvalidAddress = errors.New("bus: address out of 7-bit range")

// Address is a 7-bit I²C device address.
type Address uint8

// Valid reports whether a is inside [0, 127].
func (a Address) Valid() bool {
	return a <= MaxAddress
}

func (a Address) String() string {
	return fmt.Sprintf("0x%02X", uint8(a))
}

// Transport is a synchronous, blocking I²C transaction primitive.
// Implementations never retry; a failed transaction is reported to the caller.
type Transport interface {
	// Write sends w; it succeeds only if the device acknowledges its address
	// and every byte.
	Write(addr Address, w []byte) error
	// Read fills r completely or fails.
	Read(addr Address, r []byte) error
	// WriteRead writes a register pointer then reads the register contents
	// in one combined transaction.
	WriteRead(addr Address, w, r []byte) error
}

// Error describes a failed bus transaction.
type Error struct {
	Op   string // "write", "read" or "write-read"
	Addr Address
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bus: %s at %s: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Periph adapts a periph.io I²C bus to Transport.
type Periph struct {
	bus i2c.Bus
}

// NewPeriph wraps an already opened periph bus.
func NewPeriph(b i2c.Bus) *Periph {
	return &Periph{bus: b}
}

// Open initializes the periph host drivers and opens the named I²C bus
// ("" selects the first available bus). The returned BusCloser is the
// underlying bus, so other periph devices can share it.
func Open(name string) (*Periph, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return NewPeriph(b), b, nil
}

func (p *Periph) Write(addr Address, w []byte) error {
	return p.tx("write", addr, w, nil)
}

func (p *Periph) Read(addr Address, r []byte) error {
	return p.tx("read", addr, nil, r)
}

func (p *Periph) WriteRead(addr Address, w, r []byte) error {
	return p.tx("write-read", addr, w, r)
}

func (p *Periph) String() string {
	return p.bus.String()
}

func (p *Periph) tx(op string, addr Address, w, r []byte) error {
	if !addr.Valid() {
		return &Error{Op: op, Addr: addr, Err: ErrInvalidAddress}
	}
	if err := p.bus.Tx(uint16(addr), w, r); err != nil {
		return &Error{Op: op, Addr: addr, Err: err}
	}
	return nil
}
