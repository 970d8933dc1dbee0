// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/bmp180_thermometer/internal/bmp180"
	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
	"github.com/relabs-tech/bmp180_thermometer/internal/env"
	"github.com/relabs-tech/bmp180_thermometer/internal/report"
)

// Thermometer owns the bus for its whole run: it scans, checks the chip id,
// reads calibration once, then measures forever. It is the only place that
// decides what a failure means.
type Thermometer struct {
	Transport bus.Transport
	Addr      bus.Address
	Waiter    clock.Waiter
	Report    *report.Reporter
	Policy    config.PolicyConfig

	// RequireChipID turns an identity mismatch into a startup error.
	RequireChipID bool

	// Sleep and Now default to clock.Sleep and time.Now.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Run executes the whole startup sequence and then the acquisition loop.
// It returns nil when ctx is cancelled and an error when calibration fails
// or too many consecutive cycles fail.
func (th *Thermometer) Run(ctx context.Context) error {
	th.Scan()

	if err := th.Identify(); err != nil {
		return err
	}

	cal, err := th.Calibrate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return th.Loop(ctx, cal)
}

// Scan reports every device on the bus as it is found.
func (th *Thermometer) Scan() []bus.Address {
	th.Report.Linef("Starting I2C Scan")
	var found []bus.Address
	for a := range bus.Scan(th.Transport) {
		th.Report.Linef("Found device at address 0x%02X", uint8(a))
		found = append(found, a)
	}
	log.Printf("thermometer: scan found %d device(s)", len(found))
	return found
}

// Identify reads the chip id. A mismatch or failed read is reported but only
// returned as an error when RequireChipID is set.
func (th *Thermometer) Identify() error {
	id, err := bmp180.ReadIdentity(th.Transport, th.Addr)
	if err == nil {
		err = bmp180.CheckIdentity(id)
	}
	if err == nil {
		th.Report.Linef("Device ID is %d", id)
		return nil
	}

	th.Report.Linef("Device ID Cannot be Detected")
	log.Printf("thermometer: identity check at %s: %v", th.Addr, err)
	if th.RequireChipID {
		return fmt.Errorf("thermometer: identity check: %w", err)
	}
	return nil
}

// Calibrate reads the calibration record, retrying bus failures up to
// Policy.CalibrationAttempts times. Invalid calibration words are not retried.
func (th *Thermometer) Calibrate(ctx context.Context) (*bmp180.Calibration, error) {
	attempts := max(th.Policy.CalibrationAttempts, 1)
	var err error
	for n := 1; n <= attempts; n++ {
		var cal *bmp180.Calibration
		cal, err = bmp180.ReadCalibration(th.Transport, th.Addr)
		if err == nil {
			th.Report.Linef("AC5 = %d", cal.AC5)
			th.Report.Linef("AC6 = %d", cal.AC6)
			th.Report.Linef("MC = %d", cal.MC)
			th.Report.Linef("MD = %d", cal.MD)
			return cal, nil
		}
		log.Printf("thermometer: calibration attempt %d/%d: %v", n, attempts, err)
		if errors.Is(err, bmp180.ErrInvalidCalibration) {
			break
		}
		if n < attempts {
			if serr := th.sleep(ctx, th.backoff(n)); serr != nil {
				return nil, serr
			}
		}
	}
	return nil, fmt.Errorf("thermometer: calibration: %w", err)
}

// Loop measures until ctx is cancelled or the consecutive failure limit is
// reached.
func (th *Thermometer) Loop(ctx context.Context, cal *bmp180.Calibration) error {
	cycle := bmp180.NewCycle(th.Transport, th.Addr, th.Waiter)
	failures := 0
	for {
		_, err := th.Step(ctx, cycle, cal)
		if ctx.Err() != nil {
			log.Println("thermometer: stopping")
			return nil
		}
		if err == nil {
			failures = 0
			continue
		}

		failures++
		th.Report.Linef("Measurement failed: %v", err)
		log.Printf("thermometer: cycle failed (%d in a row): %v", failures, err)
		if limit := th.Policy.MaxConsecutiveFailures; limit > 0 && failures >= limit {
			return fmt.Errorf("thermometer: %d consecutive failed cycles: %w", failures, err)
		}
		if err := th.sleep(ctx, th.backoff(failures)); err != nil {
			return nil
		}
	}
}

// Step runs one measurement cycle, compensates it and reports the result.
func (th *Thermometer) Step(ctx context.Context, cycle *bmp180.Cycle, cal *bmp180.Calibration) (env.Sample, error) {
	raw, err := cycle.Measure(ctx)
	if err != nil {
		return env.Sample{}, err
	}
	temp, err := bmp180.Compensate(raw, cal)
	if err != nil {
		return env.Sample{}, fmt.Errorf("compensate raw %d: %w", raw, err)
	}

	th.Report.Linef("Temperature = %d", temp.Celsius)
	s := env.NewSample("bmp180", uint8(th.Addr), raw, temp.Celsius, temp.Deci, th.now())
	th.Report.Publish(s)
	return s, nil
}

// backoff grows linearly with the number of failures, capped at MaxBackoff.
func (th *Thermometer) backoff(n int) time.Duration {
	d := th.Policy.RetryBackoff * time.Duration(n)
	if th.Policy.MaxBackoff > 0 && d > th.Policy.MaxBackoff {
		d = th.Policy.MaxBackoff
	}
	return d
}

func (th *Thermometer) sleep(ctx context.Context, d time.Duration) error {
	if th.Sleep != nil {
		return th.Sleep(ctx, d)
	}
	return clock.Sleep(ctx, d)
}

func (th *Thermometer) now() time.Time {
	if th.Now != nil {
		return th.Now()
	}
	return time.Now()
}
