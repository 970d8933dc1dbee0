// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock provides the wait primitive the measurement cycle blocks on
// while the sensor converts.
package clock

import (
	"context"
	"time"
)

// MinConversionTime is the BMP180 datasheet maximum temperature conversion
// time. Any wait shorter than this may read a stale result.
const MinConversionTime = 4500 * time.Microsecond

// Waiter blocks until a period has elapsed or ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Ticker is a periodic Waiter: each Wait returns on the next tick, so a loop
// that spends part of the period elsewhere still runs at a fixed rate.
//
// Wait never returns sooner than MinConversionTime after it was called. A tick
// that fell due while the caller was busy is dropped instead of being taken
// as the end of a conversion that only just started.
type Ticker struct {
	t *time.Ticker
}

// NewTicker starts a periodic waiter. Stop it when done.
func NewTicker(period time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(period)}
}

func (t *Ticker) Wait(ctx context.Context) error {
	start := time.Now()
	select {
	case <-t.t.C:
	default:
	}

	select {
	case <-t.t.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	if rest := MinConversionTime - time.Since(start); rest > 0 {
		return Sleep(ctx, rest)
	}
	return nil
}

func (t *Ticker) Stop() {
	t.t.Stop()
}

// OneShot waits the full period from the moment Wait is called.
type OneShot struct {
	d time.Duration
}

func NewOneShot(d time.Duration) *OneShot {
	return &OneShot{d: d}
}

func (o *OneShot) Wait(ctx context.Context) error {
	return Sleep(ctx, o.d)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
