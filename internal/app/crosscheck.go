// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"math"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/relabs-tech/bmp180_thermometer/internal/bmp180"
	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
)

// crossCheckTolerance is how far, in °C, the periph driver may disagree with
// our integer pipeline before the run is flagged.
const crossCheckTolerance = 0.2

// RunCrossCheck measures n times with the integer pipeline and with the
// periph bmxx80 driver on the same sensor, and logs both readings side by
// side. It returns an error if any pair differs by more than 0.2 °C.
func RunCrossCheck(n int) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("crosscheck: config not initialized")
	}

	tr, b, err := bus.Open(cfg.I2C.Bus)
	if err != nil {
		return err
	}
	defer b.Close()

	addr := bus.Address(cfg.I2C.SensorAddr)
	cal, err := bmp180.ReadCalibration(tr, addr)
	if err != nil {
		return fmt.Errorf("crosscheck: %w", err)
	}
	log.Printf("crosscheck: calibration %+v", *cal)

	dev, err := bmxx80.NewI2C(b, uint16(addr), &bmxx80.Opts{Temperature: bmxx80.O1x, Pressure: bmxx80.O1x})
	if err != nil {
		return fmt.Errorf("crosscheck: bmxx80 init: %w", err)
	}
	defer dev.Halt()
	log.Printf("crosscheck: reference driver %s", dev)

	cycle := bmp180.NewCycle(tr, addr, clock.NewOneShot(cfg.Sensor.ConversionWait))
	worst := 0.0
	for i := 0; i < n; i++ {
		raw, err := cycle.Measure(context.Background())
		if err != nil {
			return fmt.Errorf("crosscheck: %w", err)
		}
		temp, err := bmp180.Compensate(raw, cal)
		if err != nil {
			return fmt.Errorf("crosscheck: %w", err)
		}

		var e physic.Env
		if err := dev.Sense(&e); err != nil {
			return fmt.Errorf("crosscheck: bmxx80 sense: %w", err)
		}

		ours := float64(temp.Deci) / 10
		ref := e.Temperature.Celsius()
		diff := math.Abs(ours - ref)
		worst = max(worst, diff)
		log.Printf("crosscheck: #%d raw=%d ours=%.1f°C bmxx80=%.2f°C diff=%.2f", i+1, raw, ours, ref, diff)
	}

	if worst > crossCheckTolerance {
		return fmt.Errorf("crosscheck: worst difference %.2f°C exceeds %.1f°C", worst, crossCheckTolerance)
	}
	log.Printf("crosscheck: %d readings agree within %.2f°C", n, worst)
	return nil
}
