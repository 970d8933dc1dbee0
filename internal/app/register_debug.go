// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/relabs-tech/bmp180_thermometer/internal/bmp180"
	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
)

// RegisterValue is one register as read from the device.
type RegisterValue struct {
	bmp180.RegisterInfo
	Value byte
	Err   error
}

// ReadRegisters reads every register in the driver's map, one byte each.
// Calibration words are shown by their MSB only. A failed read is recorded
// in the entry and does not stop the dump.
func ReadRegisters(t bus.Transport, addr bus.Address) []RegisterValue {
	regs := bmp180.Registers()
	out := make([]RegisterValue, 0, len(regs))
	for _, r := range regs {
		v := RegisterValue{RegisterInfo: r}
		buf := make([]byte, 1)
		if err := t.WriteRead(addr, []byte{r.Address}, buf); err != nil {
			v.Err = err
		} else {
			v.Value = buf[0]
		}
		out = append(out, v)
	}
	return out
}

// RunRegisterDump prints the sensor's registers and exits.
func RunRegisterDump() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("register_debug: config not initialized")
	}

	tr, _, closeBus, err := openTransport(cfg.I2C.Bus)
	if err != nil {
		return err
	}
	defer closeBus()

	addr := bus.Address(cfg.I2C.SensorAddr)
	log.Printf("register_debug: reading %s on %s", addr, tr)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDR\tNAME\tACCESS\tVALUE\tDESCRIPTION")
	failed := 0
	for _, v := range ReadRegisters(tr, addr) {
		val := fmt.Sprintf("0x%02X", v.Value)
		if v.Err != nil {
			val = "--"
			failed++
			log.Printf("register_debug: %s: %v", bmp180.RegisterName(v.Address), v.Err)
		}
		fmt.Fprintf(tw, "0x%02X\t%s\t%s\t%s\t%s\n", v.Address, v.Name, v.Access, val, v.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("register_debug: %d register(s) unreadable", failed)
	}
	return nil
}
