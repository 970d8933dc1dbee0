package bmp180

import (
	"context"
	"errors"
	"fmt"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
)

var errNack = errors.New("nack")

// fakeSensor is a bus.Transport that serves register reads from a map and
// records every operation, including waits, in one log.
type fakeSensor struct {
	regs map[byte][]byte
	// failOn makes the operation with this log entry fail.
	failOn string
	log    []string
}

func (f *fakeSensor) record(op string) error {
	f.log = append(f.log, op)
	if f.failOn != "" && op == f.failOn {
		return errNack
	}
	return nil
}

func (f *fakeSensor) Write(addr bus.Address, w []byte) error {
	return f.record(fmt.Sprintf("write %X", w))
}

func (f *fakeSensor) Read(addr bus.Address, r []byte) error {
	return f.record("read")
}

func (f *fakeSensor) WriteRead(addr bus.Address, w, r []byte) error {
	if err := f.record(fmt.Sprintf("read %02X", w[0])); err != nil {
		return err
	}
	v, ok := f.regs[w[0]]
	if !ok {
		return fmt.Errorf("register 0x%02X not mapped", w[0])
	}
	copy(r, v)
	return nil
}

func (f *fakeSensor) Wait(ctx context.Context) error {
	return f.record("wait")
}

// datasheetRegs returns the calibration from the BMP180 datasheet example
// and an uncompensated temperature of 27898.
func datasheetRegs() map[byte][]byte {
	return map[byte][]byte{
		RegChipID: {ChipID},
		RegAC5:    {0x7F, 0xF5}, // 32757
		RegAC6:    {0x5A, 0x71}, // 23153
		RegMC:     {0xDD, 0xF9}, // -8711
		RegMD:     {0x0B, 0x34}, // 2868
		RegOutMSB: {0x6C},
		RegOutLSB: {0xFA}, // 0x6CFA = 27898
	}
}
