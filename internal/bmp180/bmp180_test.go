package bmp180

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
)

func TestReadCalibration(t *testing.T) {
	f := &fakeSensor{regs: datasheetRegs()}
	f.regs[RegAC5] = []byte{0x12, 0x34}

	cal, err := ReadCalibration(f, DefaultAddress)
	if err != nil {
		t.Fatalf("ReadCalibration: %v", err)
	}
	want := Calibration{AC5: 4660, AC6: 23153, MC: -8711, MD: 2868}
	if *cal != want {
		t.Fatalf("calibration = %+v, want %+v", *cal, want)
	}
	order := []string{"read B2", "read B4", "read BC", "read BE"}
	if !slices.Equal(f.log, order) {
		t.Fatalf("read order = %v, want %v", f.log, order)
	}
}

func TestReadCalibrationShortCircuits(t *testing.T) {
	for _, fail := range []string{"read B2", "read B4", "read BC", "read BE"} {
		t.Run(fail, func(t *testing.T) {
			f := &fakeSensor{regs: datasheetRegs(), failOn: fail}
			cal, err := ReadCalibration(f, DefaultAddress)
			if cal != nil {
				t.Fatalf("got partial calibration %+v", *cal)
			}
			if !errors.Is(err, errNack) {
				t.Fatalf("error = %v, want wrapped nack", err)
			}
			if last := f.log[len(f.log)-1]; last != fail {
				t.Fatalf("reads continued after failure: %v", f.log)
			}
		})
	}
}

func TestReadCalibrationRejectsBlankWords(t *testing.T) {
	for _, word := range [][]byte{{0x00, 0x00}, {0xFF, 0xFF}} {
		f := &fakeSensor{regs: datasheetRegs()}
		f.regs[RegMC] = word
		cal, err := ReadCalibration(f, DefaultAddress)
		if cal != nil || !errors.Is(err, ErrInvalidCalibration) {
			t.Fatalf("word %X: got (%v, %v), want ErrInvalidCalibration", word, cal, err)
		}
	}
}

func TestReadCalibrationOverPeriph(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x77, W: []byte{RegAC5}, R: []byte{0x01, 0x98}},
			{Addr: 0x77, W: []byte{RegAC6}, R: []byte{0xC7, 0xD1}},
			{Addr: 0x77, W: []byte{RegMC}, R: []byte{0xFF, 0xB8}},
			{Addr: 0x77, W: []byte{RegMD}, R: []byte{0x08, 0xAC}},
		},
		DontPanic: true,
	}
	cal, err := ReadCalibration(bus.NewPeriph(pb), DefaultAddress)
	if err != nil {
		t.Fatalf("ReadCalibration: %v", err)
	}
	want := Calibration{AC5: 408, AC6: -14383, MC: -72, MD: 2220}
	if *cal != want {
		t.Fatalf("calibration = %+v, want %+v", *cal, want)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestIdentity(t *testing.T) {
	f := &fakeSensor{regs: datasheetRegs()}
	id, err := ReadIdentity(f, DefaultAddress)
	if err != nil || id != ChipID {
		t.Fatalf("ReadIdentity = (0x%02X, %v)", id, err)
	}
	if err := CheckIdentity(id); err != nil {
		t.Fatalf("CheckIdentity(0x55) = %v", err)
	}

	var mismatch *IdentityMismatchError
	if err := CheckIdentity(0x58); !errors.As(err, &mismatch) || mismatch.Got != 0x58 {
		t.Fatalf("CheckIdentity(0x58) = %v", err)
	}

	f.failOn = "read D0"
	if _, err := ReadIdentity(f, DefaultAddress); !errors.Is(err, errNack) {
		t.Fatalf("ReadIdentity on failing bus = %v", err)
	}
}

func TestMeasureSequence(t *testing.T) {
	f := &fakeSensor{regs: datasheetRegs()}
	c := NewCycle(f, DefaultAddress, f)

	raw, err := c.Measure(context.Background())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if raw != 27898 {
		t.Fatalf("raw = %d, want 27898", raw)
	}
	want := []string{"write F42E", "wait", "read F6", "read F7"}
	if !slices.Equal(f.log, want) {
		t.Fatalf("operations = %v, want %v", f.log, want)
	}
	if c.State() != Idle {
		t.Fatalf("state after cycle = %s, want idle", c.State())
	}
}

// stampBus records when the trigger was written and when the MSB was read.
type stampBus struct {
	fakeSensor
	trigger, msb time.Time
}

func (s *stampBus) Write(addr bus.Address, w []byte) error {
	s.trigger = time.Now()
	return s.fakeSensor.Write(addr, w)
}

func (s *stampBus) WriteRead(addr bus.Address, w, r []byte) error {
	if w[0] == RegOutMSB {
		s.msb = time.Now()
	}
	return s.fakeSensor.WriteRead(addr, w, r)
}

func TestMeasureAfterIdleTickerWaitsForConversion(t *testing.T) {
	tk := clock.NewTicker(50 * time.Millisecond)
	defer tk.Stop()
	// The loop was busy for more than a period; a tick is overdue.
	time.Sleep(120 * time.Millisecond)

	b := &stampBus{fakeSensor: fakeSensor{regs: datasheetRegs()}}
	raw, err := NewCycle(b, DefaultAddress, tk).Measure(context.Background())
	if err != nil || raw != 27898 {
		t.Fatalf("Measure = (%d, %v)", raw, err)
	}
	if gap := b.msb.Sub(b.trigger); gap < clock.MinConversionTime {
		t.Fatalf("MSB read %v after trigger, want at least %v", gap, clock.MinConversionTime)
	}
}

func TestMeasureNegativeRaw(t *testing.T) {
	f := &fakeSensor{regs: datasheetRegs()}
	f.regs[RegOutMSB] = []byte{0x80}
	f.regs[RegOutLSB] = []byte{0x01}
	raw, err := NewCycle(f, DefaultAddress, f).Measure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if raw != -32767 {
		t.Fatalf("raw = %d, want -32767", raw)
	}
}

func TestMeasureFailures(t *testing.T) {
	tests := []struct {
		failOn string
		state  State
		log    []string
	}{
		{"write F42E", Idle, []string{"write F42E"}},
		{"wait", Converting, []string{"write F42E", "wait"}},
		{"read F6", ReadMSB, []string{"write F42E", "wait", "read F6"}},
		{"read F7", ReadLSB, []string{"write F42E", "wait", "read F6", "read F7"}},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			f := &fakeSensor{regs: datasheetRegs(), failOn: tt.failOn}
			c := NewCycle(f, DefaultAddress, f)
			_, err := c.Measure(context.Background())

			var ce *CycleError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a *CycleError", err)
			}
			if ce.State != tt.state {
				t.Fatalf("failed in %s, want %s", ce.State, tt.state)
			}
			if !errors.Is(err, errNack) {
				t.Fatalf("cause not preserved: %v", err)
			}
			if !slices.Equal(f.log, tt.log) {
				t.Fatalf("operations = %v, want %v", f.log, tt.log)
			}
			if c.State() != Idle {
				t.Fatalf("state after failure = %s, want idle", c.State())
			}
		})
	}
}

func TestMeasureRecoversAfterFailure(t *testing.T) {
	f := &fakeSensor{regs: datasheetRegs(), failOn: "write F42E"}
	c := NewCycle(f, DefaultAddress, f)
	if _, err := c.Measure(context.Background()); err == nil {
		t.Fatal("expected trigger failure")
	}
	f.failOn = ""
	if raw, err := c.Measure(context.Background()); err != nil || raw != 27898 {
		t.Fatalf("second cycle = (%d, %v)", raw, err)
	}
}

func TestCompensate(t *testing.T) {
	tests := []struct {
		name string
		raw  int16
		cal  Calibration
		want Temperature
	}{
		{
			name: "datasheet",
			raw:  27898,
			cal:  Calibration{AC5: 32757, AC6: 23153, MC: -8711, MD: 2868},
			want: Temperature{X1: 4743, X2: -2343, B5: 2400, Deci: 150, Celsius: 15},
		},
		{
			name: "sample constants",
			raw:  27898,
			cal:  Calibration{AC5: 408, AC6: -14383, MC: -72, MD: 2220},
			want: Temperature{X1: 526, X2: -53, B5: 473, Deci: 30, Celsius: 3},
		},
		{
			// -5.5 °C: division truncates to -5 rather than flooring to -6.
			name: "below zero",
			raw:  0,
			cal:  Calibration{AC5: 1, AC6: 0, MC: -111, MD: 256},
			want: Temperature{X1: 0, X2: -888, B5: -888, Deci: -55, Celsius: -5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compensate(tt.raw, &tt.cal)
			if err != nil {
				t.Fatalf("Compensate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Compensate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompensateNegativeRounding(t *testing.T) {
	// The shift floors while the division truncates.
	cal := Calibration{AC5: 1, AC6: 0, MC: -1, MD: 23}
	// x1 = (0*1)>>15 = 0, x2 = -2048/23 = -89 (truncated), b5 = -89
	got, err := Compensate(0, &cal)
	if err != nil {
		t.Fatal(err)
	}
	if got.X2 != -89 || got.B5 != -89 {
		t.Fatalf("x2, b5 = %d, %d, want -89, -89", got.X2, got.B5)
	}
	// (-89+8)>>4 = -81>>4 = -6 (arithmetic shift floors), -6/10 = 0 (division truncates)
	if got.Deci != -6 || got.Celsius != 0 {
		t.Fatalf("deci, celsius = %d, %d, want -6, 0", got.Deci, got.Celsius)
	}
}

func TestCompensateIsPure(t *testing.T) {
	cal := Calibration{AC5: 408, AC6: -14383, MC: -72, MD: 2220}
	a, errA := Compensate(27898, &cal)
	b, errB := Compensate(27898, &cal)
	if a != b || errA != nil || errB != nil {
		t.Fatalf("repeated calls differ: %+v/%v vs %+v/%v", a, errA, b, errB)
	}
	if cal != (Calibration{AC5: 408, AC6: -14383, MC: -72, MD: 2220}) {
		t.Fatal("Compensate modified its calibration")
	}
}

func TestCompensateDivideByZero(t *testing.T) {
	// x1 = ((100 - 0) * 32767) >> 15 = 99, so md = -99 zeroes the divisor.
	cal := Calibration{AC5: 32767, AC6: 0, MC: 1, MD: -99}
	if _, err := Compensate(100, &cal); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("Compensate = %v, want ErrDivideByZero", err)
	}
}

func TestStateString(t *testing.T) {
	if s := ReadMSB.String(); s != "read-msb" {
		t.Fatalf("ReadMSB.String() = %q", s)
	}
	if s := State(42).String(); s != "State(42)" {
		t.Fatalf("State(42).String() = %q", s)
	}
}

func TestRegisterName(t *testing.T) {
	if got := RegisterName(RegAC5); got != "AC5 (0xB2)" {
		t.Fatalf("RegisterName(0xB2) = %q", got)
	}
	if got := RegisterName(0x00); got != "0x00" {
		t.Fatalf("RegisterName(0x00) = %q", got)
	}
}

func TestSimRunsThePipeline(t *testing.T) {
	sim := NewSim()

	var found []bus.Address
	for a := range bus.Scan(sim) {
		found = append(found, a)
	}
	if len(found) != 1 || found[0] != DefaultAddress {
		t.Fatalf("scan = %v", found)
	}

	id, err := ReadIdentity(sim, DefaultAddress)
	if err != nil || CheckIdentity(id) != nil {
		t.Fatalf("identity = 0x%02X, %v", id, err)
	}
	cal, err := ReadCalibration(sim, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	if *cal != (Calibration{AC5: 32757, AC6: 23153, MC: -8711, MD: 2868}) {
		t.Fatalf("calibration = %+v", *cal)
	}

	raw, err := NewCycle(sim, DefaultAddress, clock.NewOneShot(clock.MinConversionTime)).Measure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if raw < 27898-160 || raw > 27898+160 {
		t.Fatalf("raw = %d", raw)
	}
	temp, err := Compensate(raw, cal)
	if err != nil {
		t.Fatal(err)
	}
	if temp.Celsius < 13 || temp.Celsius > 17 {
		t.Fatalf("temperature = %d °C", temp.Celsius)
	}
}

func TestSimPlainRead(t *testing.T) {
	sim := NewSim()
	buf := make([]byte, 2)

	if err := sim.Write(DefaultAddress, []byte{RegAC5}); err != nil {
		t.Fatal(err)
	}
	if err := sim.Read(DefaultAddress, buf); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x7F || buf[1] != 0xF5 {
		t.Fatalf("AC5 = %X", buf)
	}

	if err := sim.Write(DefaultAddress, []byte{RegCtrl, CmdReadTmp}); err != nil {
		t.Fatal(err)
	}
	if err := sim.Write(DefaultAddress, []byte{RegOutMSB}); err != nil {
		t.Fatal(err)
	}
	if err := sim.Read(DefaultAddress, buf); err != nil {
		t.Fatal(err)
	}
	if raw := int16(uint16(buf[0])<<8 | uint16(buf[1])); raw < 27898-160 || raw > 27898+160 {
		t.Fatalf("raw = %d", raw)
	}

	if err := sim.Read(0x76, buf); err == nil {
		t.Fatal("read from an absent device succeeded")
	}
}
