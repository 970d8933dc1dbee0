package bmp180

import (
	"errors"
	"fmt"
)

// ErrDivideByZero is returned when x1 + MD is zero and the formula is
// undefined for this reading.
var ErrDivideByZero = errors.New("bmp180: compensation divisor x1+md is zero")

// Temperature is a compensated reading together with the intermediate terms
// of the datasheet formula.
type Temperature struct {
	X1, X2, B5 int32
	Deci       int32 // 0.1 °C
	Celsius    int32 // whole °C, truncated toward zero
}

func (t Temperature) String() string {
	return fmt.Sprintf("%d°C", t.Celsius)
}

// Compensate converts a raw temperature reading to degrees Celsius using the
// datasheet integer formula. All arithmetic is 32-bit; shifts are arithmetic
// and division truncates, exactly as the datasheet prescribes, including the
// rounding asymmetry below 0 °C.
func Compensate(raw int16, cal *Calibration) (Temperature, error) {
	x1 := (int32(raw) - int32(cal.AC6)) * int32(cal.AC5) >> 15
	d := x1 + int32(cal.MD)
	if d == 0 {
		return Temperature{}, ErrDivideByZero
	}
	x2 := (int32(cal.MC) << 11) / d
	b5 := x1 + x2
	deci := (b5 + 8) >> 4
	return Temperature{
		X1:      x1,
		X2:      x2,
		B5:      b5,
		Deci:    deci,
		Celsius: deci / 10,
	}, nil
}
