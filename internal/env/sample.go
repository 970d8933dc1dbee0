package env

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sample represents a single compensated temperature reading.
type Sample struct {
	Source string `json:"source"` // sensor label, e.g. "bmp180"
	Addr   uint8  `json:"addr"`   // 7-bit I²C address

	Raw          int16 `json:"raw"`     // uncompensated reading
	TemperatureC int32 `json:"temp_c"`  // whole °C
	TemperatureD int32 `json:"temp_dc"` // 0.1 °C

	Time string `json:"time"` // RFC3339
}

// NewSample stamps a reading with the current time.
func NewSample(source string, addr uint8, raw int16, celsius, deci int32, t time.Time) Sample {
	return Sample{
		Source:       source,
		Addr:         addr,
		Raw:          raw,
		TemperatureC: celsius,
		TemperatureD: deci,
		Time:         t.UTC().Format(time.RFC3339),
	}
}

// Temperature returns the 0.1 °C reading as a periph physic value.
func (s Sample) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(s.TemperatureD)*100*physic.MilliKelvin
}

func (s Sample) String() string {
	return fmt.Sprintf("%s@0x%02X %d°C (raw %d)", s.Source, s.Addr, s.TemperatureC, s.Raw)
}
