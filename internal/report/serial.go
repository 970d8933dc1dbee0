package report

import (
	"fmt"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a serial port at 8N1 and returns a Sink that writes each
// line followed by eol. Closing the sink closes the port.
func OpenSerial(port string, baud uint, eol string) (*Writer, error) {
	// NOTE: adjust port to match your setup: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, etc.
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", port, err)
	}
	log.Printf("report: serial port opened on %s at %d baud", port, baud)
	return &Writer{w: p, eol: eol, c: p}, nil
}
