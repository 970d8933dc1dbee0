package report

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/bmp180_thermometer/internal/env"
)

// Display shows the latest reading on a 128x64 SSD1306 panel.
type Display struct {
	dev display.Drawer
}

// OpenDisplay initializes an SSD1306 on b, which may be the sensor's own
// bus, and draws the splash screen.
func OpenDisplay(b i2c.Bus) (*Display, error) {
	dev, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized %s", dev)
	d := NewDisplay(dev)
	if err := d.draw("BMP180", "Waiting..."); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// NewDisplay draws on any periph display.
func NewDisplay(dev display.Drawer) *Display {
	return &Display{dev: dev}
}

func (d *Display) PublishSample(s env.Sample) error {
	return d.draw(
		fmt.Sprintf("T: %d C", s.TemperatureC),
		s.Temperature().String(),
		fmt.Sprintf("raw %d", s.Raw),
	)
}

func (d *Display) draw(lines ...string) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, l := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(l)
	}
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func (d *Display) Close() error {
	return d.dev.Halt()
}
