package app

import (
	"testing"
	"time"

	"github.com/relabs-tech/bmp180_thermometer/internal/bmp180"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
)

func TestSimulatedThermometer(t *testing.T) {
	tr, b, closeBus, err := openTransport(SimBus)
	if err != nil {
		t.Fatal(err)
	}
	defer closeBus()
	if b != nil {
		t.Fatal("simulator returned a hardware bus")
	}

	cfg := config.Default()
	cfg.Report.Stdout = false
	cfg.Report.Display.Enabled = true
	rep, err := openReporter(cfg, b)
	if err != nil {
		t.Fatal(err)
	}
	defer rep.Close()

	h := newHarness(t, 3)
	rep.AddSink(h.out)
	h.th.Transport = tr
	h.th.Report = rep

	if err := h.th.Run(h.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.count("Found device at address 0x77") != 1 || h.count("Device ID is 85") != 1 {
		t.Fatalf("lines = %q", h.out.lines)
	}
	if len(h.out.samples) != 2 {
		t.Fatalf("published %d samples", len(h.out.samples))
	}
	for _, s := range h.out.samples {
		if s.Addr != uint8(bmp180.DefaultAddress) || s.TemperatureC < 13 || s.TemperatureC > 17 {
			t.Fatalf("sample = %+v", s)
		}
	}
}

func TestNewWaiter(t *testing.T) {
	w, stop := newWaiter(config.SensorConfig{Timer: "oneshot", ConversionWait: 5 * time.Millisecond})
	stop()
	if _, ok := w.(*clock.OneShot); !ok {
		t.Fatalf("oneshot timer = %T", w)
	}

	w, stop = newWaiter(config.SensorConfig{Timer: "periodic", ConversionWait: 5 * time.Millisecond})
	defer stop()
	if _, ok := w.(*clock.Ticker); !ok {
		t.Fatalf("periodic timer = %T", w)
	}
}
