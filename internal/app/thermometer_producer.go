package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/bmp180_thermometer/internal/bmp180"
	"github.com/relabs-tech/bmp180_thermometer/internal/bus"
	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
	"github.com/relabs-tech/bmp180_thermometer/internal/report"
)

// RunThermometer opens the I²C bus and the configured outputs and runs the
// thermometer until SIGINT/SIGTERM.
func RunThermometer() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("thermometer: config not initialized")
	}

	tr, b, closeBus, err := openTransport(cfg.I2C.Bus)
	if err != nil {
		return err
	}
	defer closeBus()
	log.Printf("thermometer: using I2C bus %s, sensor at 0x%02X", tr, cfg.I2C.SensorAddr)

	rep, err := openReporter(cfg, b)
	if err != nil {
		return err
	}
	defer rep.Close()

	waiter, stop := newWaiter(cfg.Sensor)
	defer stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	th := &Thermometer{
		Transport:     tr,
		Addr:          bus.Address(cfg.I2C.SensorAddr),
		Waiter:        waiter,
		Report:        rep,
		Policy:        cfg.Policy,
		RequireChipID: cfg.Sensor.RequireChipID,
	}
	return th.Run(ctx)
}

// SimBus selects the simulated sensor instead of real hardware.
const SimBus = "sim"

type namedTransport interface {
	bus.Transport
	String() string
}

// openTransport opens the named I²C bus, or the simulator for SimBus. The
// returned i2c.Bus is nil for the simulator.
func openTransport(name string) (namedTransport, i2c.Bus, func() error, error) {
	if name == SimBus {
		log.Println("thermometer: running against the simulated sensor")
		return bmp180.NewSim(), nil, func() error { return nil }, nil
	}
	p, b, err := bus.Open(name)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, b, b.Close, nil
}

// openReporter builds the configured outputs. The display shares b with the
// sensor; all bus traffic stays on the acquisition goroutine.
func openReporter(cfg *config.Config, b i2c.Bus) (*report.Reporter, error) {
	rep := report.NewReporter()
	rc := cfg.Report

	if rc.Stdout {
		rep.AddSink(report.NewWriter(os.Stdout, "\n"))
	}

	if rc.Serial.Enabled {
		s, err := report.OpenSerial(rc.Serial.Port, rc.Serial.BaudRate, rc.Serial.LineEnding)
		if err != nil {
			rep.Close()
			return nil, err
		}
		rep.AddSink(s)
	}

	if rc.MQTT.Enabled {
		client, err := report.Connect(rc.MQTT.Broker, rc.MQTT.ClientID)
		if err != nil {
			rep.Close()
			return nil, err
		}
		rep.AddSink(&mqttSink{MQTT: report.NewMQTT(client, rc.MQTT.TopicLines, rc.MQTT.TopicReading), disconnect: client.Disconnect})
	}

	if rc.Display.Enabled && b == nil {
		log.Println("thermometer: display disabled, no I2C bus")
	} else if rc.Display.Enabled {
		d, err := report.OpenDisplay(b)
		if err != nil {
			// The display is a convenience; keep measuring without it.
			log.Printf("thermometer: display disabled: %v", err)
		} else {
			rep.AddPublisher(d)
		}
	}

	return rep, nil
}

// mqttSink disconnects the client when the reporter closes.
type mqttSink struct {
	*report.MQTT
	disconnect func(quiesce uint)
}

func (m *mqttSink) Close() error {
	m.disconnect(250)
	return nil
}

func newWaiter(sc config.SensorConfig) (clock.Waiter, func()) {
	if sc.Timer == "oneshot" {
		return clock.NewOneShot(sc.ConversionWait), func() {}
	}
	t := clock.NewTicker(sc.ConversionWait)
	return t, t.Stop
}
