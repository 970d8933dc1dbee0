package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/bmp180_thermometer/internal/config"
	"github.com/relabs-tech/bmp180_thermometer/internal/env"
	"github.com/relabs-tech/bmp180_thermometer/internal/report"
)

// RunConsoleMQTT prints every line and reading the thermometer publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("console: config not initialized")
	}
	mc := cfg.Report.MQTT

	client, err := report.Connect(mc.Broker, mc.ClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// Subscribe to report lines
	linesToken := client.Subscribe(mc.TopicLines, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[LINE] %s\n", msg.Payload())
	})
	linesToken.Wait()
	if linesToken.Error() != nil {
		return linesToken.Error()
	}
	log.Printf("console: subscribed to %s", mc.TopicLines)

	// Subscribe to readings
	readingToken := client.Subscribe(mc.TopicReading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := decodeSample(msg.Payload())
		if err != nil {
			log.Printf("console: reading unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSample(s))
	})
	readingToken.Wait()
	if readingToken.Error() != nil {
		return readingToken.Error()
	}
	log.Printf("console: subscribed to %s", mc.TopicReading)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}

func decodeSample(payload []byte) (env.Sample, error) {
	var s env.Sample
	err := json.Unmarshal(payload, &s)
	return s, err
}

func formatSample(s env.Sample) string {
	return fmt.Sprintf("[TEMP] %s addr=0x%02X T=%4d°C (%s) raw=%6d",
		s.Time, s.Addr, s.TemperatureC, s.Temperature(), s.Raw)
}
