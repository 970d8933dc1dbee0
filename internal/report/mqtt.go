// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/bmp180_thermometer/internal/env"
)

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes lines and JSON readings to a broker.
type MQTT struct {
	client       Publisher
	topicLines   string
	topicReading string
}

func NewMQTT(client Publisher, topicLines, topicReading string) *MQTT {
	return &MQTT{client: client, topicLines: topicLines, topicReading: topicReading}
}

// Connect opens a paho client to broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("mqtt: connected to %s as %s", broker, clientID)
	return client, nil
}

func (m *MQTT) WriteLine(line string) error {
	if m.topicLines == "" {
		return nil
	}
	if token := m.client.Publish(m.topicLines, 0, false, line); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish (%s): %w", m.topicLines, token.Error())
	}
	return nil
}

// PublishSample publishes s as retained JSON, so late subscribers get the
// latest reading straight away.
func (m *MQTT) PublishSample(s env.Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal (sample): %w", err)
	}
	if token := m.client.Publish(m.topicReading, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish (%s): %w", m.topicReading, token.Error())
	}
	return nil
}
