// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/bmp180_thermometer/internal/app"
	"github.com/relabs-tech/bmp180_thermometer/internal/config"
)

func main() {
	configPath := flag.String("config", "./thermometer.yaml", "path to configuration file")
	flag.Parse()

	log.Println("starting BMP180 thermometer (I2C → serial/MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunThermometer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
