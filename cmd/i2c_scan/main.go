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

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunScan(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
