package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/app"
	"github.com/relabs-tech/compass_nav/internal/config"
	"github.com/relabs-tech/compass_nav/internal/logging"
)

func main() {
	configPath := flag.String("config", "compass_config.txt", "path to the KEY=VALUE config file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	logging.Init(cfg.LogLevel)

	log.Info("starting compass console (MQTT subscriber)")

	if err := app.RunConsoleMQTT(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
