package config

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
)

// ConfigureLogging sets the apex/log handler and level from LOG_FORMAT / LOG_LEVEL.
func ConfigureLogging() {
	if GetEnv("LOG_FORMAT", "cli") == "json" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(cli.New(os.Stderr))
	}
	level, err := log.ParseLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
