// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Init sets the log level ("debug", "info", "warn", "error"; anything
// else means info). Output is text with timestamps, or JSON when
// GO_ENV=production.
func Init(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	if os.Getenv("GO_ENV") == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
