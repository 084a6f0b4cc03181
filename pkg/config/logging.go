package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// LogLevel reads LOG_LEVEL, defaulting to info.
func LogLevel() log.Level {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
