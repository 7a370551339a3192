package logger_test

import (
	"errors"

	"github.com/wonny/pitviper/backend/pkg/config"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging around a source fetch.
func Example_withFields() {
	log := logger.New(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"})

	log.WithFields(map[string]interface{}{
		"asset_type": "equity",
		"source":     "yahoo",
		"count":      3,
	}).Info("Source collected")

	log.WithError(errors.New("status 503")).
		WithField("asset_type", "crypto").
		Warn("Falling back to offline data")
}
