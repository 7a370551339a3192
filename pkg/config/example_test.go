package config_test

import (
	"fmt"
	"os"

	"github.com/wonny/pitviper/backend/pkg/config"
)

// Example shows which optional backends a run will use.
func Example() {
	os.Setenv("KAFKA_BROKERS", "localhost:9092")
	defer os.Unsetenv("KAFKA_BROKERS")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("kafka: %v topic=%s\n", cfg.Kafka.Enabled(), cfg.Kafka.Topic)
	fmt.Printf("advice provider: %s\n", cfg.Advice.Provider)
}
