package utils

import (
	"os"

	"github.com/DataDog/datadog-go/statsd"
)

const defaultStatsdAddr = "127.0.0.1:8125"

// GetStatsdClient returns a statsd client for operational counters. Metrics
// are best-effort, callers should log and continue on error.
func GetStatsdClient() (*statsd.Client, error) {
	addr := os.Getenv("STATSD_ADDR")
	if addr == "" {
		addr = defaultStatsdAddr
	}
	return statsd.New(addr)
}
