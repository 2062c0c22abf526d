package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"gitlab.com/dirk.krummacker/person-palace/internal/client"
	"gitlab.com/dirk.krummacker/person-palace/internal/config"
	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
)

// pollInterval is the pause between two attempts.
const pollInterval = 5 * time.Second

// Usage example on the command line:
// > PERSONS_API_ROOT=http://localhost:8080 go run main.go
func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load configuration:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)
	api := client.New(cfg.APIRoot, client.WithLogger(log))
	waitUntilAvailable(context.Background(), api, log, pollInterval)
}

// waitUntilAvailable lists the persons until the API answers successfully or ctx is done. It
// returns false if ctx ended first.
func waitUntilAvailable(ctx context.Context, api *client.Client, log logrus.FieldLogger, interval time.Duration) bool {
	var totalWaitTime time.Duration
	for {
		persons, err := api.List(ctx)
		if err == nil {
			log.WithField("persons", len(persons)).Info("persons API is available")
			return true
		}
		log.WithError(err).Warn("persons API not available yet")
		totalWaitTime += interval
		log.Infof("Waiting %s", totalWaitTime)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
