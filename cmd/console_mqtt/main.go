// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/sensor_dashboard/internal/app"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred cleanup happens before exit.
func run(args []string) int {
	flags := flag.NewFlagSet("console_mqtt", flag.ContinueOnError)
	configPath := flags.String("config", "./dashboard_config.txt", "path to configuration file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	log.Println("starting sensor-dashboard console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logFile := logging.Setup(config.Get())
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, config.Get()); err != nil {
		log.Printf("fatal: %v", err)
		return 1
	}
	return 0
}
