// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/board"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/display"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/sensors"
	"github.com/relabs-tech/sensor_dashboard/internal/server"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

// RunDashboard runs the device loop until ctx is cancelled: sensor,
// button, LED, optional MQTT publisher and OLED, and the single
// connection dashboard socket.
func RunDashboard(ctx context.Context, cfg *config.Config) error {
	sensor, err := sensors.Open(cfg)
	if err != nil {
		return fmt.Errorf("sensor init: %w", err)
	}
	defer sensor.Close()
	log.Printf("dashboard: using %s sensor", cfg.SensorType)

	var button board.Button = board.NoButton{}
	if cfg.ButtonPin != "" {
		if b, err := board.OpenButton(cfg.ButtonPin); err != nil {
			log.Printf("WARNING: button not available, continuing without it: %v", err)
		} else {
			button = b
		}
	}

	var led board.LED = board.NoLED{}
	if cfg.LEDPin != "" {
		if l, err := board.OpenLED(cfg.LEDPin); err != nil {
			log.Printf("WARNING: LED not available, continuing without it: %v", err)
		} else {
			led = l
		}
	}

	var sinks []server.Sink

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDashboard, cfg.TopicReading, cfg.TopicLED)
		if err != nil {
			log.Printf("WARNING: MQTT not available, readings will not be published: %v", err)
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}

	if cfg.DisplayEnabled {
		oled, err := display.Open(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("WARNING: display not available: %v", err)
		} else {
			defer oled.Close()
			sinks = append(sinks, oled)
		}
	}

	ln, err := server.Listen(fmt.Sprintf(":%d", cfg.WebServerPort), time.Duration(cfg.AcceptTimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}

	sess := server.NewSession(ln, sensor, server.Options{
		History: history.New(cfg.HistorySize),
		Button:  button,
		LED:     led,
		Sinks:   sinks,
	})

	for _, ip := range localIPv4s() {
		log.Printf("dashboard: web server running at http://%s:%d", ip, cfg.WebServerPort)
	}

	return sess.Run(ctx)
}

// localIPv4s lists the non-loopback IPv4 addresses of this host.
func localIPv4s() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("dashboard: interface addresses: %v", err)
		return nil
	}

	var ips []string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			ips = append(ips, ip4.String())
		}
	}
	return ips
}
