// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Sensor backends accepted by SENSOR_TYPE.
const (
	SensorBME280 = "bme280"
	SensorSerial = "serial"
	SensorMock   = "mock"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT (an empty broker disables telemetry on the dashboard)
	MQTTBroker            string
	MQTTClientIDDashboard string
	MQTTClientIDLive      string
	MQTTClientIDConsole   string

	// Topics
	TopicReading string
	TopicLED     string

	// Sensor
	SensorType       string
	SensorI2CBus     string
	SensorI2CAddr    uint16
	SensorSerialPort string
	SensorBaudRate   int

	// Board GPIO (periph pin names)
	ButtonPin string
	LEDPin    string

	// Dashboard socket
	WebServerPort        int
	AcceptTimeoutSeconds int
	HistorySize          int

	// Live viewer
	LiveServerPort int

	// Display
	DisplayEnabled bool
	DisplayI2CBus  string

	// Logging (an empty file keeps logs on stderr only)
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		MQTTClientIDDashboard: "sensor-dashboard",
		MQTTClientIDLive:      "sensor-live-subscriber",
		MQTTClientIDConsole:   "sensor-console-subscriber",
		TopicReading:          "sensor/reading",
		TopicLED:              "sensor/led",
		SensorType:            SensorBME280,
		SensorI2CBus:          "",
		SensorI2CAddr:         0x76,
		SensorBaudRate:        4800,
		ButtonPin:             "GPIO15",
		LEDPin:                "GPIO2",
		WebServerPort:         8080,
		AcceptTimeoutSeconds:  10,
		HistorySize:           20,
		LiveServerPort:        8081,
		LogMaxSizeMB:          10,
		LogMaxBackups:         3,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value
	case "MQTT_CLIENT_ID_LIVE":
		c.MQTTClientIDLive = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_READING":
		c.TopicReading = value
	case "TOPIC_LED":
		c.TopicLED = value

	// Sensor
	case "SENSOR_TYPE":
		switch value {
		case SensorBME280, SensorSerial, SensorMock:
			c.SensorType = value
		default:
			return fmt.Errorf("SENSOR_TYPE must be one of %s, %s, %s, got %q", SensorBME280, SensorSerial, SensorMock, value)
		}
	case "SENSOR_I2C_BUS":
		c.SensorI2CBus = value
	case "SENSOR_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_I2C_ADDR %q: %w", value, err)
		}
		if addr != 0x76 && addr != 0x77 {
			return fmt.Errorf("SENSOR_I2C_ADDR must be 0x76 or 0x77, got 0x%X", addr)
		}
		c.SensorI2CAddr = uint16(addr)
	case "SENSOR_SERIAL_PORT":
		c.SensorSerialPort = value
	case "SENSOR_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_BAUD_RATE %q: %w", value, err)
		}
		c.SensorBaudRate = rate

	// Board GPIO
	case "BUTTON_PIN":
		c.ButtonPin = value
	case "LED_PIN":
		c.LEDPin = value

	// Dashboard socket
	case "WEB_SERVER_PORT":
		port, err := parsePort("WEB_SERVER_PORT", value)
		if err != nil {
			return err
		}
		c.WebServerPort = port
	case "ACCEPT_TIMEOUT_SECONDS":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEPT_TIMEOUT_SECONDS %q: %w", value, err)
		}
		if secs < 1 || secs > 300 {
			return fmt.Errorf("ACCEPT_TIMEOUT_SECONDS must be 1-300, got %d", secs)
		}
		c.AcceptTimeoutSeconds = secs
	case "HISTORY_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HISTORY_SIZE %q: %w", value, err)
		}
		if size < 1 || size > 1000 {
			return fmt.Errorf("HISTORY_SIZE must be 1-1000, got %d", size)
		}
		c.HistorySize = size

	// Live viewer
	case "LIVE_SERVER_PORT":
		port, err := parsePort("LIVE_SERVER_PORT", value)
		if err != nil {
			return err
		}
		c.LiveServerPort = port

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Logging
	case "LOG_FILE":
		c.LogFile = value
	case "LOG_MAX_SIZE_MB":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_SIZE_MB %q: %w", value, err)
		}
		if size < 1 || size > 1000 {
			return fmt.Errorf("LOG_MAX_SIZE_MB must be 1-1000, got %d", size)
		}
		c.LogMaxSizeMB = size
	case "LOG_MAX_BACKUPS":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid LOG_MAX_BACKUPS %q", value)
		}
		c.LogMaxBackups = n

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parsePort(key, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return port, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.SensorType == SensorSerial {
		if c.SensorSerialPort == "" {
			return fmt.Errorf("SENSOR_SERIAL_PORT is required when SENSOR_TYPE=serial")
		}
		if c.SensorBaudRate <= 0 {
			return fmt.Errorf("SENSOR_BAUD_RATE is required when SENSOR_TYPE=serial")
		}
	}
	if c.MQTTBroker != "" && c.TopicReading == "" {
		return fmt.Errorf("TOPIC_READING is required when MQTT_BROKER is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
