// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

// ErrNoReading is returned when a source produced data but no complete
// temperature/humidity pair could be extracted from it.
var ErrNoReading = errors.New("sensors: no complete reading")

// Reader produces one temperature/humidity reading per call.
type Reader interface {
	Read() (env.Reading, error)
	Close() error
}

// Open returns the Reader selected by cfg.SensorType.
func Open(cfg *config.Config) (Reader, error) {
	switch cfg.SensorType {
	case config.SensorBME280:
		return NewBME280(cfg.SensorI2CBus, cfg.SensorI2CAddr)
	case config.SensorSerial:
		return OpenSerial(cfg.SensorSerialPort, cfg.SensorBaudRate)
	case config.SensorMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
	}
}
