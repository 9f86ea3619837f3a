// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

type bme280 struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewBME280 opens a BME280 on the named I2C bus ("" selects the first
// bus) at addr (0x76 or 0x77).
func NewBME280(busName string, addr uint16) (Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("BME280 I2C open %q: %w", busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("BME280 init at 0x%02X: %w", addr, err)
	}

	log.Printf("sensors: BME280 initialized on %s at 0x%02X", bus, addr)
	return &bme280{bus: bus, dev: dev}, nil
}

func (s *bme280) Read() (env.Reading, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Reading{}, fmt.Errorf("BME280 sense: %w", err)
	}
	return envToReading(e, time.Now()), nil
}

func (s *bme280) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.bus.Close()
		return fmt.Errorf("BME280 halt: %w", err)
	}
	return s.bus.Close()
}

// envToReading converts periph units to °C and %RH.
func envToReading(e physic.Env, t time.Time) env.Reading {
	return env.Reading{
		Source:      "bme280",
		Temperature: e.Temperature.Celsius(),
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
		Time:        t,
	}
}
