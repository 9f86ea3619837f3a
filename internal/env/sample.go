// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import "time"

// Reading represents a single temperature/humidity measurement.
type Reading struct {
	Source string `json:"source"` // "bme280", "serial", "mock"

	Temperature float64   `json:"temp_c"`       // °C
	Humidity    float64   `json:"humidity_pct"` // %RH
	Time        time.Time `json:"time"`
}

// LEDState is the JSON payload published when the status LED changes.
type LEDState struct {
	On   bool      `json:"on"`
	Time time.Time `json:"time"`
}
