// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMock creates a mock sensor that generates smooth changing values,
// for running the dashboard without hardware.
func NewMock() Reader {
	return &mockSource{start: time.Now(), now: time.Now}
}

func (m *mockSource) Read() (env.Reading, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()

	return env.Reading{
		Source:      "mock",
		Temperature: 22 + 3*math.Sin(elapsed/30),
		Humidity:    50 + 10*math.Cos(elapsed/45),
		Time:        t,
	}, nil
}

func (m *mockSource) Close() error { return nil }
