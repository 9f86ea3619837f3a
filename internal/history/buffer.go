// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history keeps the most recent sensor readings in a bounded FIFO.
package history

import (
	"sync"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

// MaxLog is the default number of readings kept.
const MaxLog = 20

// Snapshot is a copy of the buffer contents, oldest first.
// Temperatures[i] and Humidities[i] belong to the same reading.
type Snapshot struct {
	Temperatures []float64 `json:"temperatures"`
	Humidities   []float64 `json:"humidities"`
}

// Len returns the number of readings in the snapshot.
func (s Snapshot) Len() int { return len(s.Temperatures) }

// Buffer is a fixed-capacity FIFO of paired temperature/humidity values.
// Record and Snapshot are mutually exclusive, so a Buffer may be shared
// between goroutines.
type Buffer struct {
	mu           sync.RWMutex
	capacity     int
	temperatures []float64
	humidities   []float64
	latest       env.Reading
	haveLatest   bool
}

// New returns an empty buffer holding at most capacity readings.
// A non-positive capacity selects MaxLog.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = MaxLog
	}
	return &Buffer{
		capacity:     capacity,
		temperatures: make([]float64, 0, capacity),
		humidities:   make([]float64, 0, capacity),
	}
}

// Record appends r, evicting the oldest reading first when full.
func (b *Buffer) Record(r env.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.temperatures) >= b.capacity {
		// shift in place so the backing array never grows past capacity
		copy(b.temperatures, b.temperatures[1:])
		copy(b.humidities, b.humidities[1:])
		b.temperatures = b.temperatures[:len(b.temperatures)-1]
		b.humidities = b.humidities[:len(b.humidities)-1]
	}
	b.temperatures = append(b.temperatures, r.Temperature)
	b.humidities = append(b.humidities, r.Humidity)
	b.latest = r
	b.haveLatest = true
}

// Snapshot returns a copy of the buffered values.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Temperatures: make([]float64, len(b.temperatures)),
		Humidities:   make([]float64, len(b.humidities)),
	}
	copy(s.Temperatures, b.temperatures)
	copy(s.Humidities, b.humidities)
	return s
}

// Latest returns the most recently recorded reading.
func (b *Buffer) Latest() (env.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.haveLatest
}

// Len returns the number of readings held, at most Cap.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.temperatures)
}

// Cap returns the maximum number of readings kept.
func (b *Buffer) Cap() int { return b.capacity }
