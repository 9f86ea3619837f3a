// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
)

// sentence wraps an NMEA body with '$' and its XOR checksum.
func sentence(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, cs)
}

func nearly(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func newTestReader(stream string) *nmeaReader {
	r := newNMEAReader(io.NopCloser(strings.NewReader(stream)))
	r.now = fixedNow
	return r
}

func TestNMEAReaderMDA(t *testing.T) {
	stream := "garbage from a half sentence\r\n" +
		sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W") +
		sentence("WIMDA,29.9870,I,1.0154,B,23.4,C,,C,45.0,,12.3,C,,T,,M,,N,,M")

	r := newTestReader(stream)
	got, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !nearly(got.Temperature, 23.4) || !nearly(got.Humidity, 45.0) {
		t.Fatalf("reading = %+v, want 23.4°C 45%%", got)
	}
	if got.Source != "serial" || !got.Time.Equal(fixedNow()) {
		t.Fatalf("reading metadata = %q %v", got.Source, got.Time)
	}
}

func TestNMEAReaderXDRAcrossSentences(t *testing.T) {
	stream := sentence("WIXDR,C,19.5,C,TEMP") +
		sentence("WIXDR,P,1.0132,B,BARO") +
		sentence("WIXDR,H,61.2,P,HUM")

	r := newTestReader(stream)
	got, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !nearly(got.Temperature, 19.5) || !nearly(got.Humidity, 61.2) {
		t.Fatalf("reading = %+v, want 19.5°C 61.2%%", got)
	}
}

func TestNMEAReaderConsecutiveReads(t *testing.T) {
	stream := sentence("WIMDA,29.9870,I,1.0154,B,20.0,C,,C,50.0,,9.3,C,,T,,M,,N,,M") +
		sentence("WIMDA,29.9870,I,1.0154,B,21.0,C,,C,51.0,,9.3,C,,T,,M,,N,,M")

	r := newTestReader(stream)
	for _, want := range []float64{20, 21} {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !nearly(got.Temperature, want) || !nearly(got.Humidity, want+30) {
			t.Fatalf("reading = %+v, want %v/%v", got, want, want+30)
		}
	}

	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("Read after end of stream = %v, want io.EOF", err)
	}
}

func TestNMEAReaderMDAMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty humidity", "WIMDA,29.9870,I,1.0154,B,23.4,C,,C,,,12.3,C,,T,,M,,N,,M"},
		{"empty temperature", "WIMDA,29.9870,I,1.0154,B,,C,,C,45.0,,12.3,C,,T,,M,,N,,M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(sentence(tt.body))
			got, err := r.Read()
			if err == nil {
				t.Fatalf("Read = %+v, want error for partial sentence", got)
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, ErrNoReading) {
				t.Fatalf("Read error = %v", err)
			}
		})
	}
}

func TestNMEAReaderMDAPartialsCombine(t *testing.T) {
	stream := sentence("WIMDA,29.9870,I,1.0154,B,23.4,C,,C,,,12.3,C,,T,,M,,N,,M") +
		sentence("WIMDA,29.9870,I,1.0154,B,,C,,C,45.0,,12.3,C,,T,,M,,N,,M")

	got, err := newTestReader(stream).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !nearly(got.Temperature, 23.4) || !nearly(got.Humidity, 45.0) {
		t.Fatalf("reading = %+v, want 23.4°C 45%%", got)
	}
}

func TestNMEAReaderXDREmptyValue(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxSentencesPerRead; i++ {
		b.WriteString(sentence("WIXDR,C,19.5,C,TEMP,H,,P,HUM"))
	}

	got, err := newTestReader(b.String()).Read()
	if !errors.Is(err, ErrNoReading) {
		t.Fatalf("Read = %+v, %v, want ErrNoReading", got, err)
	}
}

func TestNMEAReaderNoReading(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxSentencesPerRead+5; i++ {
		b.WriteString(sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"))
	}

	r := newTestReader(b.String())
	if _, err := r.Read(); !errors.Is(err, ErrNoReading) {
		t.Fatalf("Read = %v, want ErrNoReading", err)
	}
}

func TestEnvToReading(t *testing.T) {
	e := physic.Env{
		Temperature: physic.ZeroCelsius + 21*physic.Kelvin,
		Humidity:    45 * physic.PercentRH,
	}
	got := envToReading(e, fixedNow())
	if !nearly(got.Temperature, 21) || !nearly(got.Humidity, 45) {
		t.Fatalf("reading = %+v, want 21°C 45%%", got)
	}
	if got.Source != "bme280" {
		t.Fatalf("source = %q", got.Source)
	}
}

func TestMockReader(t *testing.T) {
	start := fixedNow()
	now := start
	m := &mockSource{start: start, now: func() time.Time { return now }}

	for i := 0; i < 50; i++ {
		r, err := m.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if r.Temperature < 19 || r.Temperature > 25 || r.Humidity < 40 || r.Humidity > 60 {
			t.Fatalf("reading out of range: %+v", r)
		}
		now = now.Add(7 * time.Second)
	}
}

func TestOpenMockAndUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.SensorType = config.SensorMock
	r, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open(mock): %v", err)
	}
	defer r.Close()
	if _, err := r.Read(); err != nil {
		t.Fatalf("mock Read: %v", err)
	}

	cfg.SensorType = "thermocouple"
	if _, err := Open(cfg); err == nil {
		t.Fatal("expected error for unknown sensor type")
	}
}
