// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

// maxSentencesPerRead bounds how many lines one Read consumes before
// giving up with ErrNoReading.
const maxSentencesPerRead = 32

// Raw field positions in MDA and XDR sentences.
const (
	mdaAirTempField     = 4
	mdaRelativeHumField = 8
	xdrGroupSize        = 4 // type, value, unit, name
)

// nmeaReader extracts readings from a stream of NMEA 0183 weather
// sentences: MDA (meteorological composite) or XDR (transducer values).
type nmeaReader struct {
	port   io.ReadCloser
	reader *bufio.Reader
	now    func() time.Time
}

// OpenSerial opens a serial weather sensor that emits NMEA sentences.
func OpenSerial(portName string, baudRate int) (Reader, error) {
	serialOpts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        uint(baudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 0,
		ParityMode:      serial.PARITY_NONE,
		// ms; keeps a silent sensor from blocking the main loop forever
		InterCharacterTimeout: 2000,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", portName, err)
	}
	log.Printf("sensors: serial sensor opened on %s at %d baud", portName, baudRate)

	return newNMEAReader(port), nil
}

func newNMEAReader(port io.ReadCloser) *nmeaReader {
	return &nmeaReader{
		port:   port,
		reader: bufio.NewReader(port),
		now:    time.Now,
	}
}

func (s *nmeaReader) Read() (env.Reading, error) {
	var (
		temp, hum         float64
		haveTemp, haveHum bool
	)

	for i := 0; i < maxSentencesPerRead; i++ {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			return env.Reading{}, fmt.Errorf("serial read: %w", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, perr := nmea.Parse(line)
		if perr != nil {
			// partial sentences are normal right after the port opens
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeMDA:
			// go-nmea reports an empty field as 0, so check the raw text
			m := sentence.(nmea.MDA)
			if m.AirTempValid && hasField(m.Fields, mdaAirTempField) {
				temp, haveTemp = m.AirTemp, true
			}
			if hasField(m.Fields, mdaRelativeHumField) {
				hum, haveHum = m.RelativeHum, true
			}

		case nmea.TypeXDR:
			m := sentence.(nmea.XDR)
			for i, meas := range m.Measurements {
				if !hasField(m.Fields, i*xdrGroupSize+1) {
					continue
				}
				switch meas.TransducerType {
				case "C":
					temp, haveTemp = meas.Value, true
				case "H":
					hum, haveHum = meas.Value, true
				}
			}
		}

		if haveTemp && haveHum {
			return s.reading(temp, hum), nil
		}

		if err != nil {
			return env.Reading{}, fmt.Errorf("serial read: %w", err)
		}
	}

	return env.Reading{}, ErrNoReading
}

func hasField(fields []string, i int) bool {
	return i < len(fields) && strings.TrimSpace(fields[i]) != ""
}

func (s *nmeaReader) reading(temp, hum float64) env.Reading {
	return env.Reading{
		Source:      "serial",
		Temperature: temp,
		Humidity:    hum,
		Time:        s.now(),
	}
}

func (s *nmeaReader) Close() error {
	return s.port.Close()
}
