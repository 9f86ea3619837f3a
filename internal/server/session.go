// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package server runs the device side of the dashboard: a single-goroutine
// loop that polls the refresh button and serves one HTTP connection per
// iteration.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/board"
	"github.com/relabs-tech/sensor_dashboard/internal/dashboard"
	"github.com/relabs-tech/sensor_dashboard/internal/env"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
)

// MaxRequestBytes is the most the handler reads from a client. Requests
// are read once; anything beyond the first read is ignored.
const MaxRequestBytes = 1024

const defaultIOTimeout = 5 * time.Second

const responseHeader = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"Connection: close\r\n" +
	"\r\n"

// Sensor produces one reading per call.
type Sensor interface {
	Read() (env.Reading, error)
}

// Sink is told about every recorded reading and LED change.
// Sink errors are logged and never stop the loop.
type Sink interface {
	ReadingRecorded(r env.Reading) error
	LEDChanged(on bool) error
}

// Options configures a Session. Zero values get defaults.
type Options struct {
	History   *history.Buffer
	Button    board.Button
	LED       board.LED
	Sinks     []Sink
	IOTimeout time.Duration // per-connection read and write deadline
}

// Session owns all device state: history, LED state, listener.
// It is not safe for concurrent use; Run drives it from one goroutine.
type Session struct {
	acceptor  Acceptor
	sensor    Sensor
	history   *history.Buffer
	button    board.Button
	led       board.LED
	ledOn     bool
	sinks     []Sink
	ioTimeout time.Duration
}

// NewSession wires a session. The LED starts off.
func NewSession(acceptor Acceptor, sensor Sensor, opts Options) *Session {
	s := &Session{
		acceptor:  acceptor,
		sensor:    sensor,
		history:   opts.History,
		button:    opts.Button,
		led:       opts.LED,
		sinks:     opts.Sinks,
		ioTimeout: opts.IOTimeout,
	}
	if s.history == nil {
		s.history = history.New(history.MaxLog)
	}
	if s.button == nil {
		s.button = board.NoButton{}
	}
	if s.led == nil {
		s.led = board.NoLED{}
	}
	if s.ioTimeout <= 0 {
		s.ioTimeout = defaultIOTimeout
	}
	if err := s.led.Set(false); err != nil {
		log.Printf("dashboard: LED init error: %v", err)
	}
	return s
}

// History returns the session's buffer.
func (s *Session) History() *history.Buffer { return s.history }

// LEDOn reports the current LED state.
func (s *Session) LEDOn() bool { return s.ledOn }

// Sample reads the sensor and records the reading. A failed read is
// logged and skipped; the history keeps its previous contents.
func (s *Session) Sample() (env.Reading, bool) {
	r, err := s.sensor.Read()
	if err != nil {
		log.Printf("dashboard: sensor read error (keeping previous history): %v", err)
		return env.Reading{}, false
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}

	s.history.Record(r)
	for _, sink := range s.sinks {
		if err := sink.ReadingRecorded(r); err != nil {
			log.Printf("dashboard: sink error (reading): %v", err)
		}
	}
	return r, true
}

// ToggleLED flips the LED state and returns the new state. The state
// flips even if driving the pin fails.
func (s *Session) ToggleLED() bool {
	s.ledOn = !s.ledOn
	if err := s.led.Set(s.ledOn); err != nil {
		log.Printf("dashboard: LED set error: %v", err)
	}
	log.Printf("dashboard: LED %s", onOff(s.ledOn))

	for _, sink := range s.sinks {
		if err := sink.LEDChanged(s.ledOn); err != nil {
			log.Printf("dashboard: sink error (LED): %v", err)
		}
	}
	return s.ledOn
}

// Perform carries out a classified action. Every action samples the
// sensor; ActionToggleLED flips the LED first.
func (s *Session) Perform(a dashboard.Action) {
	if a == dashboard.ActionToggleLED {
		s.ToggleLED()
	}
	s.Sample()
}

// Handle services one client connection and always closes it.
func (s *Session) Handle(conn net.Conn) error {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.ioTimeout)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	buf := make([]byte, MaxRequestBytes)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read request: %w", err)
	}

	request := string(buf[:n])
	line := dashboard.RequestLine(request)
	action := dashboard.Classify(line)
	log.Printf("dashboard: request %q -> %s", line, action)

	s.Perform(action)

	var resp bytes.Buffer
	resp.WriteString(responseHeader)
	if err := s.renderPage(&resp); err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.ioTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write(resp.Bytes()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Session) renderPage(w io.Writer) error {
	latest, have := s.history.Latest()
	data, err := dashboard.NewPageData(latest, have, s.ledOn, s.history.Snapshot())
	if err != nil {
		return err
	}
	return dashboard.Render(w, data)
}

// Step runs one loop iteration: poll the button, then one accept cycle.
// It returns false once the listener is closed.
func (s *Session) Step() bool {
	if s.button.Pressed() {
		log.Println("dashboard: button pressed, sampling")
		s.Sample()
	}

	res := s.acceptor.Accept()
	switch res.Kind {
	case AcceptOK:
		log.Printf("dashboard: connection from %s", res.Conn.RemoteAddr())
		if err := s.Handle(res.Conn); err != nil {
			log.Printf("dashboard: connection error: %v", err)
		}
	case AcceptTimeout:
		// nothing to serve this cycle
	case AcceptError:
		log.Printf("dashboard: accept error: %v", res.Err)
	case AcceptClosed:
		return false
	}
	return true
}

// Run loops until ctx is cancelled, which closes the listener. It
// returns nil on cancellation and an error if the listener closes on its
// own.
func (s *Session) Run(ctx context.Context) error {
	log.Printf("dashboard: serving on %s", s.acceptor.Addr())

	stop := context.AfterFunc(ctx, func() {
		s.acceptor.Close()
	})
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if !s.Step() {
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("dashboard: listener closed")
		}
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
