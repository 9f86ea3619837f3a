// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestRunFailureFlushesLogAndReturnsOne(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	dir := t.TempDir()
	logPath := filepath.Join(dir, "dashboard.log")
	cfg := "SENSOR_TYPE=mock\nBUTTON_PIN=\nLED_PIN=\n" +
		"WEB_SERVER_PORT=" + strconv.Itoa(port) + "\n" +
		"LOG_FILE=" + logPath + "\n"
	cfgPath := filepath.Join(dir, "cfg.txt")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{"-config", cfgPath}); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}

	got, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(got), "fatal:") {
		t.Fatalf("log file missing fatal line:\n%s", got)
	}
}

func TestRunBadFlag(t *testing.T) {
	if code := run([]string{"-nope"}); code != 2 {
		t.Fatalf("run = %d, want 2", code)
	}
}
