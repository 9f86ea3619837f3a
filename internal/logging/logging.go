// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging points the standard logger at stderr and, when
// configured, a size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Writer returns the log destination for cfg and a closer for the file.
func Writer(cfg *config.Config, stderr io.Writer) (io.Writer, io.Closer) {
	if cfg.LogFile == "" {
		return stderr, nopCloser{}
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		LocalTime:  true,
	}
	return io.MultiWriter(stderr, rotating), rotating
}

// Setup redirects the standard logger. Close the result on exit.
func Setup(cfg *config.Config) io.Closer {
	w, closer := Writer(cfg, os.Stderr)
	log.SetOutput(w)
	if cfg.LogFile != "" {
		log.Printf("logging to %s (rotate at %d MB, keep %d)", cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	}
	return closer
}
