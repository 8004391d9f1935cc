// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/GermanBionicSystems/thermo/internal/config"
)

// New returns the process logger writing to w. Dev builds get human readable
// records, colored only when w is a terminal. Release builds get JSON records
// tagged with the version and the environment.
//
// w must not be the terminal used as display.
func New(cfg config.Config, version string, w io.Writer) *slog.Logger {
	if version == "dev" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level(),
			TimeFormat: "15:04:05.000",
			NoColor:    !isTerminal(w),
		}))
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level()})
	return slog.New(h).With("version", version, "env", cfg.AppEnv)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
