/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wdxlog provides structured JSON logging for the parameter service core, built on zerolog.
package wdxlog

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the logging surface every core component depends on. Components
// never import zerolog directly so a component under test can be handed
// NewTestLogger() without pulling in process-wide logger state.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	// Named returns a child logger tagged with a "component" field, so a
	// log line can be attributed to the component that emitted it
	// (wdxservice and wdxevents each take their own name).
	Named(component string) Logger
	SetDebug(debug bool)
}

type zlogLogger struct {
	z zerolog.Logger
}

// Wrap adapts a zerolog.Logger to the Logger interface.
func Wrap(z zerolog.Logger) Logger {
	return &zlogLogger{z: z}
}

func (l *zlogLogger) Trace() *zerolog.Event { return l.z.Trace() }
func (l *zlogLogger) Debug() *zerolog.Event { return l.z.Debug() }
func (l *zlogLogger) Info() *zerolog.Event  { return l.z.Info() }
func (l *zlogLogger) Warn() *zerolog.Event  { return l.z.Warn() }
func (l *zlogLogger) Error() *zerolog.Event { return l.z.Error() }
func (l *zlogLogger) With() zerolog.Context { return l.z.With() }

func (l *zlogLogger) Named(component string) Logger {
	return &zlogLogger{z: l.z.With().Str("component", component).Logger()}
}

func (l *zlogLogger) SetDebug(debug bool) {
	if debug {
		l.z = l.z.Level(zerolog.DebugLevel)
	} else {
		l.z = l.z.Level(zerolog.InfoLevel)
	}
}

// NewTestLogger returns a Logger that discards all output, for unit tests
// that need to satisfy the Logger dependency without asserting on log lines.
func NewTestLogger() Logger {
	return Wrap(zerolog.New(io.Discard).Level(zerolog.Disabled))
}
