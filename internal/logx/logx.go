// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package logx provides the process-wide diagnostic sink used by the
// render graph compiler (spec.md §6, Logger collaborator).
package logx

import (
	"sync"

	"go.uber.org/zap"
)

// Sink is the interface the compiler uses for diagnostics. It is
// injected so tests can observe what compile() logs without depending
// on a concrete logging backend.
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// zapSink adapts a *zap.SugaredLogger to Sink.
type zapSink struct{ l *zap.SugaredLogger }

func (s zapSink) Infof(format string, args ...any)  { s.l.Infof(format, args...) }
func (s zapSink) Warnf(format string, args ...any)  { s.l.Warnf(format, args...) }
func (s zapSink) Errorf(format string, args ...any) { s.l.Errorf(format, args...) }

var (
	mu      sync.Mutex
	sink    Sink
	started bool
)

// Start initializes the process-wide sink. Calling Start again before
// Shutdown replaces the current sink.
func Start() error {
	mu.Lock()
	defer mu.Unlock()
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	sink = zapSink{l.Sugar()}
	started = true
	return nil
}

// SetSink installs a caller-provided Sink, bypassing zap entirely.
// Tests use this to install a recording sink.
func SetSink(s Sink) {
	mu.Lock()
	defer mu.Unlock()
	sink = s
	started = true
}

// Shutdown flushes and releases the process-wide sink.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if z, ok := sink.(zapSink); ok {
		_ = z.l.Sync()
	}
	sink = nil
	started = false
}

// Get returns the process-wide sink, starting a default one if none
// has been installed yet.
func Get() Sink {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		mu.Unlock()
		_ = Start()
		mu.Lock()
	}
	return sink
}
