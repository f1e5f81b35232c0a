//go:build !linux

package main

import "log/slog"

// lircEmitter is never present outside Linux.
type lircEmitter struct{}

func newLIRCEmitter(path string, dutyCycle int, logger *slog.Logger) *lircEmitter {
	return &lircEmitter{}
}

func (l *lircEmitter) Present() bool { return false }

func (l *lircEmitter) Transmit(frequency int, pattern []int) error { return errNoEmitter }

func (l *lircEmitter) Close() error { return nil }
