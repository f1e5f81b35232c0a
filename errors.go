package main

import (
	"fmt"
	"log/slog"
)

// Kind classifies a failure for logging and notification.
type Kind string

const (
	KindLoadIO          Kind = "LoadIOError"
	KindLoadSchema      Kind = "LoadSchemaError"
	KindLoadUnknown     Kind = "LoadUnknownError"
	KindEmitterMissing  Kind = "TransmitCapabilityMissing"
	KindTransmitRuntime Kind = "TransmitRuntimeError"
)

// Error is a classified failure. Index is the zero-based command index for
// transmit failures and -1 otherwise.
type Error struct {
	Kind  Kind
	Index int
	Err   error
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at command %d: %v", e.Kind, e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// userMessage is the text shown to the user for each kind.
func (e *Error) userMessage() string {
	switch e.Kind {
	case KindLoadIO:
		return "Could not read the IR command file."
	case KindLoadSchema:
		return "The IR command file has an invalid JSON format."
	case KindLoadUnknown:
		return "Failed to load IR commands."
	case KindEmitterMissing:
		return "No IR blaster found on this device!"
	case KindTransmitRuntime:
		return "Failed to send IR commands: " + e.Err.Error()
	}
	return e.Error()
}

// reporter turns a classified error into one log entry and one notification.
type reporter struct {
	logger   *slog.Logger
	notifier Notifier
}

func newReporter(logger *slog.Logger, n Notifier) *reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = nopNotifier{}
	}
	return &reporter{logger: logger, notifier: n}
}

func (r *reporter) report(e *Error) {
	attrs := []any{"kind", string(e.Kind), "err", e.Err}
	if e.Index >= 0 {
		attrs = append(attrs, "index", e.Index)
	}
	r.logger.Error(e.userMessage(), attrs...)
	r.notifier.Notify(appName, e.userMessage())
}

func (r *reporter) with(args ...any) *reporter {
	return &reporter{logger: r.logger.With(args...), notifier: r.notifier}
}
