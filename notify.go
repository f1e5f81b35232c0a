package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	notifyBusName = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"

	// Roughly the length of a short toast.
	notifyTimeoutMs = 2000
)

// Notifier shows a short message to the user. It never blocks on or reports
// delivery.
type Notifier interface {
	Notify(summary, body string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

// writerNotifier prints notifications, for terminals and headless hosts.
type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Notify(summary, body string) {
	fmt.Fprintf(n.w, "%s: %s\n", summary, body)
}

// desktopNotifier sends freedesktop notifications over the session D-Bus.
type desktopNotifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

func newDesktopNotifier(logger *slog.Logger) (*desktopNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	// The notification daemon is usually bus-activated, so either list counts.
	var running, activatable []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&running); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list activatable names: %w", err)
	}
	if !slices.Contains(running, notifyBusName) && !slices.Contains(activatable, notifyBusName) {
		conn.Close()
		return nil, fmt.Errorf("%s not found on session bus", notifyBusName)
	}
	return &desktopNotifier{conn: conn, logger: logger}, nil
}

func (n *desktopNotifier) Notify(summary, body string) {
	obj := n.conn.Object(notifyBusName, notifyPath)
	call := obj.Go(notifyMethod, dbus.FlagNoReplyExpected, nil,
		appName,                   // app_name
		uint32(0),                 // replaces_id
		"",                        // app_icon
		summary,                   // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(notifyTimeoutMs),    // expire_timeout
	)
	if call.Err != nil {
		n.logger.Warn("desktop notification failed", "err", call.Err)
	}
}

func (n *desktopNotifier) close() {
	n.conn.Close()
}

// newNotifier picks the desktop notifier when enabled and reachable, falling
// back to printing on w.
func newNotifier(enabled bool, w io.Writer, logger *slog.Logger) (Notifier, func()) {
	if enabled {
		dn, err := newDesktopNotifier(logger)
		if err == nil {
			return dn, dn.close
		}
		logger.Debug("desktop notifications unavailable", "err", err)
	}
	return writerNotifier{w: w}, func() {}
}
