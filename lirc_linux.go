package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// lircEmitter drives a LIRC transmitter character device. The device is
// opened on the first Present call and kept open until Close.
type lircEmitter struct {
	path      string
	dutyCycle int
	logger    *slog.Logger

	mu       sync.Mutex
	f        *os.File
	features uint32
}

func newLIRCEmitter(path string, dutyCycle int, logger *slog.Logger) *lircEmitter {
	if path == "" {
		path = defaultDevice
	}
	return &lircEmitter{path: path, dutyCycle: dutyCycle, logger: logger}
}

func (l *lircEmitter) Present() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return l.features&lircCanSendPulse != 0
	}
	if err := l.open(); err != nil {
		l.logger.Warn("IR emitter unavailable", "device", l.path, "err", err)
		return false
	}
	return l.features&lircCanSendPulse != 0
}

func (l *lircEmitter) open() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	fd := int(f.Fd())
	features, err := unix.IoctlGetUint32(fd, lircGetFeatures)
	if err != nil {
		f.Close()
		return fmt.Errorf("get features of %s: %w", l.path, err)
	}
	if l.dutyCycle > 0 && features&lircCanSetSendDutyCycle != 0 {
		if err := unix.IoctlSetPointerInt(fd, lircSetSendDutyCycle, l.dutyCycle); err != nil {
			f.Close()
			return fmt.Errorf("set duty cycle %d%%: %w", l.dutyCycle, err)
		}
	}
	l.f = f
	l.features = features
	l.logger.Info("IR emitter opened", "device", l.path, "features", fmt.Sprintf("%#x", features))
	return nil
}

func (l *lircEmitter) Transmit(frequency int, pattern []int) error {
	if err := validFrequency(frequency); err != nil {
		return err
	}
	data, gap, err := encodePulses(pattern)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return errNoEmitter
	}
	if l.features&lircCanSetSendCarrier != 0 {
		if err := unix.IoctlSetPointerInt(int(l.f.Fd()), lircSetSendCarrier, frequency); err != nil {
			return fmt.Errorf("set carrier %d Hz: %w", frequency, err)
		}
	}
	// The write returns once the whole frame has been sent.
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	if gap > 0 {
		time.Sleep(gap)
	}
	return nil
}

func (l *lircEmitter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
