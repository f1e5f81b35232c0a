package main

import (
	"errors"
	"log/slog"
	"time"
)

// DefaultDelay paces consecutive transmissions.
const DefaultDelay = 500 * time.Microsecond

var errNoEmitter = errors.New("no IR emitter available")

// Emitter is an infrared transmitter provided by the host.
type Emitter interface {
	// Present reports whether the emitter exists and can transmit.
	Present() bool
	// Transmit sends one pattern on the given carrier and returns once it is
	// on the air.
	Transmit(frequency int, pattern []int) error
}

// Dispatcher transmits a CommandSet through an Emitter, one record at a time.
// A run is not cancellable: it ends after the last record or at the first
// failed one. Callers must not start a second run while one is in progress.
type Dispatcher struct {
	emitter Emitter
	rep     *reporter
	delay   time.Duration
	sleep   func(time.Duration)
}

func newDispatcher(e Emitter, rep *reporter, delay time.Duration) *Dispatcher {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Dispatcher{emitter: e, rep: rep, delay: delay, sleep: time.Sleep}
}

// Run transmits set in order. onProgress receives (i+1)/len(set) after each
// record. onFinished is called exactly once, always with false: the caller's
// active state ends with the run whether it completed or aborted. The
// returned error is the one already reported, for callers that need an exit
// status.
func (d *Dispatcher) Run(set CommandSet, onProgress func(float64), onFinished func(bool)) error {
	log := d.rep.logger

	if !d.emitter.Present() {
		e := &Error{Kind: KindEmitterMissing, Index: -1, Err: errNoEmitter}
		d.rep.report(e)
		onFinished(false)
		return e
	}

	log.Info("transmitting IR commands", "count", len(set))
	start := time.Now()
	for i, cmd := range set {
		if err := d.emitter.Transmit(cmd.Frequency, cmd.Pattern); err != nil {
			e := &Error{Kind: KindTransmitRuntime, Index: i, Err: err}
			d.rep.report(e)
			onFinished(false)
			return e
		}
		d.sleep(d.delay)
		onProgress(float64(i+1) / float64(len(set)))
		log.Debug("command sent", "index", i, "frequency", cmd.Frequency, "pulses", len(cmd.Pattern))
	}
	log.Info("IR commands sent", "count", len(set), slog.Duration("elapsed", time.Since(start)))
	onFinished(false)
	return nil
}
