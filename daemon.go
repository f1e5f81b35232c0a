package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

func socketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, "blackout.sock")
}

// session is the daemon's mutable state. It is only touched with daemon.mu
// held.
type session struct {
	active   bool
	sending  bool
	progress float64
	run      string // ID of the current or last run
	file     string // command file, empty for the bundled one
	commands CommandSet
}

func (s *session) state() SessionState {
	switch {
	case s.sending:
		return StateSending
	case s.active:
		return StateActive
	}
	return StateIdle
}

type daemon struct {
	cfg     Config
	emitter Emitter
	rep     *reporter
	logger  *slog.Logger

	mu      sync.Mutex
	sess    session
	closing bool // no new runs once set
	runs    sync.WaitGroup
}

func newDaemon(cfg Config, e Emitter, rep *reporter) *daemon {
	d := &daemon{cfg: cfg, emitter: e, rep: rep, logger: rep.logger}
	d.sess.file = cfg.Commands
	d.sess.commands = LoadCommandFile(d.sess.file, rep)
	return d
}

func (d *daemon) statusLocked() IPCResponse {
	return IPCResponse{
		State:    string(d.sess.state()),
		Progress: d.sess.progress,
		Commands: len(d.sess.commands),
		Run:      d.sess.run,
	}
}

func (d *daemon) handleRequest(req IPCRequest) IPCResponse {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch req.Command {
	case "status":
		return d.statusLocked()

	case "toggle":
		// Presses are ignored while a run is on the air.
		if d.sess.sending {
			return d.statusLocked()
		}
		if d.closing {
			resp := d.statusLocked()
			resp.Error = "daemon is shutting down"
			return resp
		}
		d.sess.active = !d.sess.active
		if d.sess.active {
			d.sess.sending = true
			d.sess.progress = 0
			d.sess.run = uuid.NewString()
			d.logger.Info("blackout started", "run", d.sess.run, "commands", len(d.sess.commands))
			d.runs.Add(1)
			go d.transmit(d.sess.run, d.sess.commands)
		} else {
			d.logger.Info("blackout stopped")
		}
		return d.statusLocked()

	case "reload":
		if d.sess.sending {
			resp := d.statusLocked()
			resp.Error = "cannot reload while sending"
			return resp
		}
		d.sess.file = resolveCommandFile(d.cfg, req.File)
		d.sess.commands = LoadCommandFile(d.sess.file, d.rep)
		return d.statusLocked()

	default:
		return IPCResponse{Error: fmt.Sprintf("unknown command: %q", req.Command)}
	}
}

// transmit runs one dispatcher run. The command set is never modified after
// loading, so it is safe to read without the lock.
func (d *daemon) transmit(run string, set CommandSet) {
	defer d.runs.Done()

	rep := d.rep.with("run", run)
	disp := newDispatcher(d.emitter, rep, d.cfg.delay())
	disp.Run(set,
		func(progress float64) {
			d.mu.Lock()
			d.sess.progress = progress
			d.mu.Unlock()
		},
		func(active bool) {
			d.mu.Lock()
			d.sess.active = active
			d.sess.sending = false
			d.mu.Unlock()
			rep.logger.Info("blackout finished")
		},
	)
}

func (d *daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	var req IPCRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp := IPCResponse{Error: "invalid request: " + err.Error()}
		json.NewEncoder(conn).Encode(resp)
		return
	}

	resp := d.handleRequest(req)
	json.NewEncoder(conn).Encode(resp)
}

// serve accepts connections until ln is closed, then shuts down.
func (d *daemon) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed by shutdown.
			break
		}
		go d.handleConn(conn)
	}
	d.shutdown()
}

// shutdown refuses further runs and waits for an in-flight one to finish.
// Connections still being handled cannot start a run after this point.
func (d *daemon) shutdown() {
	d.mu.Lock()
	d.closing = true
	d.mu.Unlock()
	d.runs.Wait()
}

func runDaemon(cfg Config, logger *slog.Logger) error {
	notifier, closeNotifier := newNotifier(cfg.Notify, os.Stderr, logger)
	defer closeNotifier()

	emitter := newLIRCEmitter(cfg.Device, cfg.DutyCycle, logger)
	defer emitter.Close()

	sock := socketPath()
	os.Remove(sock) // remove stale socket
	ln, err := net.Listen("unix", sock)
	if err != nil {
		return fmt.Errorf("listen %s: %w", sock, err)
	}
	os.Chmod(sock, 0700)
	defer os.Remove(sock)
	defer ln.Close()

	d := newDaemon(cfg, emitter, newReporter(logger, notifier))

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down")
		ln.Close()
	}()

	logger.Info("listening", "socket", sock, "device", cfg.Device)
	d.serve(ln)
	return nil
}
