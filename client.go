package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
)

func ipcCall(req IPCRequest) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath())
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to daemon: %w (is `blackout daemon` running?)", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// runRequest sends one request to the daemon and prints the response.
func runRequest(req IPCRequest) error {
	resp, err := ipcCall(req)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	return json.NewEncoder(os.Stdout).Encode(resp)
}

func runStatus() error {
	return runRequest(IPCRequest{Command: "status"})
}

func runToggle() error {
	return runRequest(IPCRequest{Command: "toggle"})
}

func runReload(file string) error {
	// The daemon does not share our working directory.
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", file, err)
		}
		file = abs
	}
	return runRequest(IPCRequest{Command: "reload", File: file})
}

// runSend transmits the command file once without going through the daemon.
func runSend(cfg Config, file string, logger *slog.Logger) error {
	notifier, closeNotifier := newNotifier(cfg.Notify, os.Stderr, logger)
	defer closeNotifier()
	rep := newReporter(logger, notifier)

	set := LoadCommandFile(resolveCommandFile(cfg, file), rep)
	if len(set) == 0 {
		return errors.New("no IR commands to send")
	}

	emitter := newLIRCEmitter(cfg.Device, cfg.DutyCycle, logger)
	defer emitter.Close()

	bar := &progressBar{w: os.Stderr, total: len(set)}
	return newDispatcher(emitter, rep, cfg.delay()).Run(set, bar.update, bar.finish)
}

// runCheck loads the command file and prints what would be sent.
func runCheck(cfg Config, file string, logger *slog.Logger) error {
	rep := newReporter(logger, writerNotifier{w: os.Stderr})
	set := LoadCommandFile(resolveCommandFile(cfg, file), rep)
	if len(set) == 0 {
		return errors.New("no IR commands loaded")
	}
	return printSummary(os.Stdout, set)
}

func printSummary(w io.Writer, set CommandSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFREQUENCY\tPULSES\tDURATION")
	var total time.Duration
	for i, cmd := range set {
		fmt.Fprintf(tw, "%d\t%d Hz\t%d\t%s\n", i+1, cmd.Frequency, len(cmd.Pattern), cmd.Duration())
		total += cmd.Duration()
	}
	fmt.Fprintf(tw, "\t\t\t%s\n", total)
	return tw.Flush()
}

// progressBar renders dispatcher progress on a terminal line.
type progressBar struct {
	w     io.Writer
	total int
}

const progressWidth = 30

func (p *progressBar) update(progress float64) {
	filled := int(progress * progressWidth)
	fmt.Fprintf(p.w, "\r[%s%s] %3.0f%% (%d/%d)",
		strings.Repeat("#", filled), strings.Repeat(" ", progressWidth-filled),
		progress*100, int(progress*float64(p.total)+0.5), p.total)
}

func (p *progressBar) finish(bool) {
	fmt.Fprintln(p.w)
}
