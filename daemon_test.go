package main

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDaemon(t *testing.T, e Emitter) (*daemon, *mockNotifier) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tv.json")
	require.NoError(t, os.WriteFile(path, []byte(threeCommands), 0o600))
	cfg := defaultConfig()
	cfg.Commands = path
	rep, _, n := newTestReporter(t)
	d := newDaemon(cfg, e, rep)
	t.Cleanup(d.runs.Wait)
	return d, n
}

func waitForState(t *testing.T, d *daemon, want SessionState) IPCResponse {
	t.Helper()
	var resp IPCResponse
	require.Eventually(t, func() bool {
		resp = d.handleRequest(IPCRequest{Command: "status"})
		return resp.State == string(want)
	}, 2*time.Second, 5*time.Millisecond)
	return resp
}

func TestDaemonStatusInitial(t *testing.T) {
	d, _ := newTestDaemon(t, newGatedEmitter())

	resp := d.handleRequest(IPCRequest{Command: "status"})

	assert.Equal(t, IPCResponse{State: "idle", Commands: 3}, resp)
}

func TestDaemonToggleRunsToCompletion(t *testing.T) {
	em := newGatedEmitter()
	d, n := newTestDaemon(t, em)

	resp := d.handleRequest(IPCRequest{Command: "toggle"})
	require.Equal(t, "sending", resp.State)
	require.NotEmpty(t, resp.Run)
	assert.Zero(t, resp.Progress)

	// Presses while sending are ignored.
	again := d.handleRequest(IPCRequest{Command: "toggle"})
	assert.Equal(t, "sending", again.State)
	assert.Equal(t, resp.Run, again.Run)

	close(em.gate)
	done := waitForState(t, d, StateIdle)

	assert.Equal(t, 1.0, done.Progress)
	assert.Equal(t, resp.Run, done.Run)
	assert.Equal(t, []int{38000, 40000, 36000}, em.sentFrequencies())
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDaemonToggleStartsNewRun(t *testing.T) {
	em := newGatedEmitter()
	close(em.gate)
	d, _ := newTestDaemon(t, em)

	first := d.handleRequest(IPCRequest{Command: "toggle"})
	waitForState(t, d, StateIdle)
	second := d.handleRequest(IPCRequest{Command: "toggle"})
	waitForState(t, d, StateIdle)

	assert.NotEqual(t, first.Run, second.Run)
	assert.Len(t, em.sentFrequencies(), 6)
}

func TestDaemonToggleWithoutEmitter(t *testing.T) {
	em := &mockEmitter{}
	em.Test(t)
	em.On("Present").Return(false)
	d, n := newTestDaemon(t, em)
	n.On("Notify", appName, "No IR blaster found on this device!").Once()

	d.handleRequest(IPCRequest{Command: "toggle"})
	resp := waitForState(t, d, StateIdle)

	assert.Zero(t, resp.Progress)
	em.AssertNotCalled(t, "Transmit", mock.Anything, mock.Anything)
	n.AssertExpectations(t)
}

func TestDaemonReload(t *testing.T) {
	d, n := newTestDaemon(t, newGatedEmitter())

	other := filepath.Join(t.TempDir(), "one.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"commands": [{"frequency": 38000, "pattern": [1]}]}`), 0o600))
	resp := d.handleRequest(IPCRequest{Command: "reload", File: other})
	assert.Empty(t, resp.Error)
	assert.Equal(t, 1, resp.Commands)

	n.On("Notify", appName, mock.Anything).Once()
	resp = d.handleRequest(IPCRequest{Command: "reload", File: filepath.Join(t.TempDir(), "missing.json")})
	assert.Empty(t, resp.Error)
	assert.Zero(t, resp.Commands)
	n.AssertExpectations(t)

	// Without a file the configured one is used again.
	resp = d.handleRequest(IPCRequest{Command: "reload"})
	assert.Equal(t, 3, resp.Commands)
}

func TestDaemonReloadWhileSending(t *testing.T) {
	em := newGatedEmitter()
	d, _ := newTestDaemon(t, em)
	d.handleRequest(IPCRequest{Command: "toggle"})

	resp := d.handleRequest(IPCRequest{Command: "reload"})

	assert.Equal(t, "cannot reload while sending", resp.Error)
	assert.Equal(t, "sending", resp.State)
	close(em.gate)
	waitForState(t, d, StateIdle)
}

func TestDaemonToggleRefusedAfterShutdown(t *testing.T) {
	em := newGatedEmitter()
	close(em.gate)
	d, _ := newTestDaemon(t, em)

	d.shutdown()
	resp := d.handleRequest(IPCRequest{Command: "toggle"})

	assert.Equal(t, "daemon is shutting down", resp.Error)
	assert.Equal(t, "idle", resp.State)
	assert.Empty(t, resp.Run)
	assert.Empty(t, em.sentFrequencies())
}

func TestDaemonShutdownWaitsForRun(t *testing.T) {
	em := newGatedEmitter()
	d, _ := newTestDaemon(t, em)
	d.handleRequest(IPCRequest{Command: "toggle"})

	stopped := make(chan struct{})
	go func() {
		d.shutdown()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("shutdown returned while a run was on the air")
	case <-time.After(50 * time.Millisecond):
	}

	close(em.gate)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return after the run finished")
	}
	assert.Len(t, em.sentFrequencies(), 3)
	assert.Equal(t, "idle", d.handleRequest(IPCRequest{Command: "status"}).State)
}

func TestDaemonUnknownCommand(t *testing.T) {
	d, _ := newTestDaemon(t, newGatedEmitter())

	resp := d.handleRequest(IPCRequest{Command: "explode"})

	assert.Equal(t, `unknown command: "explode"`, resp.Error)
}

func TestDaemonHandleConnInvalidRequest(t *testing.T) {
	d, _ := newTestDaemon(t, newGatedEmitter())
	client, server := net.Pipe()
	go d.handleConn(server)
	defer client.Close()

	_, err := client.Write([]byte("not json\n"))
	require.NoError(t, err)
	var resp IPCResponse
	require.NoError(t, json.NewDecoder(client).Decode(&resp))

	assert.Contains(t, resp.Error, "invalid request")
}

func TestDaemonServeOverSocket(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	em := newGatedEmitter()
	close(em.gate)
	d, _ := newTestDaemon(t, em)

	ln, err := net.Listen("unix", socketPath())
	require.NoError(t, err)
	served := make(chan struct{})
	go func() {
		d.serve(ln)
		close(served)
	}()

	resp, err := ipcCall(IPCRequest{Command: "status"})
	require.NoError(t, err)
	assert.Equal(t, "idle", resp.State)
	assert.Equal(t, 3, resp.Commands)

	resp, err = ipcCall(IPCRequest{Command: "toggle"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Run)

	ln.Close()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after listener close")
	}
	assert.Len(t, em.sentFrequencies(), 3)
}

func TestIPCCallWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	_, err := ipcCall(IPCRequest{Command: "status"})

	assert.ErrorContains(t, err, "is `blackout daemon` running?")
}
