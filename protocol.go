package main

// SessionState is the daemon's blackout state as seen by clients.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateActive  SessionState = "active"
	StateSending SessionState = "sending"
)

// IPCRequest is sent from the CLI client to the daemon.
type IPCRequest struct {
	Command string `json:"command"`        // "status" | "toggle" | "reload"
	File    string `json:"file,omitempty"` // command file for "reload", optional
}

// IPCResponse is sent from the daemon back to the CLI client.
type IPCResponse struct {
	State    string  `json:"state,omitempty"` // "idle", "active", "sending"
	Progress float64 `json:"progress"`        // fraction of the current or last run
	Commands int     `json:"commands"`        // loaded command count
	Run      string  `json:"run,omitempty"`   // ID of the current or last run
	Error    string  `json:"error,omitempty"`
}
