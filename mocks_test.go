package main

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) Present() bool {
	return m.Called().Bool(0)
}

func (m *mockEmitter) Transmit(frequency int, pattern []int) error {
	return m.Called(frequency, pattern).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(summary, body string) {
	m.Called(summary, body)
}

// newTestReporter returns a reporter whose log output is captured in the
// returned buffer. The notifier fails the test on unexpected calls.
func newTestReporter(t *testing.T) (*reporter, *syncBuffer, *mockNotifier) {
	t.Helper()
	buf := &syncBuffer{}
	n := &mockNotifier{}
	n.Test(t)
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return newReporter(logger, n), buf, n
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// gatedEmitter holds every transmission until the test releases it.
type gatedEmitter struct {
	gate chan struct{}

	mu   sync.Mutex
	sent []int
}

func newGatedEmitter() *gatedEmitter {
	return &gatedEmitter{gate: make(chan struct{})}
}

func (g *gatedEmitter) Present() bool { return true }

func (g *gatedEmitter) Transmit(frequency int, pattern []int) error {
	<-g.gate
	g.mu.Lock()
	g.sent = append(g.sent, frequency)
	g.mu.Unlock()
	return nil
}

func (g *gatedEmitter) sentFrequencies() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.sent...)
}
