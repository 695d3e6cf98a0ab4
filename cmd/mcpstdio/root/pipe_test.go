package root

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

// echoTransport is an in-memory transport that answers every message with
// itself.
type echoTransport struct {
	mu        sync.Mutex
	sent      []string
	events    chan mcpstdio.Event
	done      chan struct{}
	closeOnce sync.Once
	state     mcpstdio.State
}

var _ mcpstdio.Transport = (*echoTransport)(nil)

func newEchoTransport() *echoTransport {
	return &echoTransport{
		events: make(chan mcpstdio.Event, 16),
		done:   make(chan struct{}),
		state:  mcpstdio.StateRunning,
	}
}

func (e *echoTransport) Start(context.Context) error { return nil }

func (e *echoTransport) Send(_ context.Context, message any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != mcpstdio.StateRunning {
		return mcpstdio.ErrNotRunning
	}

	raw, ok := message.(json.RawMessage)
	if !ok {
		return nil
	}

	e.sent = append(e.sent, string(raw))
	e.events <- mcpstdio.Event{Kind: mcpstdio.EventMessage, Message: raw}

	return nil
}

func (e *echoTransport) Events() <-chan mcpstdio.Event { return e.events }

func (e *echoTransport) closeWith(err error) {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.state = mcpstdio.StateClosed
		e.mu.Unlock()

		e.events <- mcpstdio.Event{Kind: mcpstdio.EventClosed, Err: err}
		close(e.events)
		close(e.done)
	})
}

func (e *echoTransport) Close() error {
	e.closeWith(nil)

	return nil
}

func (e *echoTransport) Shutdown(context.Context) error {
	e.closeWith(nil)

	return nil
}

func (e *echoTransport) Done() <-chan struct{} { return e.done }

func (e *echoTransport) State() mcpstdio.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

func (e *echoTransport) ID() string { return "echo" }

func TestRunPipe_ForwardsLinesAndShutsDown(t *testing.T) {
	tr := newEchoTransport()
	in := strings.NewReader("{\"a\":1}\n\n   \n{\"b\":2}\n")

	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, runPipe(ctx, tr, in, &out, 0))
	require.Equal(t, "{\"a\":1}\n{\"b\":2}\n", out.String())
	require.Equal(t, []string{`{"a":1}`, `{"b":2}`}, tr.sent)
	require.Equal(t, mcpstdio.StateClosed, tr.State())
}

func TestRunPipe_ReturnsUnexpectedExit(t *testing.T) {
	tr := newEchoTransport()
	exitErr := &mcpstdio.ProcessExitError{ExitCode: 2}

	var out bytes.Buffer

	go tr.closeWith(exitErr)

	err := runPipe(context.Background(), tr, strings.NewReader(""), &out, time.Hour)
	require.ErrorIs(t, err, exitErr)
	require.Empty(t, out.String())
}

func TestRunPipe_Interrupted(t *testing.T) {
	tr := newEchoTransport()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runPipe(ctx, tr, strings.NewReader(""), &bytes.Buffer{}, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, mcpstdio.StateClosed, tr.State())
}
