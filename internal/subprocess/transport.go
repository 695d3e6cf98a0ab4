package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcp-stdio-go/internal/config"
	"github.com/wagiedev/mcp-stdio-go/internal/errors"
	"github.com/wagiedev/mcp-stdio-go/internal/framing"
)

const (
	// readChunkSize is the size of a single read from the child's stdout.
	readChunkSize = 32 * 1024 // 32KB
	// maxStderrLineSize is the longest stderr line handed to the callback.
	// Stderr is still drained past this limit so the child never blocks.
	maxStderrLineSize = 1024 * 1024 // 1MB
	// outputDrainDelay is how long output is still read after the child
	// exited while something else keeps its pipes open.
	outputDrainDelay = 250 * time.Millisecond
)

// Transport implements config.Transport by spawning a child process and
// exchanging newline-delimited JSON over its stdin and stdout.
type Transport struct {
	log            *slog.Logger
	id             string
	command        string
	args           []string
	env            []string
	dir            string
	gracePeriod    time.Duration
	resolver       *resolver
	decoder        *framing.Decoder
	stderrTail     *stderrTail
	stderrCallback func(string) // Callback for streaming stderr output

	mu      sync.Mutex // Protects state, cmd, stdin and closing
	state   config.State
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	closing bool // Whether Close() or Shutdown() has been called (intentional shutdown)

	writeMu sync.Mutex // Serializes stdin writes

	senderMu     sync.RWMutex // Held by Send while reporting; finish takes it exclusively
	senderClosed bool         // Set before EventClosed is queued; Send stops reporting

	events   chan config.Event
	stop     chan struct{} // Closed when delivery must end
	stopOnce sync.Once
	done     chan struct{} // Closed after the child is reaped
}

// Compile-time verification that Transport implements the Transport interface.
var _ config.Transport = (*Transport)(nil)

// NewTransport creates a transport for command and args.
//
// The command, arguments and environment are captured here and never
// change. Nothing is spawned until Start is called.
func NewTransport(
	log *slog.Logger,
	command string,
	args []string,
	options *config.Options,
) *Transport {
	if options == nil {
		options = &config.Options{}
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := ulid.Make().String()
	log = log.With("component", "stdio_transport", "transport_id", id)

	return &Transport{
		log:            log,
		id:             id,
		command:        command,
		args:           slices.Clone(args),
		env:            buildEnv(options.Env),
		dir:            options.Dir,
		gracePeriod:    options.EffectiveGracePeriod(),
		resolver:       &resolver{log: log, extra: slices.Clone(options.SearchPaths), dir: options.Dir},
		decoder:        framing.NewDecoder(options.EffectiveMaxFrameSize()),
		stderrTail:     newStderrTail(maxStderrTailSize),
		stderrCallback: options.Stderr,
		events:         make(chan config.Event, options.EffectiveEventBufferSize()),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// buildEnv layers overrides on the parent environment. exec.Cmd keeps the
// last value of a duplicated key, so appending is enough.
func buildEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	env := os.Environ()
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, key+"="+overrides[key])
	}

	return env
}

// Start spawns the child process.
//
// The executable is resolved, spawned with the configured arguments,
// environment and working directory, and its stdout and stderr are read
// in the background until it exits. The child's lifetime is not bound to
// ctx; use Close or Shutdown to stop it.
//
// Returns SpawnError if the process could not be created, in which case
// the transport stays unstarted and Start may be called again.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case config.StateRunning:
		return errors.ErrAlreadyStarted
	case config.StateClosed:
		return errors.ErrTransportClosed
	}

	t.log.Info("Starting child process", "command", t.command, "args", t.args)

	if err := ctx.Err(); err != nil {
		return &errors.SpawnError{Command: t.command, Err: err}
	}

	path, err := t.resolver.resolve(t.command)
	if err != nil {
		return &errors.SpawnError{Command: t.command, Err: err}
	}

	//nolint:gosec // G204: Launching the configured server command is the purpose of this transport
	cmd := exec.Command(path, t.args...)
	cmd.Dir = t.dir
	cmd.Env = t.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.SpawnError{Command: t.command, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	// Output pipes are created here rather than with StdoutPipe so that
	// Wait neither closes them nor waits on them: a grandchild that
	// inherited stdout must not delay noticing the child's exit.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		t.log.Error("Failed to create stdout pipe", "error", err)
		_ = stdin.Close()

		return &errors.SpawnError{Command: t.command, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, stderrW, err := os.Pipe()
	if err != nil {
		t.log.Error("Failed to create stderr pipe", "error", err)
		closeAll(stdin, stdout, stdoutW)

		return &errors.SpawnError{Command: t.command, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start child process", "error", err)
		closeAll(stdin, stdout, stdoutW, stderr, stderrW)

		return &errors.SpawnError{Command: t.command, Err: err}
	}

	// The child holds its own copies of the write ends.
	closeAll(stdoutW, stderrW)

	t.cmd = cmd
	t.stdin = stdin
	t.state = config.StateRunning
	t.log.Info("Child process started", "pid", cmd.Process.Pid)

	go t.supervise(cmd, stdout, stderr)

	return nil
}

// supervise reaps the child and reads both output streams, then delivers
// the final EventClosed.
//
// The exit is detected by Wait alone. Output already written by the child
// is drained for up to outputDrainDelay afterwards; the read ends are then
// closed even if a grandchild still holds the write ends open.
func (t *Transport) supervise(cmd *exec.Cmd, stdout, stderr *os.File) {
	defer closeAll(stdout, stderr)

	var g errgroup.Group

	g.Go(func() error {
		return t.readStdout(stdout)
	})

	g.Go(func() error {
		t.readStderr(stderr)

		return nil
	})

	var streamErr error

	readersDone := make(chan struct{})

	go func() {
		streamErr = g.Wait()

		close(readersDone)
	}()

	waitErr := cmd.Wait()

	t.log.Debug("Child process exited, draining output")

	timer := time.NewTimer(outputDrainDelay)
	defer timer.Stop()

	select {
	case <-readersDone:
	case <-timer.C:
		t.log.Debug("Output still open after exit, closing pipes", "drain_delay", outputDrainDelay)
		closeAll(stdout, stderr)

		<-readersDone
	}

	t.finish(cmd, streamErr, waitErr)
}

// closeAll closes every closer, ignoring errors.
func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// readStdout feeds stdout chunks to the decoder and delivers the frames.
//
// Once delivery has stopped the stream is still drained, so a child that
// is being shut down gracefully never blocks on a full pipe.
func (t *Transport) readStdout(stdout io.Reader) error {
	defer t.log.Debug("Stdout reader stopped")

	buf := make([]byte, readChunkSize)
	delivering := true
	messageCount := 0

	for {
		n, err := stdout.Read(buf)

		if n > 0 && delivering {
			for _, frame := range t.decoder.Feed(buf[:n]) {
				event := config.Event{Kind: config.EventMessage, Message: frame.Message}

				if frame.Err != nil {
					t.log.Warn("Skipping malformed frame", "error", frame.Err)

					event = config.Event{Kind: config.EventError, Err: frame.Err}
				} else {
					messageCount++
					t.log.Debug("Received message from child", "message_count", messageCount)
				}

				if !t.emit(event) {
					t.log.Debug("Delivery stopped, draining remaining output")

					delivering = false

					break
				}
			}
		}

		if err == nil {
			continue
		}

		if stderrors.Is(err, io.EOF) || stderrors.Is(err, os.ErrClosed) || t.isClosing() {
			return nil
		}

		streamErr := &errors.StreamError{Stream: "stdout", Err: err}

		t.log.Error("Failed reading child stdout", "error", err)
		t.emit(config.Event{Kind: config.EventError, Err: streamErr})

		// Without stdout the channel is gone; make sure the child follows.
		if killErr := t.kill(); killErr != nil {
			t.log.Warn("Failed to kill child after stdout error", "error", killErr)
		}

		return streamErr
	}
}

// readStderr forwards stderr lines to the log, the callback and the tail buffer.
func (t *Transport) readStderr(stderr io.Reader) {
	defer t.log.Debug("Stderr reader stopped")

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLineSize)

	for scanner.Scan() {
		line := scanner.Text()

		t.stderrTail.add(line)
		t.log.Debug("Child stderr", "stream", "stderr", "line", line)

		if t.stderrCallback != nil {
			t.stderrCallback(line)
		}
	}

	if err := scanner.Err(); err != nil {
		t.log.Debug("Stderr scanner error, discarding remaining output", "error", err)

		_, _ = io.Copy(io.Discard, stderr)
	}
}

// emit delivers an event unless delivery has been stopped.
func (t *Transport) emit(event config.Event) bool {
	select {
	case <-t.stop:
		return false
	default:
	}

	select {
	case t.events <- event:
		return true
	case <-t.stop:
		return false
	}
}

// finish records the terminal state and delivers EventClosed exactly once.
func (t *Transport) finish(cmd *exec.Cmd, streamErr, waitErr error) {
	t.mu.Lock()
	requested := t.closing
	t.state = config.StateClosed
	t.closing = true
	t.stdin = nil
	t.mu.Unlock()

	if n := t.decoder.Reset(); n > 0 {
		t.log.Debug("Discarding incomplete frame at close", "bytes", n)
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	var cause error

	if requested {
		t.log.Info("Child process stopped", "exit_code", exitCode)
	} else {
		err := waitErr
		if streamErr != nil {
			err = streamErr
		}

		t.log.Warn("Child process exited unexpectedly", "exit_code", exitCode, "error", err)

		cause = &errors.ProcessExitError{
			ExitCode: exitCode,
			Stderr:   t.stderrTail.String(),
			Err:      err,
		}
	}

	// No send error may be queued after EventClosed.
	t.senderMu.Lock()
	t.senderClosed = true
	t.senderMu.Unlock()

	t.deliverClosed(config.Event{Kind: config.EventClosed, Err: cause})
	close(t.events)
	close(t.done)
}

// deliverClosed queues the terminal event. It waits for the consumer until
// delivery is stopped; after that, undelivered events are discarded to make
// room, so a close never hangs on an absent consumer.
func (t *Transport) deliverClosed(event config.Event) {
	select {
	case t.events <- event:
		return
	case <-t.stop:
	}

	for {
		select {
		case t.events <- event:
			return
		default:
		}

		select {
		case stale := <-t.events:
			t.log.Debug("Discarding undelivered event at close", "kind", stale.Kind)
		default:
		}
	}
}

// Send writes message to the child's stdin as one JSON line.
//
// json.RawMessage and []byte values are compacted onto a single line; any
// other value is marshaled. This method is safe for concurrent use; writes
// never interleave and reach the child in the order they were issued.
//
// Returns ErrNotRunning outside the running state and WriteError if the
// write fails, typically because the child has already exited. A write
// failure is also delivered as EventError.
func (t *Transport) Send(ctx context.Context, message any) error {
	t.mu.Lock()
	stdin := t.stdin
	running := t.state == config.StateRunning
	t.mu.Unlock()

	if !running || stdin == nil {
		return errors.ErrNotRunning
	}

	data, err := encodeMessage(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.log.Debug("Sending message to child", "data_len", len(data))

	if _, err := stdin.Write(data); err != nil {
		t.log.Error("Failed to write message to child", "error", err)

		writeErr := &errors.WriteError{Err: err}
		t.reportSendError(writeErr)

		return writeErr
	}

	return nil
}

// reportSendError also delivers a send failure as EventError. It never
// blocks the caller: when the buffer is full the event is dropped, since
// the error is returned from Send anyway.
func (t *Transport) reportSendError(err error) {
	t.senderMu.RLock()
	defer t.senderMu.RUnlock()

	if t.senderClosed {
		return
	}

	select {
	case <-t.stop:
	case t.events <- config.Event{Kind: config.EventError, Err: err}:
	default:
		t.log.Debug("Event buffer full, send error not queued", "error", err)
	}
}

// encodeMessage renders message as a single JSON line ending in '\n'.
func encodeMessage(message any) ([]byte, error) {
	if raw, ok := message.([]byte); ok {
		message = json.RawMessage(raw)
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode compacts raw messages and terminates the value with a newline.
	if err := enc.Encode(message); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Events returns the channel of inbound events.
//
// Consumers should drain it until it is closed. The last value is always
// an EventClosed.
func (t *Transport) Events() <-chan config.Event {
	return t.events
}

// Done is closed once the child has been reaped and EventClosed queued.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// State reports the current lifecycle state.
func (t *Transport) State() config.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// ID returns the unique identifier of this connection.
func (t *Transport) ID() string {
	return t.id
}

// PID returns the child's process ID, or 0 if it was never spawned.
func (t *Transport) PID() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}

	return t.cmd.Process.Pid
}

// Close terminates the child process.
//
// This forcefully kills the child and returns without waiting for it to be
// reaped; use Done or Shutdown for that. No further messages are delivered
// after Close. It's safe to call Close multiple times or on a transport
// that was never started.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case config.StateUnstarted:
		t.state = config.StateClosed
		t.closing = true
		t.stopDelivery()

		t.senderMu.Lock()
		t.senderClosed = true
		t.senderMu.Unlock()

		// Nothing else ever wrote to the channel, so this cannot block.
		t.events <- config.Event{Kind: config.EventClosed}
		close(t.events)
		close(t.done)

		t.log.Debug("Closed transport that was never started")

		return nil

	case config.StateClosed:
		t.stopDelivery()

		return nil
	}

	t.beginCloseLocked()

	if t.cmd != nil && t.cmd.Process != nil {
		t.log.Debug("Killing child process", "pid", t.cmd.Process.Pid)
	}

	return t.killLocked()
}

// Shutdown stops the child gracefully.
//
// Delivery stops and stdin is closed, which asks a well-behaved server to
// exit. If the child is still alive after the grace period it is killed.
// Shutdown returns once the child has been reaped, or with ctx.Err() if
// ctx ends first (the child is killed in that case too).
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()

	switch t.state {
	case config.StateUnstarted:
		t.mu.Unlock()

		return t.Close()

	case config.StateRunning:
		t.log.Debug("Shutting down child process", "grace_period", t.gracePeriod)
		t.beginCloseLocked()

	case config.StateClosed:
		t.stopDelivery()
	}

	t.mu.Unlock()

	timer := time.NewTimer(t.gracePeriod)
	defer timer.Stop()

	select {
	case <-t.done:
		return nil

	case <-ctx.Done():
		if err := t.kill(); err != nil {
			t.log.Warn("Failed to kill child process", "error", err)
		}

		return ctx.Err()

	case <-timer.C:
		t.log.Warn("Child process did not exit within grace period, killing it", "grace_period", t.gracePeriod)
	}

	if err := t.kill(); err != nil {
		return err
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginCloseLocked marks the close as requested, stops delivery and closes
// stdin. Caller must hold t.mu.
func (t *Transport) beginCloseLocked() {
	t.state = config.StateClosed
	t.closing = true
	t.stopDelivery()

	if t.stdin != nil {
		t.log.Debug("Closing stdin pipe")

		if err := t.stdin.Close(); err != nil {
			t.log.Debug("Failed to close stdin pipe", "error", err)
		}

		t.stdin = nil
	}
}

func (t *Transport) stopDelivery() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

func (t *Transport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}

func (t *Transport) kill() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.killLocked()
}

// killLocked sends SIGKILL to the child. Caller must hold t.mu.
func (t *Transport) killLocked() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}

	if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill child process (pid %d): %w", t.cmd.Process.Pid, err)
	}

	return nil
}
