package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnError(t *testing.T) {
	root := errors.New("permission denied")
	err := &SpawnError{Command: "/bin/server", Err: root}

	require.Equal(t, `spawn "/bin/server": permission denied`, err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsTransportError())
}

func TestCommandNotFoundError(t *testing.T) {
	err := &CommandNotFoundError{
		Command:       "node",
		SearchedPaths: []string{"$PATH", "/usr/local/bin/node"},
	}

	require.Equal(t, `executable "node" not found in: [$PATH /usr/local/bin/node]`, err.Error())
	require.True(t, err.IsTransportError())

	wrapped := &SpawnError{Command: "node", Err: err}

	notFound, ok := errors.AsType[*CommandNotFoundError](wrapped)
	require.True(t, ok)
	require.Equal(t, "node", notFound.Command)
}

func TestWriteError(t *testing.T) {
	root := errors.New("broken pipe")
	err := &WriteError{Err: root}

	require.Equal(t, "write to stdin: broken pipe", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsTransportError())
}

func TestDecodeError(t *testing.T) {
	root := errors.New("invalid character 'x'")
	err := NewDecodeError([]byte(`{x}`), root)

	require.Equal(t, "failed to decode JSON frame: invalid character 'x'", err.Error())
	require.Equal(t, `{x}`, err.Line)
	require.ErrorIs(t, err, root)
	require.True(t, err.IsTransportError())
}

func TestDecodeError_TruncatesLongLines(t *testing.T) {
	line := []byte(strings.Repeat("a", 1000))
	err := NewDecodeError(line, ErrFrameTooLarge)

	require.Len(t, err.Line, maxLineInError+3)
	require.True(t, strings.HasSuffix(err.Line, "..."))
	require.Equal(t, strings.Repeat("a", 1000), string(line), "input must not be modified")
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestStreamError(t *testing.T) {
	root := errors.New("read failed")
	err := &StreamError{Stream: "stdout", Err: root}

	require.Equal(t, "stdout stream: read failed", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsTransportError())
}

func TestProcessExitError_WithUnderlyingError(t *testing.T) {
	root := errors.New("exit status 3")
	err := &ProcessExitError{ExitCode: 3, Stderr: "boom", Err: root}

	require.Equal(t, "process exited unexpectedly (exit 3): exit status 3", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsTransportError())
}

func TestProcessExitError_CleanExit(t *testing.T) {
	err := &ProcessExitError{}

	require.Equal(t, "process exited unexpectedly (exit 0)", err.Error())
	require.NoError(t, err.Unwrap())
}
