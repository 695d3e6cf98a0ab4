package config

import (
	"log/slog"
	"time"
)

const (
	// DefaultGracePeriod is how long Shutdown waits for the child to exit
	// on its own after stdin is closed, before killing it.
	DefaultGracePeriod = 2 * time.Second

	// DefaultMaxFrameSize is the largest inbound record accepted by default.
	DefaultMaxFrameSize = 16 * 1024 * 1024 // 16MB

	// DefaultEventBufferSize is the capacity of the event channel.
	DefaultEventBufferSize = 64
)

// Options configures a stdio transport.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Env holds environment variables for the child, applied on top of
	// the parent environment.
	Env map[string]string

	// Dir is the working directory of the child.
	// If empty, the child inherits the current working directory.
	Dir string

	// Stderr is called with every line the child writes to stderr.
	Stderr func(line string)

	// GracePeriod bounds how long Shutdown waits before killing the child.
	// Zero selects DefaultGracePeriod.
	GracePeriod time.Duration

	// MaxFrameSize limits the size of a single inbound record.
	// Zero selects DefaultMaxFrameSize; a negative value disables the limit.
	MaxFrameSize int

	// EventBufferSize is the capacity of the event channel.
	// Zero selects DefaultEventBufferSize.
	EventBufferSize int

	// SearchPaths are extra directories searched for a bare command name
	// after $PATH.
	SearchPaths []string
}

// EffectiveGracePeriod returns GracePeriod or its default.
func (o *Options) EffectiveGracePeriod() time.Duration {
	if o.GracePeriod > 0 {
		return o.GracePeriod
	}

	return DefaultGracePeriod
}

// EffectiveMaxFrameSize returns the frame limit, 0 meaning unlimited.
func (o *Options) EffectiveMaxFrameSize() int {
	switch {
	case o.MaxFrameSize > 0:
		return o.MaxFrameSize
	case o.MaxFrameSize < 0:
		return 0
	default:
		return DefaultMaxFrameSize
	}
}

// EffectiveEventBufferSize returns EventBufferSize or its default.
func (o *Options) EffectiveEventBufferSize() int {
	if o.EventBufferSize > 0 {
		return o.EventBufferSize
	}

	return DefaultEventBufferSize
}
