package mcpstdio

import (
	"log/slog"
	"time"

	"github.com/wagiedev/mcp-stdio-go/internal/config"
)

// Options configures a transport. Use the With* functions to build it.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithEnv adds environment variables for the child process.
// They are applied on top of the parent environment; repeated calls merge.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithDir sets the working directory for the child process.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithStderr sets a callback that receives every stderr line of the child.
// The callback runs on the stderr reader goroutine and should not block.
func WithStderr(fn func(line string)) Option {
	return func(o *Options) {
		o.Stderr = fn
	}
}

// WithGracePeriod sets how long Shutdown waits for the child to exit
// after stdin is closed before killing it.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		o.GracePeriod = d
	}
}

// WithMaxFrameSize limits the size of a single inbound JSON line.
// A negative value disables the limit.
func WithMaxFrameSize(n int) Option {
	return func(o *Options) {
		o.MaxFrameSize = n
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(o *Options) {
		o.EventBufferSize = n
	}
}

// WithSearchPaths adds directories searched for a bare command name
// after $PATH.
func WithSearchPaths(dirs ...string) Option {
	return func(o *Options) {
		o.SearchPaths = append(o.SearchPaths, dirs...)
	}
}
