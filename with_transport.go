package mcpstdio

import (
	"context"
	"fmt"
)

// WithTransport manages transport lifecycle with automatic cleanup.
//
// It creates a transport for command, starts it, runs fn, and shuts the
// child down gracefully when fn returns. A shutdown failure is logged but
// does not override the callback's error.
//
// Example usage:
//
//	err := mcpstdio.WithTransport(ctx, "my-server", nil, func(t mcpstdio.Transport) error {
//	    if err := t.Send(ctx, request); err != nil {
//	        return err
//	    }
//	    for ev := range t.Events() {
//	        // process event...
//	    }
//	    return nil
//	},
//	    mcpstdio.WithLogger(log),
//	)
func WithTransport(
	ctx context.Context,
	command string,
	args []string,
	fn func(Transport) error,
	opts ...Option,
) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	tr := NewTransport(command, args, opts...)
	if err := tr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.WithoutCancel(ctx),
			options.EffectiveGracePeriod()+connectionCloseSlack,
		)
		defer cancel()

		if err := tr.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shut down transport", "error", err)
		}
	}()

	return fn(tr)
}
