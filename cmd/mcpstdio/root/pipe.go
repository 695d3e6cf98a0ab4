package root

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

// shutdownSlack bounds Shutdown beyond the configured grace period.
const shutdownSlack = 5 * time.Second

var pipeCmd = &cobra.Command{
	Use:   "pipe [-- COMMAND [ARGS...]]",
	Short: "Forward JSON lines from stdin to the server and print what it sends back",
	Long: `pipe starts the server without an MCP handshake. Every non-blank line read
from stdin is sent as one JSON message; every message the server writes is
printed on stdout as one line. When stdin ends the server is given
MCPSTDIO_PIPE_DRAIN to answer before it is shut down.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		own, spec, err := serverFromArgs(cmd, args)
		if err != nil {
			return err
		}

		if len(own) > 0 {
			return fmt.Errorf("unexpected arguments %v", own)
		}

		tr := mcpstdio.NewTransport(spec.Command, spec.Args, transportOptions(spec, cmd.ErrOrStderr())...)
		if err := tr.Start(cmd.Context()); err != nil {
			return err
		}
		defer tr.Close()

		return runPipe(cmd.Context(), tr, os.Stdin, cmd.OutOrStdout(), cfg.Drain)
	},
}

// runPipe shuttles lines between in/out and a started transport until the
// transport closes. It returns the close cause, nil for a requested close.
func runPipe(ctx context.Context, tr mcpstdio.Transport, in io.Reader, out io.Writer, drain time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go forwardInput(ctx, tr, in, drain)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Interrupted, closing transport")

			_ = tr.Close()

			for range tr.Events() {
			}

			return ctx.Err()

		case ev, ok := <-tr.Events():
			if !ok {
				return nil
			}

			switch ev.Kind {
			case mcpstdio.EventMessage:
				if _, err := fmt.Fprintln(out, string(ev.Message)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}

			case mcpstdio.EventError:
				logger.Warn("Server sent an unreadable line", "error", ev.Err)

			case mcpstdio.EventClosed:
				return ev.Err
			}
		}
	}
}

// forwardInput sends each non-blank input line, then shuts the transport
// down once input ends and the drain period has passed.
func forwardInput(ctx context.Context, tr mcpstdio.Transport, in io.Reader, drain time.Duration) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), max(cfg.MaxFrameSize, 1024*1024))

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		err := tr.Send(ctx, json.RawMessage(line))
		if errors.Is(err, mcpstdio.ErrNotRunning) || ctx.Err() != nil {
			return
		}

		if err != nil {
			logger.Warn("Failed to send line", "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("Failed to read input", "error", err)
	}

	select {
	case <-time.After(drain):
	case <-tr.Done():
		return
	case <-ctx.Done():
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GracePeriod+shutdownSlack)
	defer cancel()

	if err := tr.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down server", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(pipeCmd)
}
