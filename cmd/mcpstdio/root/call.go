package root

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	internalmcp "github.com/wagiedev/mcp-stdio-go/internal/mcp"
)

var callSkipValidation bool

// errToolFailed is returned when the server marks a call result as an error.
var errToolFailed = errors.New("tool reported an error")

var callCmd = &cobra.Command{
	Use:   "call TOOL [JSON] [-- COMMAND [ARGS...]]",
	Short: "Call a tool with JSON arguments and print its result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		own, spec, err := serverFromArgs(cmd, args)
		if err != nil {
			return err
		}

		if len(own) < 1 || len(own) > 2 {
			return fmt.Errorf("want TOOL [JSON], got %v", own)
		}

		name, raw := own[0], ""
		if len(own) == 2 {
			raw = own[1]
		}

		arguments, err := internalmcp.ParseArguments(raw)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		session, err := connect(ctx, spec, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeSession(session)

		if !callSkipValidation {
			if err := validateCall(ctx, session, name, arguments); err != nil {
				return err
			}
		}

		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: arguments})
		if err != nil {
			return fmt.Errorf("call tool %q: %w", name, err)
		}

		if err := printResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}

		if res.IsError {
			return errToolFailed
		}

		return nil
	},
}

// validateCall checks that the tool exists and that arguments satisfy its
// input schema.
func validateCall(ctx context.Context, session *mcp.ClientSession, name string, arguments map[string]any) error {
	tools, err := listAllTools(ctx, session)
	if err != nil {
		return err
	}

	for _, tool := range tools {
		if tool.Name == name {
			return internalmcp.ValidateArguments(name, tool.InputSchema, arguments)
		}
	}

	return fmt.Errorf("server has no tool %q", name)
}

// printResult writes text content verbatim and every other content item,
// plus any structured content, as indented JSON.
func printResult(w io.Writer, res *mcp.CallToolResult) error {
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			if _, err := fmt.Fprintln(w, text.Text); err != nil {
				return err
			}

			continue
		}

		if err := printJSON(w, content); err != nil {
			return err
		}
	}

	if res.StructuredContent != nil {
		return printJSON(w, res.StructuredContent)
	}

	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callSkipValidation, "no-validate", false, "Skip validating arguments against the tool's input schema")
}
