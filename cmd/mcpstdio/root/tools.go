package root

import (
	"context"
	"fmt"
	"io"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var toolsPlain bool

var toolsCmd = &cobra.Command{
	Use:   "tools [-- COMMAND [ARGS...]]",
	Short: "List the tools a server provides",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		own, spec, err := serverFromArgs(cmd, args)
		if err != nil {
			return err
		}

		if len(own) > 0 {
			return fmt.Errorf("unexpected arguments %v", own)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		session, err := connect(ctx, spec, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeSession(session)

		tools, err := listAllTools(ctx, session)
		if err != nil {
			return err
		}

		return printTools(cmd.OutOrStdout(), tools, !toolsPlain)
	},
}

// printTools writes one entry per tool, rendering descriptions as markdown
// for the terminal when pretty is set.
func printTools(w io.Writer, tools []*mcp.Tool, pretty bool) error {
	if len(tools) == 0 {
		_, err := fmt.Fprintln(w, "No tools.")

		return err
	}

	for _, tool := range tools {
		if !pretty {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", tool.Name, firstLine(tool.Description)); err != nil {
				return err
			}

			continue
		}

		if _, err := w.Write(markdown.Render(toolMarkdown(tool), 80, 2)); err != nil {
			return err
		}
	}

	return nil
}

func toolMarkdown(tool *mcp.Tool) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(tool.Name)
	b.WriteString("\n\n")

	if tool.Title != "" {
		b.WriteString("*")
		b.WriteString(tool.Title)
		b.WriteString("*\n\n")
	}

	if tool.Description != "" {
		b.WriteString(tool.Description)
		b.WriteString("\n")
	}

	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")

	return line
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().BoolVar(&toolsPlain, "plain", false, "Print name<TAB>summary lines instead of rendered markdown")
}
