package root

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

var (
	flags    serverFlags
	logLevel string
	quiet    bool

	cfg    envConfig
	logger = mcpstdio.NopLogger()
)

// rootCmd defines the base command for mcpstdio
var rootCmd = &cobra.Command{
	Use:   "mcpstdio",
	Short: "Talk to a local MCP server over stdio",
	Long: `mcpstdio launches an MCP server as a child process and exchanges
newline-delimited JSON-RPC with it over stdin and stdout.

The server is either an entry of an mcpServers JSON file (--config, --server)
or the command line given after "--":

  mcpstdio tools -- npx -y @modelcontextprotocol/server-everything`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		cfg, err = loadEnvConfig()
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		return nil
	},
}

// Execute runs the Cobra root command.
func Execute() {
	// Load environment from .env if present
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "mcpServers JSON file")
	pf.StringVar(&flags.Server, "server", "", "Name of the server entry in --config to launch")
	pf.StringVar(&flags.EnvFile, "env-file", "", "Extra environment for the server (dotenv format)")
	pf.StringArrayVar(&flags.Env, "env", nil, "Extra environment for the server as KEY=VALUE (repeatable)")
	pf.StringVar(&flags.Dir, "dir", "", "Working directory for the server")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from MCPSTDIO_LOG_LEVEL)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Do not forward the server's stderr")
}

// serverFromArgs splits the command's own arguments from the server command
// line that followed "--", and resolves the server to launch.
func serverFromArgs(cmd *cobra.Command, args []string) ([]string, *serverSpec, error) {
	own, command := args, []string(nil)

	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		own, command = args[:dash], args[dash:]
	}

	spec, err := resolveServer(flags, command)
	if err != nil {
		return nil, nil, err
	}

	return own, spec, nil
}

// transportOptions converts the resolved server and settings into options.
func transportOptions(spec *serverSpec, stderr io.Writer) []mcpstdio.Option {
	opts := []mcpstdio.Option{
		mcpstdio.WithLogger(logger),
		mcpstdio.WithEnv(spec.Env),
		mcpstdio.WithDir(spec.Dir),
		mcpstdio.WithGracePeriod(cfg.GracePeriod),
		mcpstdio.WithMaxFrameSize(cfg.MaxFrameSize),
	}

	if !quiet {
		opts = append(opts, mcpstdio.WithStderr(func(line string) {
			fmt.Fprintf(stderr, "[server] %s\n", line)
		}))
	}

	return opts
}
