package root

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	internalmcp "github.com/wagiedev/mcp-stdio-go/internal/mcp"
)

// envConfig holds settings read from MCPSTDIO_* variables.
// Flags given on the command line take precedence.
type envConfig struct {
	LogLevel     string        `env:"MCPSTDIO_LOG_LEVEL,default=warn"`
	GracePeriod  time.Duration `env:"MCPSTDIO_GRACE_PERIOD,default=2s"`
	MaxFrameSize int           `env:"MCPSTDIO_MAX_FRAME_SIZE,default=16777216"`
	Timeout      time.Duration `env:"MCPSTDIO_TIMEOUT,default=30s"`
	Drain        time.Duration `env:"MCPSTDIO_PIPE_DRAIN,default=1s"`
}

func loadEnvConfig() (envConfig, error) {
	var cfg envConfig

	// StrictDecode reports unparsable values instead of leaving zero values.
	err := envdecode.StrictDecode(&cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.Timeout <= 0 {
		return cfg, fmt.Errorf("MCPSTDIO_TIMEOUT must be positive, got %s", cfg.Timeout)
	}

	if cfg.GracePeriod < 0 {
		return cfg, fmt.Errorf("MCPSTDIO_GRACE_PERIOD must not be negative, got %s", cfg.GracePeriod)
	}

	if cfg.Drain < 0 {
		return cfg, fmt.Errorf("MCPSTDIO_PIPE_DRAIN must not be negative, got %s", cfg.Drain)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

// serverSpec is the fully resolved child process to launch.
type serverSpec struct {
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
}

// serverFlags are the global flags that select and configure the server.
type serverFlags struct {
	ConfigFile string
	Server     string
	EnvFile    string
	Env        []string
	Dir        string
}

// resolveServer builds the server to launch from the flags, or from the
// command line that followed "--".
func resolveServer(flags serverFlags, command []string) (*serverSpec, error) {
	spec := &serverSpec{Env: map[string]string{}}

	switch {
	case flags.Server != "" && len(command) > 0:
		return nil, errors.New("use either --server or a command after --, not both")

	case flags.Server != "":
		if flags.ConfigFile == "" {
			return nil, errors.New("--server requires --config")
		}

		file, err := internalmcp.LoadServersFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}

		cfg, err := file.Server(flags.Server)
		if err != nil {
			return nil, err
		}

		spec.Command = cfg.Command
		spec.Args = cfg.Args
		spec.Dir = cfg.Cwd
		maps.Copy(spec.Env, cfg.Env)

	case len(command) > 0:
		spec.Command = command[0]
		spec.Args = command[1:]

	default:
		return nil, errors.New("no server given: pass --server NAME or -- COMMAND [ARGS...]")
	}

	if flags.EnvFile != "" {
		fileEnv, err := godotenv.Read(flags.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("read env file: %w", err)
		}

		maps.Copy(spec.Env, fileEnv)
	}

	pairs, err := parseEnvPairs(flags.Env)
	if err != nil {
		return nil, err
	}

	maps.Copy(spec.Env, pairs)

	if flags.Dir != "" {
		spec.Dir = flags.Dir
	}

	return spec, nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q, want KEY=VALUE", pair)
		}

		env[key] = value
	}

	return env, nil
}
