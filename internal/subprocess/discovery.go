package subprocess

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/mcp-stdio-go/internal/errors"
)

// fallbackDirs are searched after $PATH. Processes started from a desktop
// session often inherit a PATH that lacks these.
var fallbackDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/usr/bin",
}

// resolver locates the executable for a command name.
type resolver struct {
	log   *slog.Logger
	extra []string
	dir   string // Child working directory; relative paths are resolved against it
}

// resolve returns the path to execute for command.
//
// A command containing a path separator is used as-is and must exist;
// a relative one is checked against the child's working directory, which
// is where the child will look for it.
// A bare name is searched in $PATH, then in extra, then in the fallback
// directories and ~/.local/bin.
func (r *resolver) resolve(command string) (string, error) {
	if command == "" {
		return "", &errors.CommandNotFoundError{Command: command}
	}

	if strings.ContainsRune(command, filepath.Separator) || strings.ContainsRune(command, '/') {
		r.log.Debug("Using explicit command path", "path", command)

		candidate := command
		if r.dir != "" && !filepath.IsAbs(command) {
			candidate = filepath.Join(r.dir, command)
		}

		if _, err := os.Stat(candidate); err != nil {
			return "", &errors.CommandNotFoundError{Command: command, SearchedPaths: []string{candidate}}
		}

		return command, nil
	}

	searchedPaths := make([]string, 0, 8)

	if path, err := exec.LookPath(command); err == nil {
		r.log.Debug("Found command in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	dirs := make([]string, 0, len(r.extra)+len(fallbackDirs)+1)
	dirs = append(dirs, r.extra...)
	dirs = append(dirs, fallbackDirs...)

	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".local", "bin"))
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, command)
		searchedPaths = append(searchedPaths, candidate)

		if isExecutable(candidate) {
			r.log.Debug("Found command in fallback directory", "path", candidate)

			return candidate, nil
		}
	}

	r.log.Warn("Command not found in any searched paths", "command", command, "searched_paths", searchedPaths)

	return "", &errors.CommandNotFoundError{Command: command, SearchedPaths: searchedPaths}
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return info.Mode().Perm()&0o111 != 0
}
