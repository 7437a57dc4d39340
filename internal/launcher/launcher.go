// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package launcher runs external conversion tools. Everything a tool needs
// from its environment (search paths, cache locations, device selection) is
// described by a Config value; the launcher never modifies the environment
// of the calling process.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ErrToolFailed reports that the external tool exited unsuccessfully.
var ErrToolFailed = errors.New("external tool failed")

// Config describes one invocation of an external tool.
type Config struct {
	// Command is the executable followed by any fixed leading arguments,
	// e.g. ["python3", "-m", "mineru"].
	Command []string

	// Args are appended after Command.
	Args []string

	// Env sets or replaces environment variables.
	Env map[string]string

	// Prepend lists directories to put in front of path-list variables
	// such as PATH or LD_LIBRARY_PATH. Directories already present are
	// not added twice.
	Prepend map[string][]string

	// Dir is the working directory; empty means the current one.
	Dir string

	// BaseEnv is the environment the overrides apply to. Nil means the
	// environment of the calling process.
	BaseEnv []string
}

// Argv returns the full command line.
func (c Config) Argv() []string {
	argv := make([]string, 0, len(c.Command)+len(c.Args))
	argv = append(argv, c.Command...)
	return append(argv, c.Args...)
}

// Environ returns the environment the tool will see.
func (c Config) Environ() []string {
	base := c.BaseEnv
	if base == nil {
		base = os.Environ()
	}

	vars := make(map[string]string, len(base))
	order := make([]string, 0, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := vars[k]; !seen {
			order = append(order, k)
		}
		vars[k] = v
	}

	set := func(k, v string) {
		if _, seen := vars[k]; !seen {
			order = append(order, k)
		}
		vars[k] = v
	}

	for _, k := range sortedKeys(c.Env) {
		set(k, c.Env[k])
	}
	for _, k := range sortedKeys(c.Prepend) {
		set(k, prependList(vars[k], c.Prepend[k]))
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// prependList puts dirs in front of the os.PathListSeparator-separated
// list current, skipping directories it already contains.
func prependList(current string, dirs []string) string {
	existing := make(map[string]bool)
	var parts []string
	if current != "" {
		parts = strings.Split(current, string(os.PathListSeparator))
		for _, p := range parts {
			existing[p] = true
		}
	}

	var front []string
	for _, d := range dirs {
		if d == "" || existing[d] {
			continue
		}
		existing[d] = true
		front = append(front, d)
	}
	return strings.Join(append(front, parts...), string(os.PathListSeparator))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// runner abstracts process execution for testing.
type runner interface {
	Run(ctx context.Context, argv, env []string, dir string, stdout, stderr io.Writer) error
}

// osRunner is the production runner backed by os/exec.
type osRunner struct{}

func (osRunner) Run(ctx context.Context, argv, env []string, dir string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Launcher starts external tools and streams their output.
type Launcher struct {
	run    runner
	stdout io.Writer
	stderr io.Writer
}

// New creates a launcher that forwards the tool's output to stdout and
// stderr.
func New(stdout, stderr io.Writer) *Launcher {
	return &Launcher{run: osRunner{}, stdout: stdout, stderr: stderr}
}

// Launch runs the tool described by cfg and blocks until it exits or ctx
// is done. A non-zero exit is reported as an error wrapping ErrToolFailed.
func (l *Launcher) Launch(ctx context.Context, cfg Config) error {
	argv := cfg.Argv()
	if len(argv) == 0 {
		return fmt.Errorf("launching tool: empty command")
	}

	err := l.run.Run(ctx, argv, cfg.Environ(), cfg.Dir, l.stdout, l.stderr)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolFailed, argv[0], ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", ErrToolFailed, argv[0], err)
}
