// Package run implements "credguard run": execute a command with the
// interposition library preloaded.
package run

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// LibraryName is the file name the preload library is built under.
const LibraryName = "libcredguard.so"

const preloadVar = "LD_PRELOAD"

var (
	// ErrLibrary is returned when the preload library cannot be used.
	ErrLibrary = errors.New("preload library unavailable")

	// ErrExec is returned when the command cannot be started.
	ErrExec = errors.New("failed to execute command")
)

// execFn replaces the current process image.
var execFn = unix.Exec

// Plan is a fully resolved command ready to exec.
type Plan struct {
	Path    string
	Argv    []string
	Env     []string
	Library string
}

// Command creates the run subcommand.
func Command() *cobra.Command {
	var library string

	cmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command with the secrets directory guarded",
		Long: "Run replaces itself with command, loaded with " + LibraryName + " through " + preloadVar +
			". Opens of the guarded directory through libc fail with EACCES.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := Prepare(library, args, os.Environ())
			if err != nil {
				return err
			}

			slog.Debug("exec", "path", plan.Path, "args", plan.Argv[1:], "library", plan.Library)
			if err = execFn(plan.Path, plan.Argv, plan.Env); err != nil {
				return fmt.Errorf("%w %s: %w", ErrExec, plan.Path, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&library, "library", "l", "", "path to "+LibraryName+" (default: next to the credguard binary)")
	return cmd
}

// Prepare resolves the library and the command and builds the environment
// the command runs with.
func Prepare(library string, args []string, environ []string) (*Plan, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no command given", ErrExec)
	}

	lib, err := resolveLibrary(library)
	if err != nil {
		return nil, err
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrExec, args[0], err)
	}

	return &Plan{
		Path:    path,
		Argv:    slices.Clone(args),
		Env:     withPreload(environ, lib),
		Library: lib,
	}, nil
}

// resolveLibrary returns the absolute path of the preload library, checking
// that it is a regular file.
func resolveLibrary(library string) (string, error) {
	if library == "" {
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("%w: failed to locate executable: %w", ErrLibrary, err)
		}
		library = filepath.Join(filepath.Dir(self), LibraryName)
	}

	abs, err := filepath.Abs(library)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get absolute path: %w", ErrLibrary, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLibrary, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrLibrary, abs)
	}
	return abs, nil
}

// withPreload returns a copy of environ with lib first in LD_PRELOAD.
func withPreload(environ []string, lib string) []string {
	env := make([]string, 0, len(environ)+1)
	value := lib

	for _, kv := range environ {
		name, current, ok := strings.Cut(kv, "=")
		if !ok || name != preloadVar {
			env = append(env, kv)
			continue
		}

		for _, entry := range strings.FieldsFunc(current, func(r rune) bool { return r == ':' || r == ' ' }) {
			if entry != lib {
				value += ":" + entry
			}
		}
	}
	return append(env, preloadVar+"="+value)
}
