// Package main implements credguard, a launcher that runs programs with the
// secrets directory hidden from their libc file-opening calls.
package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/z0rr0/credguard/cmd/check"
	"github.com/z0rr0/credguard/cmd/run"
	"github.com/z0rr0/credguard/guard"
)

const (
	fatalUsageCode = iota + 1
	fatalLibraryCode
	fatalExecCode
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fatal(exitCode(err), err, "credguard failed")
	}
}

// rootCommand assembles the CLI.
func rootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "credguard",
		Short:         "Deny access to " + guard.DefaultDir + " for unmodified programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(cmd.ErrOrStderr(), verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "enable debug logging")

	root.AddCommand(
		run.Command(),
		check.Command(guard.Default),
		versionCommand(),
	)
	return root
}

// versionCommand prints the guarded directory compiled into this binary.
func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the guarded directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), "guarded directory: "+guard.DefaultDir+"\n")
			return err
		},
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, run.ErrLibrary):
		return fatalLibraryCode
	case errors.Is(err, run.ErrExec):
		return fatalExecCode
	default:
		return fatalUsageCode
	}
}

// setupLogger configures the global logger with the specified output and verbosity.
func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	timeFormat := time.RFC3339

	if verbose {
		level = slog.LevelDebug
		timeFormat = time.RFC3339Nano
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.SourceKey:
				if src, ok := a.Value.Any().(*slog.Source); ok {
					src.File = filepath.Base(src.File)
					return slog.Any(slog.SourceKey, src)
				}
			case slog.TimeKey:
				t := a.Value.Time()
				return slog.String(slog.TimeKey, t.Format(timeFormat))
			}
			return a
		},
	}
	logger := slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
}

// fatal logs the error message and exits the program with the specified code.
func fatal(code int, err error, msg string) {
	slog.Error(msg, "error", err)
	os.Exit(code)
}
