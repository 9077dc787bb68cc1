//go:build openbsd

// Package sandbox hides the guarded directory from the whole process where
// the kernel offers a way to do it.
package sandbox

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Supported reports whether Hide takes effect on this system.
const Supported = true

// Hide makes dir and everything below it unreachable while leaving the rest of
// the filesystem as it was, then locks the unveil list.
// Unveiling "/" with every permission first is required: once any path is
// unveiled, everything not unveiled disappears.
func Hide(dir string) error {
	slog.Debug("unveil", "path", "/", "perms", "rwxc")
	if err := unix.Unveil("/", "rwxc"); err != nil {
		return fmt.Errorf("failed to unveil root: %w", err)
	}

	slog.Debug("unveil", "path", dir, "perms", "")
	if err := unix.Unveil(dir, ""); err != nil {
		return fmt.Errorf("failed to hide %s: %w", dir, err)
	}

	slog.Debug("unveil block")
	if err := unix.UnveilBlock(); err != nil {
		return fmt.Errorf("failed to block unveil: %w", err)
	}
	return nil
}
