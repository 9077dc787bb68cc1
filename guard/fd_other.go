//go:build !linux

package guard

import (
	"errors"
	"fmt"
)

// fdPath is unsupported on non-Linux systems.
// On Linux, it returns the path of the directory open at fd.
func fdPath(fd int) (string, error) {
	return "", fmt.Errorf("descriptor %d: %w", fd, errors.ErrUnsupported)
}
