//go:build linux

package guard

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// fdPath returns the path of the directory open at fd, read from procfs.
func fdPath(fd int) (string, error) {
	target, err := os.Readlink("/proc/self/fd/" + strconv.Itoa(fd))
	if err != nil {
		return "", fmt.Errorf("failed to resolve descriptor %d: %w", fd, err)
	}

	// sockets, pipes and anonymous inodes have no usable path
	if !strings.HasPrefix(target, "/") {
		return "", fmt.Errorf("descriptor %d has no path: %s", fd, target)
	}
	return target, nil
}
