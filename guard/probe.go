package guard

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Probe holds the forms a pathname takes while it is being judged.
// It lives for a single call.
type Probe struct {
	DirFD     int
	Raw       []byte
	Absolute  string // Raw anchored at the working directory or DirFD, not cleaned
	Canonical string // empty when the path could not be anchored
}

// Probe builds the Probe for pathname relative to dirfd.
func (g *Guard) Probe(dirfd int, pathname []byte) Probe {
	p := Probe{DirFD: dirfd, Raw: pathname}
	if len(pathname) == 0 {
		return p
	}

	// Raw bytes go straight into a Go string, no decoding happens.
	name := string(pathname)
	if !strings.HasPrefix(name, "/") {
		base, err := g.anchor(dirfd)
		if err != nil {
			return p
		}
		name = strings.TrimSuffix(base, "/") + "/" + name
	}

	p.Absolute = name
	p.Canonical = g.canonical(name)
	return p
}

// anchor returns the directory a relative path is resolved against.
func (g *Guard) anchor(dirfd int) (string, error) {
	if dirfd == unix.AT_FDCWD {
		return g.getwd()
	}
	return g.fdDir(dirfd)
}

// maxSymlinkHops matches the kernel's limit before it reports ELOOP.
const maxSymlinkHops = 40

// canonical resolves symlinks along the longest existing leading part of abs
// and appends the remaining components lexically cleaned. Paths that do not
// exist yet still get a canonical form this way. A dangling symlink is
// followed to its target, since creating through it lands there.
func (g *Guard) canonical(abs string) string {
	var rest []string
	cur := abs
	hops := 0
	for {
		if resolved, err := g.eval(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}

		if target, err := g.readlink(cur); err == nil && hops < maxSymlinkHops {
			hops++
			if !strings.HasPrefix(target, "/") {
				parent, _ := splitLast(cur)
				target = strings.TrimSuffix(parent, "/") + "/" + target
			}
			cur = target
			continue
		}

		parent, base := splitLast(cur)
		if parent == cur {
			return filepath.Clean(abs)
		}
		if base != "" {
			rest = append([]string{base}, rest...)
		}
		cur = parent
	}
}

// splitLast splits the final component off an absolute path.
// For "/" it returns "/" unchanged.
func splitLast(p string) (string, string) {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/", ""
	}

	i := strings.LastIndexByte(trimmed, '/')
	if i <= 0 {
		return "/", trimmed[i+1:]
	}
	return trimmed[:i], trimmed[i+1:]
}
