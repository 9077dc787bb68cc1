// Package guard decides whether a pathname refers to something inside the
// guarded secrets directory.
//
// The decision is stateless per call. The only shared state is the canonical
// form of the guarded directory, computed once per Guard on first use.
//
// A relative pathname is anchored at the working directory, or for
// directory-relative calls at the path behind the descriptor, read from
// /proc/self/fd on Linux. When that anchor cannot be found (no procfs mounted,
// a deleted working directory, a descriptor without a path) the pathname is
// allowed and the real call runs unchecked. Processes that must stay contained
// without procfs should open secrets by absolute path only.
package guard

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultDir is the directory guarded by Default. It is a build-time setting:
//
//	go build -ldflags "-X github.com/z0rr0/credguard/guard.DefaultDir=/run/secrets/app"
var DefaultDir = "/var/run/secrets/kubernetes.io"

// Verdict is the outcome of a guard decision.
type Verdict uint8

const (
	// Allow delegates the call to the real implementation.
	Allow Verdict = iota
	// Deny refuses the call with a permission error.
	Deny
)

// String returns "allow" or "deny".
func (v Verdict) String() string {
	if v == Deny {
		return "deny"
	}
	return "allow"
}

// Guard protects one directory subtree.
type Guard struct {
	dir      string
	canon    func() string
	getwd    func() (string, error)
	fdDir    func(int) (string, error)
	eval     func(string) (string, error)
	readlink func(string) (string, error)
}

// Option customizes a Guard.
type Option func(*Guard)

// WithGetwd replaces the working directory lookup used to anchor relative paths.
func WithGetwd(fn func() (string, error)) Option {
	return func(g *Guard) { g.getwd = fn }
}

// WithFDResolver replaces the lookup of the directory behind a descriptor,
// used to anchor relative paths of directory-relative calls.
func WithFDResolver(fn func(int) (string, error)) Option {
	return func(g *Guard) { g.fdDir = fn }
}

// New returns a Guard for dir. The directory does not need to exist.
func New(dir string, opts ...Option) *Guard {
	g := &Guard{
		dir:      dir,
		getwd:    unix.Getwd,
		fdDir:    fdPath,
		eval:     filepath.EvalSymlinks,
		readlink: os.Readlink,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.canon = sync.OnceValue(func() string {
		abs, err := filepath.Abs(g.dir)
		if err != nil {
			abs = filepath.Clean(g.dir)
		}
		return g.canonical(abs)
	})
	return g
}

var defaultGuard = sync.OnceValue(func() *Guard { return New(DefaultDir) })

// Default returns the process-wide Guard for DefaultDir.
func Default() *Guard {
	return defaultGuard()
}

// Dir returns the canonical form of the guarded directory.
func (g *Guard) Dir() string {
	return g.canon()
}

// Decide is DecideAt relative to the current working directory.
func (g *Guard) Decide(pathname []byte) Verdict {
	return g.DecideAt(unix.AT_FDCWD, pathname)
}

// DecideString is Decide for a path that is always present.
func (g *Guard) DecideString(name string) Verdict {
	return g.DecideAt(unix.AT_FDCWD, []byte(name))
}

// DecideAt returns Deny when pathname, interpreted relative to dirfd, resolves
// to the guarded directory or anything below it. A nil pathname means the call
// carries no path and is always allowed.
func (g *Guard) DecideAt(dirfd int, pathname []byte) Verdict {
	if pathname == nil {
		return Allow
	}
	return g.Judge(g.Probe(dirfd, pathname))
}

// Judge returns the verdict for a Probe that was already built, so callers
// that show the canonical form get a verdict computed from that same form.
// A Probe without a canonical form is allowed.
func (g *Guard) Judge(p Probe) Verdict {
	if p.Canonical == "" {
		return Allow
	}
	if within(g.canon(), p.Canonical) {
		return Deny
	}
	return Allow
}

// within reports whether target equals base or lies below it, comparing whole
// path components.
func within(base, target string) bool {
	if base == "/" {
		return strings.HasPrefix(target, "/")
	}
	return target == base || strings.HasPrefix(target, base+"/")
}
