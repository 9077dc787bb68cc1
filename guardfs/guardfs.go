// Package guardfs is a library-level shim for Go programs, which do not go
// through libc to open files and so are not covered by the preload library.
//
// Every function mirrors its os counterpart and refuses paths inside the
// guarded directory with a *fs.PathError wrapping EACCES, the same error the
// os package returns when the kernel refuses an open.
package guardfs

import (
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"github.com/z0rr0/credguard/guard"
	"github.com/z0rr0/credguard/sandbox"
)

// FS applies one Guard to the os file-opening functions.
type FS struct {
	g *guard.Guard
}

// New returns an FS for g.
func New(g *guard.Guard) *FS {
	return &FS{g: g}
}

var std = New(guard.Default())

// denied returns the error for a refused operation on name, or nil.
func (f *FS) denied(op, name string) error {
	if f.g.DecideString(name) == guard.Deny {
		return &fs.PathError{Op: op, Path: name, Err: unix.EACCES}
	}
	return nil
}

// Open is os.Open.
func (f *FS) Open(name string) (*os.File, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return os.Open(name)
}

// OpenFile is os.OpenFile.
func (f *FS) OpenFile(name string, flag int, perm fs.FileMode) (*os.File, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return os.OpenFile(name, flag, perm)
}

// Create is os.Create.
func (f *FS) Create(name string) (*os.File, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return os.Create(name)
}

// ReadFile is os.ReadFile.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

// ReadDir is os.ReadDir.
func (f *FS) ReadDir(name string) ([]os.DirEntry, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return os.ReadDir(name)
}

// Lockdown hides the guarded directory from the whole process where the
// kernel supports it, so that direct os calls are refused as well. It reports
// whether that happened; where it did not, only calls through this package
// are guarded.
func (f *FS) Lockdown() (bool, error) {
	if !sandbox.Supported {
		return false, nil
	}
	if err := sandbox.Hide(f.g.Dir()); err != nil {
		return false, err
	}
	return true, nil
}

// Open is os.Open guarded by guard.Default.
func Open(name string) (*os.File, error) { return std.Open(name) }

// OpenFile is os.OpenFile guarded by guard.Default.
func OpenFile(name string, flag int, perm fs.FileMode) (*os.File, error) {
	return std.OpenFile(name, flag, perm)
}

// Create is os.Create guarded by guard.Default.
func Create(name string) (*os.File, error) { return std.Create(name) }

// ReadFile is os.ReadFile guarded by guard.Default.
func ReadFile(name string) ([]byte, error) { return std.ReadFile(name) }

// ReadDir is os.ReadDir guarded by guard.Default.
func ReadDir(name string) ([]os.DirEntry, error) { return std.ReadDir(name) }

// Lockdown is FS.Lockdown for guard.Default.
func Lockdown() (bool, error) { return std.Lockdown() }
