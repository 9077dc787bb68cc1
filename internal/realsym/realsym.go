//go:build cgo && unix

// Package realsym finds the implementation a symbol had before it was
// interposed, using dlsym with RTLD_NEXT.
package realsym

/*
#cgo linux LDFLAGS: -ldl
#ifndef _GNU_SOURCE
#define _GNU_SOURCE
#endif
#include <dlfcn.h>
#include <stdlib.h>

static void *credguard_dlsym_next(const char *name) {
	return dlsym(RTLD_NEXT, name);
}

static const char *credguard_dlerror(void) {
	return dlerror();
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	// ErrNotFound is returned when no later object in the search order defines the symbol.
	ErrNotFound = errors.New("real symbol not found")

	// ErrSelf is returned when the lookup yields the interposing wrapper itself.
	ErrSelf = errors.New("real symbol resolves to its own wrapper")

	// ErrIndex is returned by Table.Lookup for an index outside the table.
	ErrIndex = errors.New("symbol index out of range")
)

// Resolve returns the next definition of name after the calling object.
// self is the address of the wrapper that interposes name; a result equal to
// it is rejected. self may be nil.
func Resolve(name string, self unsafe.Pointer) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	// clear any stale error before the lookup
	C.credguard_dlerror()

	ptr := C.credguard_dlsym_next(cname)
	if ptr == nil {
		msg := "no definition"
		if e := C.credguard_dlerror(); e != nil {
			msg = C.GoString(e)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, name, msg)
	}

	if self != nil && ptr == self {
		return nil, fmt.Errorf("%w: %s", ErrSelf, name)
	}
	return ptr, nil
}

// Resolver resolves one symbol name, skipping the wrapper at self.
type Resolver func(name string, self unsafe.Pointer) (unsafe.Pointer, error)

type entry struct {
	once sync.Once
	ptr  unsafe.Pointer
	err  error
}

// Table holds the real implementations of a fixed list of symbols.
// Each entry is resolved on its first Lookup and never changes afterwards.
type Table struct {
	names   []string
	self    []unsafe.Pointer
	entries []entry
	resolve Resolver
}

// NewTable returns a Table for names. self[i], when present, is the wrapper
// that interposes names[i].
func NewTable(names []string, self []unsafe.Pointer) *Table {
	return NewTableWith(names, self, Resolve)
}

// NewTableWith is NewTable with a custom resolver.
func NewTableWith(names []string, self []unsafe.Pointer, resolve Resolver) *Table {
	return &Table{
		names:   names,
		self:    self,
		entries: make([]entry, len(names)),
		resolve: resolve,
	}
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.names)
}

// Name returns the symbol name at index i.
func (t *Table) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Lookup returns the real implementation of the symbol at index i.
// A failed resolution is remembered and returned on every later call.
func (t *Table) Lookup(i int) (unsafe.Pointer, error) {
	if i < 0 || i >= len(t.entries) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, i)
	}

	e := &t.entries[i]
	e.once.Do(func() {
		var self unsafe.Pointer
		if i < len(t.self) {
			self = t.self[i]
		}
		e.ptr, e.err = t.resolve(t.names[i], self)
	})
	return e.ptr, e.err
}
