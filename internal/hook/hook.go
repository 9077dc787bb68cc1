//go:build linux && cgo

// Package hook interposes the libc file-opening primitives and refuses the
// ones that target the guarded directory.
//
// The wrappers live in hook.c so that each keeps the exact C signature of the
// function it replaces, variadic mode argument included. For every call they
// ask credguardCheck for a verdict. A denial sets errno to EACCES and returns
// the primitive's failure value. An allowed call is forwarded unchanged to
// the implementation found by credguardReal.
//
// Table describes the wrappers; it does not drive them. Each wrapper's
// argument shape and failure value are fixed by its C macro in hook.c, and the
// tests hold Table and the C wrapper table to the same indexes.
//
// A denied freopen closes the stream it was given before returning NULL,
// the same state glibc leaves behind when the reopen itself fails.
package hook

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include <string.h>
#include "hook.h"
*/
import "C"

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/z0rr0/credguard/guard"
	"github.com/z0rr0/credguard/internal/realsym"

	// credguard_errno_set, used by hook.c
	_ "github.com/z0rr0/credguard/internal/errcell"
)

// active returns the guard consulted by the wrappers.
var active = guard.Default

var reals = sync.OnceValue(func() *realsym.Table {
	self := make([]unsafe.Pointer, Count)
	for i := range self {
		self[i] = wrapper(i)
	}
	return realsym.NewTable(Names(), self)
})

// wrapper returns the address of the C wrapper at index, or nil when this
// libc has no separate symbol for it.
func wrapper(index int) unsafe.Pointer {
	return C.credguard_self_at(C.int(index))
}

// check reports whether a call on pathname relative to dirfd must be refused.
func check(dirfd int, pathname []byte) bool {
	return active().DecideAt(dirfd, pathname) == guard.Deny
}

// original returns the implementation the primitive at index had before
// interposition.
func original(index int) (unsafe.Pointer, error) {
	return reals().Lookup(index)
}

//export credguardCheck
func credguardCheck(dirfd C.int, path *C.char) C.int {
	var raw []byte
	if path != nil {
		raw = C.GoBytes(unsafe.Pointer(path), C.int(C.strlen(path)))
	}

	if check(int(dirfd), raw) {
		return 1
	}
	return 0
}

//export credguardReal
func credguardReal(index C.int) unsafe.Pointer {
	ptr, err := original(int(index))
	if err != nil {
		slog.Error("failed to resolve real symbol", "symbol", reals().Name(int(index)), "error", err)
		return nil
	}
	return ptr
}
