//go:build cgo

// Package errcell provides the C helpers that read and write the errno of the
// calling OS thread. The interception wrappers call credguard_errno_set from C
// on the thread that made the intercepted call, after the Go verdict has
// returned. The package has no Go API; importing it links the helpers in.
package errcell

/*
void credguard_errno_set(int e);
int credguard_errno_get(void);
*/
import "C"

import "syscall"

// set stores e in the errno of the current OS thread. The caller must hold
// its thread with runtime.LockOSThread to read the value back.
func set(e syscall.Errno) {
	C.credguard_errno_set(C.int(e))
}

// get returns the errno of the current OS thread.
func get() syscall.Errno {
	return syscall.Errno(C.credguard_errno_get())
}
