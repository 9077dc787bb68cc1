//go:build linux && cgo

// Command credguard-preload is the interposition library. Build it with
//
//	go build -buildmode=c-shared -o libcredguard.so ./cmd/credguard-preload
//
// and load it into a process through LD_PRELOAD, for example with
// "credguard run". The guarded directory is fixed at link time through
// github.com/z0rr0/credguard/guard.DefaultDir.
package main

import "C"

import (
	_ "github.com/z0rr0/credguard/internal/hook"
)

func main() {}
