//go:build linux && cgo

package hook

/*
#include "hook.h"
*/
import "C"

// Shape says where a primitive carries its pathname.
type Shape uint8

const (
	// PathFirst primitives take the pathname as their first argument.
	PathFirst Shape = iota
	// DirRelative primitives take a directory descriptor first and the
	// pathname, relative to it, second.
	DirRelative
)

// Sentinel is the value a primitive returns to signal failure.
type Sentinel uint8

const (
	// SentinelInt is -1 from an int-returning primitive.
	SentinelInt Sentinel = iota
	// SentinelNull is a NULL FILE* or DIR*.
	SentinelNull
)

// Primitive describes one guarded libc entry point as implemented in hook.c.
type Primitive struct {
	Index     int
	Name      string
	Shape     Shape
	Sentinel  Sentinel
	GlibcOnly bool // separate symbol only in glibc
}

// Table lists every guarded primitive in index order.
var Table = []Primitive{
	{Index: C.CG_CREAT, Name: "creat", Shape: PathFirst, Sentinel: SentinelInt},
	{Index: C.CG_CREAT64, Name: "creat64", Shape: PathFirst, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPEN, Name: "open", Shape: PathFirst, Sentinel: SentinelInt},
	{Index: C.CG_OPEN64, Name: "open64", Shape: PathFirst, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPEN_2, Name: "__open_2", Shape: PathFirst, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPEN64_2, Name: "__open64_2", Shape: PathFirst, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPENAT, Name: "openat", Shape: DirRelative, Sentinel: SentinelInt},
	{Index: C.CG_OPENAT64, Name: "openat64", Shape: DirRelative, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPENAT_2, Name: "__openat_2", Shape: DirRelative, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_OPENAT64_2, Name: "__openat64_2", Shape: DirRelative, Sentinel: SentinelInt, GlibcOnly: true},
	{Index: C.CG_FOPEN, Name: "fopen", Shape: PathFirst, Sentinel: SentinelNull},
	{Index: C.CG_FOPEN64, Name: "fopen64", Shape: PathFirst, Sentinel: SentinelNull, GlibcOnly: true},
	{Index: C.CG_FREOPEN, Name: "freopen", Shape: PathFirst, Sentinel: SentinelNull},
	{Index: C.CG_FREOPEN64, Name: "freopen64", Shape: PathFirst, Sentinel: SentinelNull, GlibcOnly: true},
	{Index: C.CG_OPENDIR, Name: "opendir", Shape: PathFirst, Sentinel: SentinelNull},
}

// Count is the number of guarded primitives.
const Count = C.CG_COUNT

// Names returns the primitive names ordered by index.
func Names() []string {
	names := make([]string, Count)
	for _, p := range Table {
		names[p.Index] = p.Name
	}
	return names
}

// Lookup returns the primitive called name.
func Lookup(name string) (Primitive, bool) {
	for _, p := range Table {
		if p.Name == name {
			return p, true
		}
	}
	return Primitive{}, false
}
