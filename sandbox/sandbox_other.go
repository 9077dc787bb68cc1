//go:build !openbsd

package sandbox

// Supported reports whether Hide takes effect on this system.
const Supported = false

// Hide is a no-op on non-OpenBSD systems.
// On OpenBSD, it makes dir unreachable for the rest of the process lifetime.
func Hide(dir string) error { return nil }
