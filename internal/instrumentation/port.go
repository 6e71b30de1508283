// Package instrumentation defines the Instrumentation Port: the Hot-Swap
// Manager's abstraction over the managed platform's class-redefinition
// primitive. Attaching to a real managed runtime's instrumentation API is
// an external integration; this module ships the port interface, a test
// fake under instrumentationtest/, and UnsupportedPort for processes with
// no backend attached.
package instrumentation

// ClassHandle identifies a class already loaded by the managed platform, as
// returned by FindLoadedClass. Its zero value never represents a real
// class; callers receive it only from a successful FindLoadedClass.
type ClassHandle struct {
	Name string
}

// Port is the capability the Hot-Swap Manager consumes to query and redefine
// loaded classes. Implementations MUST NOT simulate success: a platform
// with no real redefinition primitive reports UnsupportedChange from
// Redefine, never a synthetic Ok.
type Port interface {
	// FindLoadedClass returns the handle for name and true, or the zero
	// handle and false if the platform has not loaded a class by that name.
	FindLoadedClass(name string) (ClassHandle, bool)

	// Redefine replaces the method bodies of handle's class with newBytes.
	// It returns a *RedefinitionError on any failure.
	Redefine(handle ClassHandle, newBytes []byte) error

	// IsRedefinitionSupported reports whether this platform instance
	// exposes a redefinition primitive at all.
	IsRedefinitionSupported() bool
}
