// Package instrumentationtest provides a fake instrumentation.Port for use
// by other packages' tests. It is exported deliberately (unlike a
// same-package testutil file) because the tests of internal/hotswap and
// internal/pipeline both need to drive the Hot-Swap Manager without a real
// managed-platform attachment.
package instrumentationtest

import (
	"sync"

	"github.com/rydnr/bytehot/internal/instrumentation"
)

// Fake is a programmable instrumentation.Port. Construct it with New (the
// zero value has no maps and is not usable); configure it via
// Load/SetRedefinitionSupported/FailNextRedefineWith before use.
type Fake struct {
	mu sync.Mutex

	loaded             map[string]bool
	redefinitionOn     bool
	failNext           map[string]*instrumentation.RedefinitionError
	redefineCalls      []RedefineCall
}

// RedefineCall records one invocation of Redefine, for assertions about
// what a test exercised the fake with.
type RedefineCall struct {
	ClassName string
	NewBytes  []byte
}

// New returns a Fake with redefinition support enabled and no classes
// loaded; call Load to register classes the test wants FindLoadedClass to
// resolve.
func New() *Fake {
	return &Fake{
		loaded:         make(map[string]bool),
		redefinitionOn: true,
		failNext:       make(map[string]*instrumentation.RedefinitionError),
	}
}

// Load marks name as a class the platform has loaded.
func (f *Fake) Load(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded[name] = true
}

// SetRedefinitionSupported toggles IsRedefinitionSupported's return value.
func (f *Fake) SetRedefinitionSupported(supported bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redefinitionOn = supported
}

// FailNextRedefineWith makes the next Redefine call for className return
// err instead of succeeding.
func (f *Fake) FailNextRedefineWith(className string, err *instrumentation.RedefinitionError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[className] = err
}

// Calls returns every Redefine invocation observed so far, in order.
func (f *Fake) Calls() []RedefineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RedefineCall, len(f.redefineCalls))
	copy(out, f.redefineCalls)
	return out
}

func (f *Fake) FindLoadedClass(name string) (instrumentation.ClassHandle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded[name] {
		return instrumentation.ClassHandle{}, false
	}
	return instrumentation.ClassHandle{Name: name}, true
}

func (f *Fake) Redefine(handle instrumentation.ClassHandle, newBytes []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.redefineCalls = append(f.redefineCalls, RedefineCall{ClassName: handle.Name, NewBytes: newBytes})

	if err, ok := f.failNext[handle.Name]; ok {
		delete(f.failNext, handle.Name)
		return err
	}
	if !f.redefinitionOn {
		return &instrumentation.RedefinitionError{Reason: instrumentation.UnsupportedChange}
	}
	return nil
}

func (f *Fake) IsRedefinitionSupported() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redefinitionOn
}
