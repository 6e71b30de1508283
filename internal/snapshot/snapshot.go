// Package snapshot implements the Snapshot Engine: capturing a bounded
// event-history window plus environment fingerprint on any unhandled
// pipeline error, classifying the error, and rendering a human-readable
// bug report.
package snapshot

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/rydnr/bytehot/internal/events"
)

// Fingerprint is the environment fingerprint attached to every
// EventSnapshot: thread identity and a handful of selected system
// properties. Go has no per-goroutine identity API, so GoroutineHint
// carries the best available proxy (a caller-supplied label, typically the
// pipeline worker id) rather than a fabricated thread id.
type Fingerprint struct {
	GoroutineHint string
	GOOS          string
	GOARCH        string
	NumCPU        int
	NumGoroutine  int
}

// CaptureFingerprint samples the current process environment.
func CaptureFingerprint(goroutineHint string) Fingerprint {
	return Fingerprint{
		GoroutineHint: goroutineHint,
		GOOS:          runtime.GOOS,
		GOARCH:        runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
}

// EventSnapshot is an immutable capture: a bounded, chronological event
// window plus a fingerprint and the wall-clock instant of capture.
type EventSnapshot struct {
	Events      []events.Event
	Fingerprint Fingerprint
	CapturedAt  time.Time
}

// Capture builds an EventSnapshot from the last `window` events a Recent
// lookup provides.
func Capture(recent []events.Event, window int, fp Fingerprint) EventSnapshot {
	if window > 0 && len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	out := make([]events.Event, len(recent))
	copy(out, recent)
	return EventSnapshot{Events: out, Fingerprint: fp, CapturedAt: time.Now()}
}

// Classification is the closed set of error categories a wrapped failure
// is sorted into.
type Classification string

const (
	HotSwapFailure Classification = "HOT_SWAP_FAILURE"
	TypeMismatch   Classification = "TYPE_MISMATCH"
	NullReference  Classification = "NULL_REFERENCE"
	InvalidState   Classification = "INVALID_STATE"
	IOFailure      Classification = "IO_FAILURE"
	UnclassifiedError Classification = "UNKNOWN"
)

// SnapshotError wraps an unhandled pipeline error with everything the
// Reproduction Test Generator and a human investigator need: a stable
// error id, the captured snapshot, and a derived classification.
type SnapshotError struct {
	ErrorID        string
	Underlying     error
	Snapshot       EventSnapshot
	Classification Classification
	// Stack is the goroutine stack at the moment Wrap was called, which is
	// the closest available point to the error site.
	Stack string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.ErrorID, e.Classification, e.Underlying)
}

func (e *SnapshotError) Unwrap() error { return e.Underlying }

// Wrap classifies err and attaches a freshly captured snapshot, generating
// a new stable error id.
func Wrap(err error, snap EventSnapshot) *SnapshotError {
	return &SnapshotError{
		ErrorID:        uuid.New().String(),
		Underlying:     err,
		Snapshot:       snap,
		Classification: Classify(err),
		Stack:          string(debug.Stack()),
	}
}
