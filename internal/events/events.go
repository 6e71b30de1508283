package events

import "time"

// FieldDescriptor describes one field of a class, as extracted by the
// Bytecode Analyzer. It is a plain DTO independent of the analyzer's
// internal representation so the events package has no dependency on
// internal/bytecode.
type FieldDescriptor struct {
	Name       string
	Descriptor string
}

// MethodDescriptor describes one method of a class.
type MethodDescriptor struct {
	Name       string
	Descriptor string
}

// ClassFileChanged is emitted by the File-Watch Dispatcher (via the
// Pipeline Driver) whenever a watched class artifact is created or
// modified, after debouncing. It is always the originating event of a
// correlation chain.
type ClassFileChanged struct {
	Envelope
	Path      string
	ClassName string
	Size      int64
}

func (e ClassFileChanged) Kind() Kind { return KindClassFileChanged }
func (e ClassFileChanged) Env() Envelope { return e.Envelope }

// ClassMetadataExtracted is emitted by the Bytecode Analyzer after
// successfully parsing a class artifact.
type ClassMetadataExtracted struct {
	Envelope
	Path       string
	Name       string
	Super      string
	Interfaces []string
	Fields     []FieldDescriptor
	Methods    []MethodDescriptor
}

func (e ClassMetadataExtracted) Kind() Kind { return KindClassMetadataExtracted }
func (e ClassMetadataExtracted) Env() Envelope { return e.Envelope }

// BytecodeValidated is emitted by the Bytecode Validator when a proposed
// change is classified as eligible for redefinition.
type BytecodeValidated struct {
	Envelope
	Path   string
	Name   string
	Safe   bool
	Detail string
}

func (e BytecodeValidated) Kind() Kind { return KindBytecodeValidated }
func (e BytecodeValidated) Env() Envelope { return e.Envelope }

// BytecodeRejected is emitted by the Bytecode Validator when a proposed
// change is not eligible for redefinition. This is a terminal event for
// its correlation chain.
type BytecodeRejected struct {
	Envelope
	Path   string
	Name   string
	Detail string
}

func (e BytecodeRejected) Kind() Kind { return KindBytecodeRejected }
func (e BytecodeRejected) Env() Envelope { return e.Envelope }

// HotSwapRequested is emitted by the Hot-Swap Manager once validation has
// passed, immediately before the redefine call is attempted.
type HotSwapRequested struct {
	Envelope
	Path     string
	Name     string
	Original []byte
	New      []byte
	Reason   string
}

func (e HotSwapRequested) Kind() Kind { return KindHotSwapRequested }
func (e HotSwapRequested) Env() Envelope { return e.Envelope }

// ClassRedefinitionSucceeded is emitted by the Hot-Swap Manager after the
// Instrumentation Port reports a successful redefinition.
type ClassRedefinitionSucceeded struct {
	Envelope
	Name              string
	Path              string
	AffectedInstances int
	Detail            string
	Duration          time.Duration
}

func (e ClassRedefinitionSucceeded) Kind() Kind { return KindClassRedefinitionSucceeded }
func (e ClassRedefinitionSucceeded) Env() Envelope { return e.Envelope }

// ClassRedefinitionFailed is emitted by the Hot-Swap Manager when
// redefinition could not be applied. Terminal for its correlation chain.
type ClassRedefinitionFailed struct {
	Envelope
	Name          string
	Path          string
	Reason        string
	PlatformError string
	RecoveryHint  string
}

func (e ClassRedefinitionFailed) Kind() Kind { return KindClassRedefinitionFailed }
func (e ClassRedefinitionFailed) Env() Envelope { return e.Envelope }

// InstancesUpdated is emitted once per redefinition by the Instance
// Updater, summarizing the outcome of reconciling live instances.
type InstancesUpdated struct {
	Envelope
	ClassName string
	Method    string
	Updated   int
	Total     int
	Failed    int
	Duration  time.Duration
	Detail    string
}

func (e InstancesUpdated) Kind() Kind { return KindInstancesUpdated }
func (e InstancesUpdated) Env() Envelope { return e.Envelope }

// WatchOverflow is emitted by the File-Watch Dispatcher when the
// underlying OS watch queue overflowed and a subtree had to be
// re-registered. Informational only; it does not terminate a pipeline.
type WatchOverflow struct {
	Envelope
	Path string
}

func (e WatchOverflow) Kind() Kind { return KindWatchOverflow }
func (e WatchOverflow) Env() Envelope { return e.Envelope }
