// Package hotswap implements the Hot-Swap Manager: the sole orchestrator
// and emitter of terminal pipeline outcomes.
package hotswap

import (
	"time"

	"github.com/rydnr/bytehot/internal/bytecode"
	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/instances"
	"github.com/rydnr/bytehot/internal/instrumentation"
	"github.com/rydnr/bytehot/pkg/logging"
)

const subsystem = "HotSwapManager"

// State is the Hot-Swap Manager's per-request state machine position.
type State string

const (
	StateRequested          State = "Requested"
	StateValidated          State = "Validated"
	StateRedefined          State = "Redefined"
	StateCompleted          State = "Completed"
	StateRejected           State = "Rejected"
	StateFailed             State = "Failed"
	StatePartiallyCompleted State = "PartiallyCompleted"
)

// Request is one hot-swap attempt: a detected class change, its extracted
// metadata, and the causal event it descends from.
type Request struct {
	Path          string
	ClassName     string
	OriginalBytes []byte
	NewBytes      []byte
	OriginalMeta  bytecode.Metadata
	NewMeta       bytecode.Metadata
	HaveOriginal  bool
	CausalEnv     events.Envelope
}

// Result is everything one call to Process produced: the ordered events to
// append to the Event Log, and the state machine's terminal position.
type Result struct {
	Events []events.Event
	State  State
	// Err is non-nil only for terminal Failed/Rejected results, so a caller
	// can errors.Is/errors.As against ErrClassNotFound or
	// *instrumentation.RedefinitionError without re-deriving it from the
	// emitted events.
	Err error
}

// Manager orchestrates validate -> redefine -> reconcile for one request at
// a time. It does not serialize per-class itself — the Pipeline Driver is
// responsible for ensuring at most one Process call per class is in flight
// — so a Manager has no mutable shared state of its own.
type Manager struct {
	port                   instrumentation.Port
	tracker                *instances.Tracker
	updater                *instances.Updater
	enabledStrategies      map[instances.UpdateMethod]bool
	platformAllowsAdditive bool
	redefineTimeout        time.Duration
}

// Config configures a Manager.
type Config struct {
	Port                   instrumentation.Port
	Tracker                *instances.Tracker
	Updater                *instances.Updater
	EnabledStrategies      map[instances.UpdateMethod]bool
	PlatformAllowsAdditive bool
	// RedefineTimeout bounds each Redefine call; on expiry the call is
	// treated as PlatformError("timeout") and the request fails. Zero means
	// no deadline.
	RedefineTimeout time.Duration
}

// New builds a Manager from cfg.
func New(cfg Config) *Manager {
	return &Manager{
		port:                   cfg.Port,
		tracker:                cfg.Tracker,
		updater:                cfg.Updater,
		enabledStrategies:      cfg.EnabledStrategies,
		platformAllowsAdditive: cfg.PlatformAllowsAdditive,
		redefineTimeout:        cfg.RedefineTimeout,
	}
}

// Process runs one request through the full state machine and returns
// every event it emitted along the way, in order.
func (m *Manager) Process(req Request) Result {
	var out []events.Event

	classification, detail := bytecode.Classify(req.HaveOriginal, req.OriginalMeta, req.NewMeta, req.OriginalBytes, req.NewBytes)
	validationEnv := events.Caused(req.CausalEnv, "Class", req.ClassName)

	if !bytecode.Eligible(classification, m.platformAllowsAdditive) {
		// An additive change the platform does not permit is, from the
		// caller's point of view, a schema-incompatible one.
		if classification == bytecode.SafeAdditive {
			classification = bytecode.SchemaIncompatible
			detail = "platform does not permit additive changes: " + detail
		}
		rejected := events.BytecodeRejected{
			Envelope: validationEnv, Path: req.Path, Name: req.ClassName,
			Detail: string(classification) + ": " + detail,
		}
		out = append(out, rejected)
		logging.Audit(logging.AuditEvent{Action: "hot-swap", Outcome: "rejected", Target: req.ClassName, Details: rejected.Detail})
		return Result{Events: out, State: StateRejected}
	}

	validated := events.BytecodeValidated{
		Envelope: validationEnv, Path: req.Path, Name: req.ClassName, Safe: true, Detail: detail,
	}
	out = append(out, validated)

	requestEnv := events.Caused(validationEnv, "Class", req.ClassName)
	requested := events.HotSwapRequested{
		Envelope: requestEnv, Path: req.Path, Name: req.ClassName,
		Original: req.OriginalBytes, New: req.NewBytes, Reason: detail,
	}
	out = append(out, requested)

	handle, ok := m.port.FindLoadedClass(req.ClassName)
	if !ok {
		failed := events.ClassRedefinitionFailed{
			Envelope: events.Caused(requestEnv, "Class", req.ClassName),
			Name:     req.ClassName, Path: req.Path,
			Reason: "ClassNotFound", RecoveryHint: "ensure the class has been loaded before hot-swapping it",
		}
		out = append(out, failed)
		logging.Audit(logging.AuditEvent{Action: "hot-swap", Outcome: "failed", Target: req.ClassName, Details: failed.Reason})
		return Result{Events: out, State: StateFailed, Err: ErrClassNotFound}
	}

	start := time.Now()
	if err := m.redefineWithDeadline(handle, req.NewBytes); err != nil {
		reason, platformDetail := classifyRedefinitionError(err)
		failed := events.ClassRedefinitionFailed{
			Envelope: events.Caused(requestEnv, "Class", req.ClassName),
			Name:     req.ClassName, Path: req.Path,
			Reason: reason, PlatformError: platformDetail,
		}
		out = append(out, failed)
		logging.Audit(logging.AuditEvent{Action: "hot-swap", Outcome: "failed", Target: req.ClassName, Details: reason, Error: platformDetail})
		return Result{Events: out, State: StateFailed, Err: err}
	}
	duration := time.Since(start)

	succeededEnv := events.Caused(requestEnv, "Class", req.ClassName)
	affected := 0
	if m.tracker != nil {
		affected = m.tracker.Count(req.ClassName)
	}
	succeeded := events.ClassRedefinitionSucceeded{
		Envelope: succeededEnv, Name: req.ClassName, Path: req.Path,
		AffectedInstances: affected, Duration: duration, Detail: "redefinition accepted by the platform",
	}
	out = append(out, succeeded)

	outcome := m.reconcileInstances(req.ClassName)
	updated := events.InstancesUpdated{
		Envelope:  events.Caused(succeededEnv, "Class", req.ClassName),
		ClassName: outcome.ClassName, Method: string(outcome.Method),
		Updated: outcome.Updated, Total: outcome.Total, Failed: outcome.Failed,
		Duration: outcome.Duration, Detail: outcome.Detail,
	}
	out = append(out, updated)

	state := StateCompleted
	if outcome.Failed > 0 {
		state = StatePartiallyCompleted
	}
	logging.Audit(logging.AuditEvent{
		Action: "hot-swap", Outcome: string(state), Target: req.ClassName,
		Details: string(outcome.Method),
	})
	return Result{Events: out, State: state}
}

// redefineWithDeadline runs the platform call under the configured timeout.
// A call that outlives the deadline is abandoned to its goroutine; its
// eventual result is discarded, because the request has already transitioned
// to Failed and a request is consumed exactly once.
func (m *Manager) redefineWithDeadline(handle instrumentation.ClassHandle, newBytes []byte) error {
	if m.redefineTimeout <= 0 {
		return m.port.Redefine(handle, newBytes)
	}

	done := make(chan error, 1)
	go func() { done <- m.port.Redefine(handle, newBytes) }()

	select {
	case err := <-done:
		return err
	case <-time.After(m.redefineTimeout):
		return instrumentation.NewPlatformError("timeout")
	}
}

func (m *Manager) reconcileInstances(class string) instances.UpdateOutcome {
	if m.tracker == nil || m.updater == nil {
		return instances.UpdateOutcome{ClassName: class, Method: instances.NO_UPDATE}
	}
	return m.updater.Update(m.tracker, class, instances.DecisionContext{}, m.enabledStrategies)
}

func classifyRedefinitionError(err error) (reason, detail string) {
	rerr, ok := err.(*instrumentation.RedefinitionError)
	if !ok {
		return "PlatformError", err.Error()
	}
	return string(rerr.Reason), rerr.Detail
}
