package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the closed set of DomainEvent variants. Keeping it as
// a typed string (rather than an open interface hierarchy) lets callers
// switch over it and get a clear signal when a new variant is added without
// a matching case.
type Kind string

const (
	KindClassFileChanged           Kind = "ClassFileChanged"
	KindClassMetadataExtracted     Kind = "ClassMetadataExtracted"
	KindBytecodeValidated          Kind = "BytecodeValidated"
	KindBytecodeRejected           Kind = "BytecodeRejected"
	KindHotSwapRequested           Kind = "HotSwapRequested"
	KindClassRedefinitionSucceeded Kind = "ClassRedefinitionSucceeded"
	KindClassRedefinitionFailed    Kind = "ClassRedefinitionFailed"
	KindInstancesUpdated           Kind = "InstancesUpdated"
	KindWatchOverflow              Kind = "WatchOverflow"
)

// Envelope carries the fields common to every DomainEvent: identity,
// causal linkage, the aggregate it describes, and a wall-clock timestamp.
// The timestamp carries no monotonic clock reading, so it compares equal
// after a round trip through the persisted record format.
type Envelope struct {
	ID            string
	CorrelationID string
	// PrecedingID is the id of the event that causally preceded this one
	// within the same correlation chain. Empty for an originating event.
	PrecedingID   string
	AggregateType string
	AggregateID   string
	Timestamp     time.Time
}

// Event is implemented by every DomainEvent variant. Env returns the
// common envelope; Kind discriminates the variant for exhaustive switches.
type Event interface {
	Kind() Kind
	Env() Envelope
}

// NewEnvelope builds an envelope for an originating event (no preceding
// event, fresh correlation id).
func NewEnvelope(aggregateType, aggregateID string) Envelope {
	id := uuid.New().String()
	return Envelope{
		ID:            id,
		CorrelationID: id,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Timestamp:     time.Now().Round(0),
	}
}

// Caused builds an envelope for an event that causally descends from
// `parent`: it carries the same correlation id and points its PrecedingID
// at the parent's event id.
func Caused(parent Envelope, aggregateType, aggregateID string) Envelope {
	return Envelope{
		ID:            uuid.New().String(),
		CorrelationID: parent.CorrelationID,
		PrecedingID:   parent.ID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Timestamp:     time.Now().Round(0),
	}
}
