package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEnvelope_SelfCorrelates(t *testing.T) {
	env := NewEnvelope("Class", "com.example.Service")

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, env.ID, env.CorrelationID)
	assert.Empty(t, env.PrecedingID)
}

func TestCaused_InheritsCorrelationAndPointsAtParent(t *testing.T) {
	parent := NewEnvelope("Class", "com.example.Service")
	child := Caused(parent, "Class", "com.example.Service")

	assert.Equal(t, parent.CorrelationID, child.CorrelationID)
	assert.Equal(t, parent.ID, child.PrecedingID)
	assert.NotEqual(t, parent.ID, child.ID)
}

func TestSummarize_CoversEveryVariant(t *testing.T) {
	env := NewEnvelope("Class", "com.example.Service")

	variants := []Event{
		ClassFileChanged{Envelope: env, ClassName: "com.example.Service", Size: 10},
		ClassMetadataExtracted{Envelope: env, Name: "com.example.Service"},
		BytecodeValidated{Envelope: env, Name: "com.example.Service", Safe: true, Detail: "method body only"},
		BytecodeRejected{Envelope: env, Name: "com.example.Service", Detail: "schema incompatible"},
		HotSwapRequested{Envelope: env, Name: "com.example.Service", Reason: "safe change"},
		ClassRedefinitionSucceeded{Envelope: env, Name: "com.example.Service"},
		ClassRedefinitionFailed{Envelope: env, Name: "com.example.Service", Reason: "ClassNotFound"},
		InstancesUpdated{Envelope: env, ClassName: "com.example.Service", Method: "NO_UPDATE"},
		WatchOverflow{Envelope: env, Path: "/tmp/classes"},
	}

	for _, v := range variants {
		summary := Summarize(v)
		assert.NotEmpty(t, summary)
	}
}
