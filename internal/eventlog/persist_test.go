package eventlog

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/rydnr/bytehot/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRecord_RoundTripsEveryVariant(t *testing.T) {
	env := events.NewEnvelope("Class", "com.example.Service")

	variants := []events.Event{
		events.ClassFileChanged{Envelope: env, Path: "/src/Service.class", ClassName: "com.example.Service", Size: 42},
		events.ClassMetadataExtracted{
			Envelope: env, Path: "/src/Service.class", Name: "com.example.Service", Super: "java.lang.Object",
			Interfaces: []string{"java.io.Serializable"},
			Fields:     []events.FieldDescriptor{{Name: "count", Descriptor: "I"}},
			Methods:    []events.MethodDescriptor{{Name: "run", Descriptor: "()V"}},
		},
		events.BytecodeValidated{Envelope: env, Path: "/src/Service.class", Name: "com.example.Service", Safe: true, Detail: "method body only"},
		events.BytecodeRejected{Envelope: env, Path: "/src/Service.class", Name: "com.example.Service", Detail: "schema incompatible"},
		events.HotSwapRequested{Envelope: env, Path: "/src/Service.class", Name: "com.example.Service", Original: []byte{1, 2}, New: []byte{3, 4, 5}, Reason: "safe change"},
		events.ClassRedefinitionSucceeded{Envelope: env, Name: "com.example.Service", Path: "/src/Service.class", AffectedInstances: 3, Detail: "ok", Duration: 5 * time.Millisecond},
		events.ClassRedefinitionFailed{Envelope: env, Name: "com.example.Service", Path: "/src/Service.class", Reason: "ClassNotFound", PlatformError: "NoClassDefFoundError", RecoveryHint: "restart"},
		events.InstancesUpdated{Envelope: env, ClassName: "com.example.Service", Method: "REFLECTION", Updated: 2, Total: 3, Failed: 1, Duration: time.Second, Detail: "partial"},
		events.WatchOverflow{Envelope: env, Path: "/src"},
	}

	for _, v := range variants {
		encoded, err := EncodeRecord(v)
		require.NoError(t, err)

		decoded, err := DecodeRecord(encoded)
		require.NoError(t, err)

		assert.Equal(t, v, decoded)
	}
}

func TestWriterReader_RoundTripsThroughAFile(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	env := events.NewEnvelope("Class", "com.example.Service")
	want := []events.Event{
		events.ClassFileChanged{Envelope: env, Path: "/src/A.class", ClassName: "A", Size: 1},
		events.WatchOverflow{Envelope: env, Path: "/src"},
	}
	for _, e := range want {
		require.NoError(t, w.Write(e))
	}

	r := NewReader(&buf)
	var got []events.Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}

	assert.Equal(t, want, got)
}

func TestLog_WithWriter_PersistsAppendedEvents(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(NewWriter(&buf)))

	env := events.NewEnvelope("Class", "com.example.Service")
	log.Append(events.ClassFileChanged{Envelope: env, Path: "/src/A.class", ClassName: "A", Size: 1})

	r := NewReader(&buf)
	decoded, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "A", decoded.(events.ClassFileChanged).ClassName)
}
