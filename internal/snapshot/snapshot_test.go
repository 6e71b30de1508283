package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rydnr/bytehot/internal/events"
)

func fileChanged(class string) events.Event {
	return events.ClassFileChanged{
		Envelope:  events.NewEnvelope("File", "/tmp/classes/"+class+".class"),
		Path:      "/tmp/classes/" + class + ".class",
		ClassName: class,
		Size:      128,
	}
}

func TestCapture_BoundsWindow(t *testing.T) {
	var recent []events.Event
	for i := 0; i < 15; i++ {
		recent = append(recent, fileChanged(fmt.Sprintf("Class%d", i)))
	}

	snap := Capture(recent, 10, CaptureFingerprint("worker-1"))

	require.Len(t, snap.Events, 10)
	// The window keeps the most recent events, in chronological order.
	first := snap.Events[0].(events.ClassFileChanged)
	last := snap.Events[9].(events.ClassFileChanged)
	assert.Equal(t, "Class5", first.ClassName)
	assert.Equal(t, "Class14", last.ClassName)
	assert.Equal(t, "worker-1", snap.Fingerprint.GoroutineHint)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestCapture_CopiesEvents(t *testing.T) {
	recent := []events.Event{fileChanged("A"), fileChanged("B")}
	snap := Capture(recent, 10, Fingerprint{})

	recent[0] = fileChanged("Mutated")
	assert.Equal(t, "A", snap.Events[0].(events.ClassFileChanged).ClassName)
}

func TestClassify_OrderedRules(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"hot-swap keyword", errors.New("hot-swap of Foo refused"), HotSwapFailure},
		{"hot-swap marker type", &HotSwapFailureError{Err: errors.New("redefine rejected")}, HotSwapFailure},
		{"nil dereference", errors.New("runtime error: invalid memory address or nil pointer dereference"), NullReference},
		{"invalid state marker", &InvalidStateError{Err: errors.New("tracker used before Enable")}, InvalidState},
		{"illegal state keyword", errors.New("illegal state: request consumed twice"), InvalidState},
		{"io path error", &fs.PathError{Op: "open", Path: "/tmp/x.class", Err: errors.New("permission denied")}, IOFailure},
		{"unknown", errors.New("something else entirely"), UnclassifiedError},
		{"nil error", nil, UnclassifiedError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_HotSwapRuleWinsOverLaterRules(t *testing.T) {
	// Rule 1 is evaluated before the I/O rule, so a hot-swap failure that
	// wraps an I/O error still classifies as HOT_SWAP_FAILURE.
	err := &HotSwapFailureError{Err: &fs.PathError{Op: "read", Path: "/tmp/y.class", Err: errors.New("gone")}}
	assert.Equal(t, HotSwapFailure, Classify(err))
}

func TestWrap_ClassifiesAndCapturesStack(t *testing.T) {
	snap := Capture([]events.Event{fileChanged("Svc")}, 10, CaptureFingerprint(""))
	serr := Wrap(errors.New("runtime error: invalid memory address or nil pointer dereference"), snap)

	assert.NotEmpty(t, serr.ErrorID)
	assert.Equal(t, NullReference, serr.Classification)
	assert.NotEmpty(t, serr.Stack)
	assert.Len(t, serr.Snapshot.Events, 1)
	assert.Contains(t, serr.Error(), serr.ErrorID)
	assert.Contains(t, serr.Error(), "NULL_REFERENCE")
}

func TestWrap_Unwrap(t *testing.T) {
	underlying := errors.New("boom")
	serr := Wrap(underlying, EventSnapshot{})
	assert.ErrorIs(t, serr, underlying)
}

func TestReport_ContainsCanonicalSections(t *testing.T) {
	snap := Capture([]events.Event{fileChanged("Svc")}, 10, CaptureFingerprint("worker-3"))
	serr := Wrap(errors.New("runtime error: invalid memory address or nil pointer dereference"), snap)

	report, err := Report(serr)
	require.NoError(t, err)

	for _, section := range []string{
		"## Error Summary",
		"## Event Context",
		"## System State",
		"## Reproduction",
		"## Stack Trace",
	} {
		assert.Contains(t, report, section)
	}
	assert.Contains(t, report, serr.ErrorID)
	assert.Contains(t, report, "NULL_REFERENCE")
	assert.Contains(t, report, "ClassFileChanged")
	assert.Contains(t, report, "worker-3")
}

func TestReport_EmptySnapshot(t *testing.T) {
	serr := Wrap(errors.New("boom"), Capture(nil, 10, Fingerprint{}))
	report, err := Report(serr)
	require.NoError(t, err)
	assert.True(t, strings.Contains(report, "No events were recorded before the failure."))
}
