package reproduction

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/snapshot"
)

func sampleError(t *testing.T) *snapshot.SnapshotError {
	t.Helper()
	history := []events.Event{
		events.ClassFileChanged{
			Envelope:  events.NewEnvelope("File", "/tmp/classes/TestService.class"),
			Path:      "/tmp/classes/TestService.class",
			ClassName: "TestService",
			Size:      512,
		},
		events.BytecodeRejected{
			Envelope: events.NewEnvelope("Class", "TestService"),
			Path:     "/tmp/classes/TestService.class",
			Name:     "TestService",
			Detail:   "SchemaIncompatible: one or more fields were removed or renamed",
		},
	}
	snap := snapshot.Capture(history, 10, snapshot.CaptureFingerprint("worker-2"))
	return snapshot.Wrap(errors.New("hot-swap of TestService refused by validator"), snap)
}

func TestGenerate_GoTestDialect(t *testing.T) {
	serr := sampleError(t)

	artifact, err := Generate(DialectGoTest, serr)
	require.NoError(t, err)

	assert.Contains(t, artifact, "package reproduction_test")
	assert.Contains(t, artifact, "// Given")
	assert.Contains(t, artifact, "// When")
	assert.Contains(t, artifact, "// Then")
	assert.Contains(t, artifact, serr.ErrorID)
	// The embedded history keeps both events, as comments naming their kinds.
	assert.Contains(t, artifact, "ClassFileChanged")
	assert.Contains(t, artifact, "BytecodeRejected")
	// Message classifies as HOT_SWAP_FAILURE from text alone, so the strict
	// classification assertion is emitted.
	assert.Contains(t, artifact, `snapshot.Classification("HOT_SWAP_FAILURE")`)
}

func TestGenerate_MarkdownDialect(t *testing.T) {
	serr := sampleError(t)

	artifact, err := Generate(DialectMarkdown, serr)
	require.NoError(t, err)

	assert.Contains(t, artifact, "## Given")
	assert.Contains(t, artifact, "## When")
	assert.Contains(t, artifact, "## Then")
	assert.Contains(t, artifact, "HOT_SWAP_FAILURE")
	assert.Contains(t, artifact, "worker-2")
	assert.Contains(t, artifact, "hot-swap of TestService refused by validator")
}

func TestGenerate_UnknownDialect(t *testing.T) {
	_, err := Generate(Dialect("cucumber"), sampleError(t))
	require.Error(t, err)

	var unknown *ErrUnknownDialect
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, Dialect("cucumber"), unknown.Dialect)
}

func TestGenerate_TypeKeyedClassificationFallsBackToFragmentAssert(t *testing.T) {
	// An InvalidStateError marker classifies via errors.As, which the
	// recorded message text cannot reproduce; the generated test must not
	// assert the classification strictly.
	snap := snapshot.Capture(nil, 10, snapshot.Fingerprint{})
	serr := snapshot.Wrap(&snapshot.InvalidStateError{Err: errors.New("request consumed twice")}, snap)
	require.Equal(t, snapshot.InvalidState, serr.Classification)

	artifact, err := Generate(DialectGoTest, serr)
	require.NoError(t, err)
	assert.NotContains(t, artifact, `snapshot.Classification("INVALID_STATE")`)
	assert.Contains(t, artifact, "keyed on the concrete")
}

func TestGenerate_EmptyHistory(t *testing.T) {
	snap := snapshot.Capture(nil, 10, snapshot.Fingerprint{})
	serr := snapshot.Wrap(errors.New("boom"), snap)

	for _, dialect := range []Dialect{DialectGoTest, DialectMarkdown} {
		artifact, err := Generate(dialect, serr)
		require.NoError(t, err, "dialect %s", dialect)
		assert.NotEmpty(t, artifact)
	}
	md, _ := Generate(DialectMarkdown, serr)
	assert.True(t, strings.Contains(md, "(no events were captured)"))
}

func TestMessageFragment_TruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", 200)
	assert.Len(t, messageFragment(long), 80)
	assert.Equal(t, "short", messageFragment("short"))
}
