// Package reproduction implements the Reproduction Test Generator: turning
// an EventSnapshot plus its wrapped error into a replayable test artifact
// with canonical Given / When / Then sections.
package reproduction

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/snapshot"
)

// Dialect selects the output flavor of a generated artifact. The structure
// (Given / When / Then) is fixed; only the rendering differs.
type Dialect string

const (
	// DialectGoTest renders a self-contained Go test file body.
	DialectGoTest Dialect = "go-test"
	// DialectMarkdown renders a human-readable Given/When/Then narrative.
	DialectMarkdown Dialect = "markdown"
)

// ErrUnknownDialect is returned by Generate for a Dialect outside the
// supported set.
type ErrUnknownDialect struct{ Dialect Dialect }

func (e *ErrUnknownDialect) Error() string {
	return fmt.Sprintf("reproduction: unknown dialect %q (supported: %s, %s)", e.Dialect, DialectGoTest, DialectMarkdown)
}

type eventLine struct {
	Kind    string
	Summary string
	// Encoded is the event's persistent record, base64-encoded, so a
	// generated test can reconstruct the exact event via eventlog.DecodeRecord
	// without quoting every field.
	Encoded string
}

type artifactData struct {
	ErrorID         string
	Classification  string
	ErrorMessage    string
	MessageFragment string
	GoroutineHint   string
	GOOS            string
	GOARCH          string
	Events          []eventLine
	TestName        string
	// ClassifiableFromMessage is true when re-deriving the classification
	// from the recorded message text alone reproduces the captured one.
	// Classifications keyed on concrete error types (fs.PathError, marker
	// wrappers) cannot be reconstructed from text, so the generated Then
	// section only asserts the message fragment for those.
	ClassifiableFromMessage bool
}

// goTestTemplate emits a runnable _test.go body. The Given section rebuilds
// the event history from embedded persistent records, When replays them
// through a fresh Log, and Then asserts a message fragment, plus the error
// classification when ClassifiableFromMessage is set.
const goTestTemplate = `package reproduction_test

// Generated reproduction test for error {{ .ErrorID }}.
// Classification: {{ .Classification }}

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/snapshot"
)

func Test{{ .TestName }}(t *testing.T) {
	// Given: the event history leading up to the failure, oldest first.
	encoded := []string{
{{- range .Events }}
		// {{ .Kind }}: {{ .Summary }}
		"{{ .Encoded }}",
{{- end }}
	}

	history := make([]events.Event, 0, len(encoded))
	for _, record := range encoded {
		payload, err := base64.StdEncoding.DecodeString(record)
		require.NoError(t, err)
		e, err := eventlog.DecodeRecord(payload)
		require.NoError(t, err)
		history = append(history, e)
	}

	// When: the events are replayed through a fresh log in their original
	// order, followed by the recorded failure.
	log := eventlog.New()
	for _, e := range history {
		log.Append(e)
	}
	recorded := errors.New({{ printf "%q" .ErrorMessage }})

	// Then: the replayed history matches the captured window and the failure
	// carries the recorded kind and message.
	require.Equal(t, len(history), log.Len())
	replayed := log.Recent(len(history))
	for i, e := range history {
		assert.Equal(t, e.Env().ID, replayed[i].Env().ID)
		assert.Equal(t, e.Kind(), replayed[i].Kind())
	}

	assert.Contains(t, recorded.Error(), {{ printf "%q" .MessageFragment }})
{{- if .ClassifiableFromMessage }}
	assert.Equal(t, snapshot.Classification("{{ .Classification }}"), snapshot.Classify(recorded))
{{- else }}
	// Recorded classification {{ .Classification }} is keyed on the concrete
	// error type, which text alone cannot reconstruct.
	_ = snapshot.Classify(recorded)
{{- end }}
}
`

const markdownTemplate = `# Reproduction: error {{ .ErrorID }}

## Given

Environment: {{ .GOOS }}/{{ .GOARCH }}{{ if .GoroutineHint }}, worker {{ .GoroutineHint }}{{ end }}.

Event history, oldest first:

{{ if .Events -}}
{{- range $i, $e := .Events }}
{{ add $i 1 }}. **{{ $e.Kind }}** — {{ $e.Summary }}
{{- end }}
{{- else -}}
(no events were captured)
{{- end }}

## When

The events above are replayed in order through the pipeline.

## Then

The pipeline fails with classification **{{ .Classification }}** and an error
message containing:

    {{ .MessageFragment }}
`

// Generate renders serr's snapshot as a test artifact in the requested
// dialect.
func Generate(dialect Dialect, serr *snapshot.SnapshotError) (string, error) {
	var text string
	switch dialect {
	case DialectGoTest:
		text = goTestTemplate
	case DialectMarkdown:
		text = markdownTemplate
	default:
		return "", &ErrUnknownDialect{Dialect: dialect}
	}

	tmpl, err := template.New(string(dialect)).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("reproduction: parse %s template: %w", dialect, err)
	}

	lines := make([]eventLine, 0, len(serr.Snapshot.Events))
	for _, e := range serr.Snapshot.Events {
		payload, err := eventlog.EncodeRecord(e)
		if err != nil {
			return "", fmt.Errorf("reproduction: encode %s event: %w", e.Kind(), err)
		}
		lines = append(lines, eventLine{
			Kind:    string(e.Kind()),
			Summary: events.Summarize(e),
			Encoded: base64.StdEncoding.EncodeToString(payload),
		})
	}

	msg := serr.Underlying.Error()
	data := artifactData{
		ErrorID:                 serr.ErrorID,
		Classification:          string(serr.Classification),
		ErrorMessage:            msg,
		MessageFragment:         messageFragment(msg),
		GoroutineHint:           serr.Snapshot.Fingerprint.GoroutineHint,
		GOOS:                    serr.Snapshot.Fingerprint.GOOS,
		GOARCH:                  serr.Snapshot.Fingerprint.GOARCH,
		Events:                  lines,
		TestName:                testName(serr),
		ClassifiableFromMessage: snapshot.Classify(errors.New(msg)) == serr.Classification,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("reproduction: render %s artifact: %w", dialect, err)
	}
	return buf.String(), nil
}

// messageFragment picks a stable substring of the error message for the Then
// assertion: the whole message when short, a prefix otherwise, so the
// generated test survives incidental suffix changes (timestamps, ids).
func messageFragment(msg string) string {
	const maxFragment = 80
	if len(msg) <= maxFragment {
		return msg
	}
	return msg[:maxFragment]
}

// testName derives a Go identifier from the error id, e.g.
// Reproduction_2f9c01ab.
func testName(serr *snapshot.SnapshotError) string {
	id := serr.ErrorID
	clean := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			clean = append(clean, r)
		}
		if len(clean) == 8 {
			break
		}
	}
	return "Reproduction_" + string(clean)
}
