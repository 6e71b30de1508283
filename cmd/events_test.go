package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
)

func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.log")
	writer, err := eventlog.OpenFile(path)
	require.NoError(t, err)
	defer writer.Close()

	fileEv := events.ClassFileChanged{
		Envelope:  events.NewEnvelope("File", "/tmp/classes/TestService.class"),
		Path:      "/tmp/classes/TestService.class",
		ClassName: "TestService",
		Size:      512,
	}
	require.NoError(t, writer.Write(fileEv))
	require.NoError(t, writer.Write(events.BytecodeRejected{
		Envelope: events.Caused(fileEv.Envelope, "Class", "TestService"),
		Path:     fileEv.Path,
		Name:     "TestService",
		Detail:   "SchemaIncompatible: supertype or interface set changed",
	}))
	return path
}

func TestRenderEventTable(t *testing.T) {
	recorded, err := eventlog.ReadAllFromFile(writeSampleLog(t))
	require.NoError(t, err)
	require.Len(t, recorded, 2)

	var buf bytes.Buffer
	renderEventTable(&buf, recorded)

	out := buf.String()
	assert.Contains(t, out, "ClassFileChanged")
	assert.Contains(t, out, "BytecodeRejected")
	assert.Contains(t, out, "TestService")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("123456789abcdef"))
	assert.Equal(t, "short", shortID("short"))
}

func TestLastRecordedFailure(t *testing.T) {
	recorded, err := eventlog.ReadAllFromFile(writeSampleLog(t))
	require.NoError(t, err)

	msg := lastRecordedFailure(recorded)
	assert.Contains(t, msg, "TestService")
	assert.Contains(t, msg, "SchemaIncompatible")
}

func TestSnapshotErrorFromLog(t *testing.T) {
	recorded, err := eventlog.ReadAllFromFile(writeSampleLog(t))
	require.NoError(t, err)

	serr := snapshotErrorFromLog(recorded, 10, "")
	assert.Len(t, serr.Snapshot.Events, 2)
	assert.Contains(t, serr.Underlying.Error(), "rejected")

	custom := snapshotErrorFromLog(recorded, 1, "hot-swap exploded")
	assert.Len(t, custom.Snapshot.Events, 1)
	assert.Contains(t, custom.Underlying.Error(), "exploded")
}
