package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_FiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)
	defer Init(LevelInfo, nil)

	Debug("Test", "this should not appear")
	Info("Test", "neither should this")
	Warn("Test", "this should appear")

	out := buf.String()
	assert.NotContains(t, out, "this should not appear")
	assert.NotContains(t, out, "neither should this")
	assert.Contains(t, out, "this should appear")
}

func TestError_IncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, &buf)
	defer Init(LevelInfo, nil)

	Error("Test", assertError("boom"), "operation failed")

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "boom")
}

func TestAudit_FormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelInfo, nil)

	Audit(AuditEvent{
		Action:  "hot_swap",
		Outcome: "success",
		Target:  "com.example.Service",
	})

	out := buf.String()
	assert.True(t, strings.Contains(out, "action=hot_swap"))
	assert.True(t, strings.Contains(out, "outcome=success"))
	assert.True(t, strings.Contains(out, "target=com.example.Service"))
}

type testErr string

func (e testErr) Error() string { return string(e) }

func assertError(msg string) error { return testErr(msg) }
