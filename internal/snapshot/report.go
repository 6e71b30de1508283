package snapshot

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/rydnr/bytehot/internal/events"
)

// reportTemplate renders the human-readable bug report. Its five section
// headings are stable: downstream tooling greps for them.
const reportTemplate = `# Bug Report {{ .ErrorID }}

## Error Summary

- **Classification:** {{ .Classification }}
- **Error:** {{ .ErrorMessage }}
- **Captured:** {{ .CapturedAt }}

## Event Context

{{ if .Events -}}
The last {{ len .Events }} event(s) before the failure, oldest first:

| # | Kind | Correlation | Summary |
|---|------|-------------|---------|
{{- range $i, $e := .Events }}
| {{ add $i 1 }} | {{ $e.Kind }} | {{ trunc 8 $e.CorrelationID }} | {{ $e.Summary }} |
{{- end }}
{{- else -}}
No events were recorded before the failure.
{{- end }}

## System State

- **Goroutine:** {{ .Fingerprint.GoroutineHint | default "unknown" }}
- **OS/Arch:** {{ .Fingerprint.GOOS }}/{{ .Fingerprint.GOARCH }}
- **CPUs:** {{ .Fingerprint.NumCPU }}
- **Goroutines at capture:** {{ .Fingerprint.NumGoroutine }}

## Reproduction

Replay the persisted event log around this failure with:

    bytehot replay <event-log-file>

or generate a standalone reproduction test from the snapshot:

    bytehot replay --test go-test <event-log-file>

## Stack Trace

` + "```" + `
{{ .Stack | trim }}
` + "```" + `
`

type reportEventRow struct {
	Kind          string
	CorrelationID string
	Summary       string
}

type reportData struct {
	ErrorID        string
	Classification Classification
	ErrorMessage   string
	CapturedAt     string
	Events         []reportEventRow
	Fingerprint    Fingerprint
	Stack          string
}

// Report renders serr as a Markdown bug report with the five canonical
// sections: Error Summary, Event Context, System State, Reproduction, Stack
// Trace.
func Report(serr *SnapshotError) (string, error) {
	tmpl, err := template.New("bugreport").Funcs(sprig.TxtFuncMap()).Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("snapshot: parse report template: %w", err)
	}

	rows := make([]reportEventRow, 0, len(serr.Snapshot.Events))
	for _, e := range serr.Snapshot.Events {
		rows = append(rows, reportEventRow{
			Kind:          string(e.Kind()),
			CorrelationID: e.Env().CorrelationID,
			Summary:       events.Summarize(e),
		})
	}

	data := reportData{
		ErrorID:        serr.ErrorID,
		Classification: serr.Classification,
		ErrorMessage:   serr.Underlying.Error(),
		CapturedAt:     serr.Snapshot.CapturedAt.Format("2006-01-02 15:04:05.000 MST"),
		Events:         rows,
		Fingerprint:    serr.Snapshot.Fingerprint,
		Stack:          serr.Stack,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("snapshot: render report: %w", err)
	}
	return buf.String(), nil
}
