package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
)

var (
	eventsLimit int
	eventsKind  string
)

// eventsCmd renders a persisted event log as a table.
var eventsCmd = &cobra.Command{
	Use:   "events <event-log-file>",
	Short: "Show the events recorded in a persisted event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	recorded, err := eventlog.ReadAllFromFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read event log %s: %w", args[0], err)
	}

	filtered := recorded
	if eventsKind != "" {
		filtered = filtered[:0:0]
		for _, e := range recorded {
			if string(e.Kind()) == eventsKind {
				filtered = append(filtered, e)
			}
		}
	}
	if eventsLimit > 0 && len(filtered) > eventsLimit {
		filtered = filtered[len(filtered)-eventsLimit:]
	}

	renderEventTable(cmd.OutOrStdout(), filtered)
	fmt.Fprintf(cmd.OutOrStdout(), "%d event(s)\n", len(filtered))
	return nil
}

func renderEventTable(out io.Writer, evts []events.Event) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Kind", "Correlation", "Aggregate", "Summary"})
	for _, e := range evts {
		env := e.Env()
		t.AppendRow(table.Row{
			env.Timestamp.Format("15:04:05.000"),
			e.Kind(),
			shortID(env.CorrelationID),
			env.AggregateID,
			events.Summarize(e),
		})
	}
	t.Render()
}

// shortID abbreviates a UUID for tabular display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "show only the most recent N events")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "show only events of this kind")
	rootCmd.AddCommand(eventsCmd)
}
