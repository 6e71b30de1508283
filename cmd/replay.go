package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/reproduction"
	"github.com/rydnr/bytehot/internal/snapshot"
)

var (
	replayTestDialect string
	replayErrorMsg    string
	replayWindow      int
)

// replayCmd loads a persisted event log and either steps through it
// interactively or emits a generated reproduction test for its tail.
var replayCmd = &cobra.Command{
	Use:   "replay <event-log-file>",
	Short: "Step through a persisted event log, or generate a reproduction test",
	Long: `Loads a persisted event log and opens an interactive stepper over its
events. With --test, instead renders a reproduction test artifact for the
last --window events and prints it to stdout.

The reproduced failure is taken from --error-message when given, otherwise
from the last recorded failure event in the log.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	recorded, err := eventlog.ReadAllFromFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read event log %s: %w", args[0], err)
	}
	if len(recorded) == 0 {
		return fmt.Errorf("event log %s contains no events", args[0])
	}

	if replayTestDialect != "" {
		serr := snapshotErrorFromLog(recorded, replayWindow, replayErrorMsg)
		artifact, err := reproduction.Generate(reproduction.Dialect(replayTestDialect), serr)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), artifact)
		return nil
	}

	return interactiveReplay(cmd.OutOrStdout(), recorded, replayWindow, replayErrorMsg)
}

// snapshotErrorFromLog reconstructs a SnapshotError from the tail of a
// persisted log: the last `window` events plus an error derived from
// errMsg, or from the last recorded failure event when errMsg is empty.
func snapshotErrorFromLog(recorded []events.Event, window int, errMsg string) *snapshot.SnapshotError {
	if errMsg == "" {
		errMsg = lastRecordedFailure(recorded)
	}
	snap := snapshot.Capture(recorded, window, snapshot.CaptureFingerprint(""))
	return snapshot.Wrap(errors.New(errMsg), snap)
}

func lastRecordedFailure(recorded []events.Event) string {
	for i := len(recorded) - 1; i >= 0; i-- {
		switch ev := recorded[i].(type) {
		case events.ClassRedefinitionFailed:
			return fmt.Sprintf("hot-swap of %s failed: %s %s", ev.Name, ev.Reason, ev.PlatformError)
		case events.BytecodeRejected:
			return fmt.Sprintf("bytecode for %s rejected: %s", ev.Name, ev.Detail)
		}
	}
	return "no failure event recorded in this log"
}

// interactiveReplay is a readline stepper over the recorded events:
// next/prev move the cursor, show prints the full envelope, report and test
// render artifacts for the window ending at the cursor.
func interactiveReplay(out io.Writer, recorded []events.Event, window int, errMsg string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "replay> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".bytehot_replay_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("next"),
			readline.PcItem("prev"),
			readline.PcItem("show"),
			readline.PcItem("list"),
			readline.PcItem("report"),
			readline.PcItem("test",
				readline.PcItem(string(reproduction.DialectGoTest)),
				readline.PcItem(string(reproduction.DialectMarkdown)),
			),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(out, "%d event(s) loaded. Commands: next, prev, show [n], list, report, test <dialect>, quit\n", len(recorded))
	cursor := 0
	printEvent(out, recorded, cursor)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "next", "n":
			if cursor < len(recorded)-1 {
				cursor++
			}
			printEvent(out, recorded, cursor)
		case "prev", "p":
			if cursor > 0 {
				cursor--
			}
			printEvent(out, recorded, cursor)
		case "show":
			target := cursor
			if len(fields) > 1 {
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 1 || n > len(recorded) {
					fmt.Fprintf(out, "show: expected an event number between 1 and %d\n", len(recorded))
					continue
				}
				target = n - 1
			}
			printEnvelope(out, recorded, target)
		case "list":
			renderEventTable(out, recorded)
		case "report":
			serr := snapshotErrorFromLog(recorded[:cursor+1], window, errMsg)
			report, err := snapshot.Report(serr)
			if err != nil {
				fmt.Fprintf(out, "report: %v\n", err)
				continue
			}
			fmt.Fprintln(out, report)
		case "test":
			dialect := reproduction.DialectGoTest
			if len(fields) > 1 {
				dialect = reproduction.Dialect(fields[1])
			}
			serr := snapshotErrorFromLog(recorded[:cursor+1], window, errMsg)
			artifact, err := reproduction.Generate(dialect, serr)
			if err != nil {
				fmt.Fprintf(out, "test: %v\n", err)
				continue
			}
			fmt.Fprintln(out, artifact)
		case "quit", "exit", "q":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}

func printEvent(out io.Writer, recorded []events.Event, cursor int) {
	e := recorded[cursor]
	fmt.Fprintf(out, "[%d/%d] %s %s — %s\n",
		cursor+1, len(recorded), e.Env().Timestamp.Format("15:04:05.000"), e.Kind(), events.Summarize(e))
}

func printEnvelope(out io.Writer, recorded []events.Event, cursor int) {
	e := recorded[cursor]
	env := e.Env()
	fmt.Fprintf(out, "event       %s\n", env.ID)
	fmt.Fprintf(out, "kind        %s\n", e.Kind())
	fmt.Fprintf(out, "correlation %s\n", env.CorrelationID)
	if env.PrecedingID != "" {
		fmt.Fprintf(out, "preceding   %s\n", env.PrecedingID)
	}
	fmt.Fprintf(out, "aggregate   %s/%s\n", env.AggregateType, env.AggregateID)
	fmt.Fprintf(out, "timestamp   %s\n", env.Timestamp.Format("2006-01-02 15:04:05.000000 MST"))
	fmt.Fprintf(out, "summary     %s\n", events.Summarize(e))
}

func init() {
	replayCmd.Flags().StringVar(&replayTestDialect, "test", "", "emit a reproduction test in this dialect (go-test, markdown) instead of stepping interactively")
	replayCmd.Flags().StringVar(&replayErrorMsg, "error-message", "", "error message the reproduction should assert (default: last recorded failure)")
	replayCmd.Flags().IntVar(&replayWindow, "window", 10, "event count in the reproduced snapshot")
	rootCmd.AddCommand(replayCmd)
}
