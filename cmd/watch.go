package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/watch"
	"github.com/rydnr/bytehot/pkg/logging"
)

var (
	watchPatterns     []string
	watchNonRecursive bool
	watchDebounceMS   int
)

// watchCmd runs the File-Watch Dispatcher stand-alone: no pipeline, just the
// debounced change stream printed to stdout. Useful for checking that a
// directory, pattern set, and debounce window behave as expected before
// pointing serve at them.
var watchCmd = &cobra.Command{
	Use:   "watch <directory>...",
	Short: "Watch directories and print debounced change events",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logging.Init(logging.LevelWarn, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Watching for class changes... (Ctrl-C to stop)"

	dispatcher := watch.New(watch.Config{
		DebounceWindow: time.Duration(watchDebounceMS) * time.Millisecond,
	})
	sink := func(e events.Event) {
		s.Stop()
		switch ev := e.(type) {
		case events.ClassFileChanged:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%d bytes)\n",
				ev.Env().Timestamp.Format("15:04:05.000"), ev.Path, ev.Size)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				ev.Env().Timestamp.Format("15:04:05.000"), events.Summarize(e))
		}
		s.Start()
	}
	if err := dispatcher.Start(ctx, sink); err != nil {
		return err
	}
	defer dispatcher.Stop()

	for _, root := range args {
		if _, err := dispatcher.StartWatching(root, watchPatterns, !watchNonRecursive); err != nil {
			return fmt.Errorf("cannot watch %s: %w", root, err)
		}
	}

	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchPatterns, "pattern", []string{"*.class"}, "filename globs to match")
	watchCmd.Flags().BoolVar(&watchNonRecursive, "no-recursive", false, "do not descend into subdirectories")
	watchCmd.Flags().IntVar(&watchDebounceMS, "debounce-ms", 100, "debounce window per path")
	rootCmd.AddCommand(watchCmd)
}
