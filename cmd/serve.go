package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rydnr/bytehot/internal/config"
	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/hotswap"
	"github.com/rydnr/bytehot/internal/instances"
	"github.com/rydnr/bytehot/internal/instrumentation"
	"github.com/rydnr/bytehot/internal/pipeline"
	"github.com/rydnr/bytehot/internal/snapshot"
	"github.com/rydnr/bytehot/internal/watch"
	"github.com/rydnr/bytehot/pkg/logging"
)

var (
	// serveDebug enables verbose logging across the application.
	serveDebug bool
	// serveConfigPath specifies a custom configuration directory. When empty
	// the per-user config directory is used.
	serveConfigPath string
	// serveEventLogFile enables the persisted event log, overriding the
	// config file's event_log_file.
	serveEventLogFile string
	// serveReportDir is where bug reports for unhandled pipeline errors are
	// written.
	serveReportDir string
)

// serveCmd starts the full pipeline: dispatcher, driver, manager, updater,
// event log.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hot-swap pipeline against the configured watch roots",
	Long: `Starts the File-Watch Dispatcher over every configured watch root,
runs each detected class change through the hot-swap pipeline, and appends
every emitted event to the event log.

Configuration is read from config.yaml in the configuration directory
(default: ~/.config/bytehot, override with --config-path). Without an
attached instrumentation backend all redefinition requests are rejected
with UnsupportedChange; this honest-failure mode still exercises watching,
validation, and the event log.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	configPath := serveConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if serveEventLogFile != "" {
		cfg.EventLogFile = serveEventLogFile
	}
	if len(cfg.Watch.Roots) == 0 {
		return fmt.Errorf("no watch roots configured; set watch.roots in %s", filepath.Join(configPath, "config.yaml"))
	}

	var logOpts []eventlog.Option
	if cfg.EventLogFile != "" {
		writer, err := eventlog.OpenFile(cfg.EventLogFile)
		if err != nil {
			return err
		}
		defer writer.Close()
		logOpts = append(logOpts, eventlog.WithWriter(writer))
	}
	log := eventlog.New(logOpts...)

	tracker := instances.New()
	manager := hotswap.New(hotswap.Config{
		Port:              instrumentation.NewUnsupportedPort(),
		Tracker:           tracker,
		Updater:           instances.NewUpdater(instances.DefaultStrategyRules()),
		EnabledStrategies: enabledStrategies(cfg),
		RedefineTimeout:   time.Duration(cfg.Redefine.TimeoutMS) * time.Millisecond,
	})

	driver := pipeline.New(pipeline.Config{
		Log:            log,
		Manager:        manager,
		Workers:        cfg.Workers,
		SnapshotWindow: cfg.Snapshot.Window,
		OnError:        writeBugReport,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	driver.Start(ctx)

	primeBaselines(driver, cfg)

	dispatcher := watch.New(watch.Config{
		DebounceWindow: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
	})
	if err := dispatcher.Start(ctx, driver.HandleEvent); err != nil {
		return err
	}
	defer dispatcher.Stop()

	for _, root := range cfg.Watch.Roots {
		id, err := dispatcher.StartWatching(root, cfg.Watch.Patterns, cfg.Watch.IsRecursive())
		if err != nil {
			return fmt.Errorf("cannot watch %s: %w", root, err)
		}
		logging.Audit(logging.AuditEvent{Action: "watch_register", Outcome: "success", Target: root, Details: id})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bytehot watching %d root(s); press Ctrl-C to stop\n", len(cfg.Watch.Roots))
	<-ctx.Done()

	driver.Stop()
	driver.Wait()
	return nil
}

// primeBaselines seeds the driver with every artifact currently on disk, so
// the first change to a known class validates against the loaded version
// rather than being rejected as Unknown.
func primeBaselines(driver *pipeline.Driver, cfg config.Config) {
	seeded := 0
	for _, root := range cfg.Watch.Roots {
		filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			matched := false
			for _, pattern := range cfg.Watch.Patterns {
				if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				logging.Warn("Serve", "cannot read %s while priming baselines: %v", path, err)
				return nil
			}
			if err := driver.SeedBaseline(data); err != nil {
				logging.Warn("Serve", "cannot seed baseline from %s: %v", path, err)
				return nil
			}
			seeded++
			return nil
		})
	}
	logging.Info("Serve", "primed %d baseline(s) from disk", seeded)
}

func enabledStrategies(cfg config.Config) map[instances.UpdateMethod]bool {
	out := make(map[instances.UpdateMethod]bool)
	if len(cfg.Update.EnabledStrategies) == 0 {
		for _, m := range []instances.UpdateMethod{
			instances.AUTOMATIC, instances.REFLECTION, instances.PROXY_REFRESH,
			instances.FACTORY_RESET, instances.NO_UPDATE,
		} {
			out[m] = true
		}
		return out
	}
	for _, s := range cfg.Update.EnabledStrategies {
		out[instances.UpdateMethod(s)] = true
	}
	return out
}

// writeBugReport renders the bug report for an unhandled pipeline error into
// the report directory (default: working directory).
func writeBugReport(serr *snapshot.SnapshotError) {
	report, err := snapshot.Report(serr)
	if err != nil {
		logging.Error("Serve", err, "failed to render bug report for %s", serr.ErrorID)
		return
	}
	name := filepath.Join(serveReportDir, "bytehot-bug-"+serr.ErrorID+".md")
	if err := os.WriteFile(name, []byte(report), 0o644); err != nil {
		logging.Error("Serve", err, "failed to write bug report %s", name)
		return
	}
	logging.Info("Serve", "wrote bug report %s", name)
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "configuration directory (default: ~/.config/bytehot)")
	serveCmd.Flags().StringVar(&serveEventLogFile, "event-log-file", "", "persist every event to this file")
	serveCmd.Flags().StringVar(&serveReportDir, "report-dir", ".", "directory for bug reports on unhandled errors")
	rootCmd.AddCommand(serveCmd)
}
