// Package watch implements the File-Watch Dispatcher: recursive directory
// monitoring with glob filtering, debouncing, and overflow recovery,
// delivering ClassFileChanged and WatchOverflow domain events.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/pkg/logging"
)

const subsystem = "FileWatchDispatcher"

// ErrInvalidPath is returned by StartWatching when root does not exist or
// is not a directory.
var ErrInvalidPath = errors.New("watch: path does not exist or is not a directory")

// Registration is one active watch: a root directory, its recursion flag,
// and the filename globs it matches.
type Registration struct {
	ID        string
	Root      string
	Recursive bool
	Patterns  []string
}

type registrationState struct {
	reg         Registration
	watchedDirs map[string]bool
}

type pendingEntry struct {
	path  string
	timer *time.Timer
}

// Config configures a Dispatcher.
type Config struct {
	// DebounceWindow coalesces rapid successive modifications to the same
	// path into a single ClassFileChanged emission. Default 100ms.
	DebounceWindow time.Duration
	// InitialBackoff and MaxBackoff bound the re-registration delay after a
	// watch-queue overflow.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Dispatcher is the File-Watch Dispatcher. One Dispatcher owns exactly one
// underlying fsnotify.Watcher shared across all registrations, since the OS
// watch queue it guards against overflowing is itself a single resource.
type Dispatcher struct {
	mu             sync.Mutex
	watcher        *fsnotify.Watcher
	registrations  map[string]*registrationState
	pending        map[string]*pendingEntry
	debounceWindow time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration
	overflowCount  int
	sink           func(events.Event)
	stopCh         chan struct{}
	running        bool
}

// New builds a Dispatcher. Call Start before StartWatching.
func New(cfg Config) *Dispatcher {
	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = 100 * time.Millisecond
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = time.Minute
	}
	return &Dispatcher{
		registrations:  make(map[string]*registrationState),
		pending:        make(map[string]*pendingEntry),
		debounceWindow: cfg.DebounceWindow,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

// Start opens the underlying OS watcher and begins delivering events to
// sink. sink is called from timer goroutines (debounce flushes and overflow
// re-registration), so calls for different paths may run concurrently and
// sink must be safe for concurrent use.
func (d *Dispatcher) Start(ctx context.Context, sink func(events.Event)) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.watcher = w
	d.sink = sink
	d.stopCh = make(chan struct{})
	d.running = true
	d.mu.Unlock()

	go d.loop(ctx)
	logging.Info(subsystem, "started")
	return nil
}

// Stop closes the underlying watcher and cancels pending debounce timers.
// Stop does not abort any pipeline execution already dispatched for a
// previously-emitted event.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false
	close(d.stopCh)
	for _, p := range d.pending {
		p.timer.Stop()
	}
	d.pending = make(map[string]*pendingEntry)
	err := d.watcher.Close()
	logging.Info(subsystem, "stopped")
	return err
}

// StartWatching registers a new watch over root. root must exist and be a
// directory. Recursive registrations automatically pick up subdirectories
// created after registration.
func (d *Dispatcher) StartWatching(root string, patterns []string, recursive bool) (string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", ErrInvalidPath
	}

	id := uuid.New().String()
	state := &registrationState{
		reg:         Registration{ID: id, Root: root, Recursive: recursive, Patterns: patterns},
		watchedDirs: make(map[string]bool),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.registrations[id] = state
	if err := d.addTreeLocked(state); err != nil {
		delete(d.registrations, id)
		return "", err
	}
	return id, nil
}

// StopWatching cancels a registration. Idempotent: an unknown id is a
// no-op.
func (d *Dispatcher) StopWatching(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.registrations, id)
	// fsnotify has no per-registration unwatch; a directory watched by more
	// than one registration (overlapping roots) must stay watched, so
	// individual fsnotify.Remove calls are deliberately not issued here —
	// handleFsEvent re-checks live registrations before emitting anyway.
	return nil
}

func (d *Dispatcher) addTreeLocked(state *registrationState) error {
	return filepath.WalkDir(state.reg.Root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != state.reg.Root && !state.reg.Recursive {
			return filepath.SkipDir
		}
		if err := d.watcher.Add(path); err != nil {
			return err
		}
		state.watchedDirs[path] = true
		return nil
	})
}

func (d *Dispatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(ev)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.handleWatcherError(err)
		}
	}
}

func (d *Dispatcher) handleFsEvent(ev fsnotify.Event) {
	info, statErr := os.Stat(ev.Name)
	if ev.Op&fsnotify.Create == fsnotify.Create && statErr == nil && info.IsDir() {
		d.mu.Lock()
		for _, state := range d.registrations {
			if state.reg.Recursive && isWithin(state.reg.Root, ev.Name) {
				if err := d.watcher.Add(ev.Name); err != nil {
					logging.Warn(subsystem, "failed to add watch for new directory %s: %v", ev.Name, err)
				} else {
					state.watchedDirs[ev.Name] = true
				}
			}
		}
		d.mu.Unlock()
		return
	}

	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	d.mu.Lock()
	matched := false
	for _, state := range d.registrations {
		if isWithin(state.reg.Root, ev.Name) && matchesAny(state.reg.Patterns, ev.Name) {
			matched = true
			break
		}
	}
	d.mu.Unlock()
	if !matched {
		return
	}

	d.debounce(ev.Name)
}

func (d *Dispatcher) debounce(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.pending[path]; ok {
		entry.timer.Stop()
	}

	timer := time.AfterFunc(d.debounceWindow, func() { d.flush(path) })
	d.pending[path] = &pendingEntry{path: path, timer: timer}
}

func (d *Dispatcher) flush(path string) {
	d.mu.Lock()
	_, ok := d.pending[path]
	delete(d.pending, path)
	sink := d.sink
	d.mu.Unlock()
	if !ok || sink == nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logging.Warn(subsystem, "stat %s after debounce: %v", path, err)
		return
	}

	sink(events.ClassFileChanged{
		Envelope:  events.NewEnvelope("File", path),
		Path:      path,
		ClassName: classNameFromPath(path),
		Size:      info.Size(),
	})
}

func (d *Dispatcher) handleWatcherError(err error) {
	if !errors.Is(err, fsnotify.ErrEventOverflow) {
		logging.Error(subsystem, err, "filesystem watcher error")
		return
	}

	d.mu.Lock()
	d.overflowCount++
	attempt := d.overflowCount
	roots := make([]*registrationState, 0, len(d.registrations))
	for _, state := range d.registrations {
		roots = append(roots, state)
	}
	sink := d.sink
	d.mu.Unlock()

	backoff := calculateBackoff(d.initialBackoff, d.maxBackoff, attempt)
	logging.Warn(subsystem, "watch queue overflow, re-registering %d root(s) after %s", len(roots), backoff)

	time.AfterFunc(backoff, func() {
		for _, state := range roots {
			d.mu.Lock()
			state.watchedDirs = make(map[string]bool)
			err := d.addTreeLocked(state)
			d.mu.Unlock()
			if err != nil {
				logging.Error(subsystem, err, "failed to re-register watch root %s after overflow", state.reg.Root)
				continue
			}
			if sink != nil {
				sink(events.WatchOverflow{Envelope: events.NewEnvelope("WatchRegistration", state.reg.ID), Path: state.reg.Root})
			}
		}
	})
}

// calculateBackoff grows exponentially from initial, capped at max.
func calculateBackoff(initial, max time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			return max
		}
	}
	if backoff > max {
		return max
	}
	return backoff
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchesAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// classNameFromPath derives a best-effort class name from a `*.class` file
// path: the basename without extension. A real deployment's path-to-class
// mapping depends on the platform's classpath layout, which is outside
// this dispatcher's concern — it only reports what changed on disk.
func classNameFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
