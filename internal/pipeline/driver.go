// Package pipeline implements the Pipeline Driver: it consumes watch
// events, runs each detected class change through Analyzer, Validator,
// Hot-Swap Manager, and Instance Updater in order, and appends every
// emitted event to the Event Log. Requests for the same class are
// serialized; requests across classes proceed concurrently.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rydnr/bytehot/internal/bytecode"
	"github.com/rydnr/bytehot/internal/eventlog"
	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/internal/hotswap"
	"github.com/rydnr/bytehot/internal/snapshot"
	"github.com/rydnr/bytehot/pkg/logging"
)

const subsystem = "PipelineDriver"

// baseline is the last-known-applied artifact for one class: what the
// loaded class's bytecode looked like the last time the platform accepted
// it (or the first observation, before any redefinition).
type baseline struct {
	bytes []byte
	meta  bytecode.Metadata
}

// Config configures a Driver.
type Config struct {
	Log     *eventlog.Log
	Manager *hotswap.Manager
	// Workers bounds the worker pool. Defaults to 4.
	Workers int
	// SnapshotWindow is the event count captured on an unhandled error.
	// Defaults to 10.
	SnapshotWindow int
	// QueueDepth bounds the submit queue between the dispatcher's goroutine
	// and the worker pool. Defaults to 256.
	QueueDepth int
	// OnError receives every snapshot-bearing error the driver produces for
	// an unhandled condition. Optional; errors are logged either way.
	OnError func(*snapshot.SnapshotError)
}

// Driver wires the pipeline together. Create with New, then Start; feed it
// events via HandleEvent (typically as the File-Watch Dispatcher's sink).
type Driver struct {
	log            *eventlog.Log
	manager        *hotswap.Manager
	workers        int
	snapshotWindow int
	onError        func(*snapshot.SnapshotError)

	mu        sync.Mutex
	classSems map[string]*semaphore.Weighted
	baselines map[string]baseline

	queue chan events.ClassFileChanged
	group *errgroup.Group
	ctx   context.Context

	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a Driver from cfg.
func New(cfg Config) *Driver {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SnapshotWindow <= 0 {
		cfg.SnapshotWindow = 10
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 256
	}
	return &Driver{
		log:            cfg.Log,
		manager:        cfg.Manager,
		workers:        cfg.Workers,
		snapshotWindow: cfg.SnapshotWindow,
		onError:        cfg.OnError,
		classSems:      make(map[string]*semaphore.Weighted),
		baselines:      make(map[string]baseline),
		queue:          make(chan events.ClassFileChanged, cfg.QueueDepth),
	}
}

// Start launches the worker pool. Workers drain the submit queue until ctx
// is cancelled and the queue has been closed via Stop.
func (d *Driver) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		d.group = g
		d.ctx = gctx
		for i := 0; i < d.workers; i++ {
			worker := i
			g.Go(func() error {
				d.runWorker(worker)
				return nil
			})
		}
		logging.Info(subsystem, "started %d worker(s)", d.workers)
	})
}

// Stop closes the submit queue; workers finish what is queued, then exit.
// Wait for them with Wait. An event already dispatched keeps running — stop
// of the watch side never aborts an in-flight pipeline execution.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.queue) })
}

// Wait blocks until every worker has exited.
func (d *Driver) Wait() {
	if d.group != nil {
		d.group.Wait()
	}
}

// HandleEvent is the dispatcher-facing sink. Every event is appended to the
// Event Log; a ClassFileChanged additionally enqueues a pipeline execution.
func (d *Driver) HandleEvent(e events.Event) {
	d.log.Append(e)

	fileEv, ok := e.(events.ClassFileChanged)
	if !ok {
		return
	}
	select {
	case d.queue <- fileEv:
	default:
		logging.Warn(subsystem, "submit queue full, dropping change for %s", fileEv.Path)
	}
}

// SeedBaseline records data as the last-known-applied artifact for its
// class, so the next observed change can be validated against it. Used at
// startup to prime baselines from the artifacts already on disk (which are
// the versions the platform has loaded).
func (d *Driver) SeedBaseline(data []byte) error {
	meta, err := bytecode.Parse(data)
	if err != nil {
		return fmt.Errorf("pipeline: seed baseline: %w", err)
	}
	d.setBaseline(meta.Name, data, meta)
	logging.Debug(subsystem, "seeded baseline for %s (%d bytes)", meta.Name, len(data))
	return nil
}

func (d *Driver) runWorker(id int) {
	hint := fmt.Sprintf("pipeline-worker-%d", id)
	for {
		select {
		case <-d.ctx.Done():
			return
		case fileEv, ok := <-d.queue:
			if !ok {
				return
			}
			d.runSerialized(hint, fileEv)
		}
	}
}

// runSerialized holds the per-class semaphore for the duration of one
// pipeline execution: at most one request per class is in flight, and
// waiters are served in arrival order.
func (d *Driver) runSerialized(hint string, fileEv events.ClassFileChanged) {
	sem := d.semFor(fileEv.ClassName)
	if err := sem.Acquire(d.ctx, 1); err != nil {
		return
	}
	defer sem.Release(1)
	d.process(hint, fileEv)
}

func (d *Driver) semFor(class string) *semaphore.Weighted {
	d.mu.Lock()
	defer d.mu.Unlock()
	sem, ok := d.classSems[class]
	if !ok {
		sem = semaphore.NewWeighted(1)
		d.classSems[class] = sem
	}
	return sem
}

func (d *Driver) getBaseline(class string) (baseline, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.baselines[class]
	return b, ok
}

func (d *Driver) setBaseline(class string, data []byte, meta bytecode.Metadata) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baselines[class] = baseline{bytes: data, meta: meta}
}

// process runs one detected change through the full pipeline. Any panic is
// converted into a snapshot-bearing classified error rather than killing
// the worker.
func (d *Driver) process(hint string, fileEv events.ClassFileChanged) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			d.surfaceUnhandled(hint, err)
		}
	}()

	data, err := os.ReadFile(fileEv.Path)
	if err != nil {
		// I/O failures surface as a redefinition failure before redefinition
		// is attempted.
		d.log.Append(events.ClassRedefinitionFailed{
			Envelope:      events.Caused(fileEv.Envelope, "Class", fileEv.ClassName),
			Name:          fileEv.ClassName,
			Path:          fileEv.Path,
			Reason:        "IOError",
			PlatformError: err.Error(),
			RecoveryHint:  "verify the artifact is readable and was not deleted mid-write",
		})
		logging.Error(subsystem, err, "failed to read artifact %s", fileEv.Path)
		return
	}

	meta, err := bytecode.Parse(data)
	if err != nil {
		d.log.Append(events.BytecodeRejected{
			Envelope: events.Caused(fileEv.Envelope, "Class", fileEv.ClassName),
			Path:     fileEv.Path,
			Name:     fileEv.ClassName,
			Detail:   "ParseError: " + err.Error(),
		})
		logging.Warn(subsystem, "artifact %s did not parse: %v", fileEv.Path, err)
		return
	}

	metaEv := events.ClassMetadataExtracted{
		Envelope:   events.Caused(fileEv.Envelope, "Class", meta.Name),
		Path:       fileEv.Path,
		Name:       meta.Name,
		Super:      meta.Super,
		Interfaces: meta.Interfaces,
		Fields:     meta.Fields,
		Methods:    meta.Methods,
	}
	d.log.Append(metaEv)

	base, haveBase := d.getBaseline(meta.Name)
	req := hotswap.Request{
		Path:          fileEv.Path,
		ClassName:     meta.Name,
		OriginalBytes: base.bytes,
		NewBytes:      data,
		OriginalMeta:  base.meta,
		NewMeta:       meta,
		HaveOriginal:  haveBase,
		CausalEnv:     metaEv.Envelope,
	}

	result := d.manager.Process(req)
	for _, e := range result.Events {
		d.log.Append(e)
	}

	switch result.State {
	case hotswap.StateCompleted, hotswap.StatePartiallyCompleted:
		// The platform accepted the new bytes; they are the baseline for the
		// next change.
		d.setBaseline(meta.Name, data, meta)
	case hotswap.StateRejected:
		if !haveBase {
			// First observation of a class: nothing to compare against, so
			// the change was rejected as Unknown. Record what we saw as the
			// baseline so the next change can be validated properly.
			d.setBaseline(meta.Name, data, meta)
		}
	}
}

// surfaceUnhandled wraps err with a snapshot of the recent event history and
// hands it to the configured error sink.
func (d *Driver) surfaceUnhandled(hint string, err error) {
	snap := snapshot.Capture(d.log.Recent(d.snapshotWindow), d.snapshotWindow, snapshot.CaptureFingerprint(hint))
	serr := snapshot.Wrap(err, snap)
	logging.Error(subsystem, serr, "unhandled pipeline error %s", serr.ErrorID)
	if d.onError != nil {
		d.onError(serr)
	}
}
