// Package eventlog implements ByteHot's Event Log: an append-only,
// totally-ordered record of every DomainEvent, with multi-reader snapshot
// views and an optional persisted on-disk representation.
package eventlog

import (
	"sync"

	"github.com/rydnr/bytehot/internal/events"
	"github.com/rydnr/bytehot/pkg/logging"
)

const subsystem = "EventLog"

// Log is a single-writer, multi-reader append-only sequence of events.
// It never deletes or mutates an appended event.
type Log struct {
	mu   sync.Mutex
	all  []events.Event
	subs map[int]chan events.Event
	next int

	writer *Writer // optional persistence; nil disables it
}

// Option configures a Log at construction time.
type Option func(*Log)

// WithWriter enables persistence: every appended event is also written to
// the given Writer. A write failure is logged but never blocks or drops
// the in-memory append, since persistence is optional for correctness
// (spec: "its absence only loses history across process restarts").
func WithWriter(w *Writer) Option {
	return func(l *Log) { l.writer = w }
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{subs: make(map[int]chan events.Event)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds an event to the end of the log and returns its id. Append
// order for a given process is the total order readers observe.
func (l *Log) Append(e events.Event) string {
	l.mu.Lock()
	l.all = append(l.all, e)
	subs := make([]chan events.Event, 0, len(l.subs))
	for _, ch := range l.subs {
		subs = append(subs, ch)
	}
	l.mu.Unlock()

	if l.writer != nil {
		if err := l.writer.Write(e); err != nil {
			logging.Warn(subsystem, "failed to persist event %s: %v", e.Env().ID, err)
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			logging.Warn(subsystem, "subscriber channel full, dropping event %s for slow consumer", e.Env().ID)
		}
	}

	return e.Env().ID
}

// Recent returns up to n of the most recently appended events, in
// chronological (append) order.
func (l *Log) Recent(n int) []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || len(l.all) == 0 {
		return nil
	}
	if n > len(l.all) {
		n = len(l.all)
	}
	start := len(l.all) - n
	out := make([]events.Event, n)
	copy(out, l.all[start:])
	return out
}

// Len returns the total number of events appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.all)
}

// Subscribe registers a new listener and returns a receive-only channel of
// future events plus a cancel function that unregisters it. The channel is
// buffered; a slow subscriber drops events rather than blocking Append.
func (l *Log) Subscribe() (<-chan events.Event, func()) {
	l.mu.Lock()
	id := l.next
	l.next++
	ch := make(chan events.Event, 64)
	l.subs[id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}
