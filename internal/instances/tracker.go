package instances

import (
	"sync"
	"weak"
)

// weakRef erases the generic type parameter of weak.Pointer[T] so a single
// Tracker can hold references to instances of many different concrete Go
// types under one class-name key, since JVM-style class identity has no
// single matching Go type.
type weakRef interface {
	// value returns the referent, or nil if it has been reclaimed.
	value() any
}

type typedWeakRef[T any] struct {
	p weak.Pointer[T]
}

func (w typedWeakRef[T]) value() any {
	v := w.p.Value()
	if v == nil {
		return nil
	}
	return v
}

type bucket struct {
	mu      sync.Mutex
	enabled bool
	refs    []weakRef
}

// Tracker is the Instance Tracker: a class-identity-keyed registry of weak
// references to live instances. It never extends the lifetime of anything
// it tracks.
type Tracker struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{buckets: make(map[string]*bucket)}
}

func (t *Tracker) bucketFor(class string, createIfMissing bool) *bucket {
	t.mu.RLock()
	b, ok := t.buckets[class]
	t.mu.RUnlock()
	if ok || !createIfMissing {
		return b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.buckets[class]; ok {
		return b
	}
	b = &bucket{}
	t.buckets[class] = b
	return b
}

// Enable marks class as tracked, so Count/InstancesOf/Sweep recognize it
// even before any instance has been registered.
func (t *Tracker) Enable(class string) {
	b := t.bucketFor(class, true)
	b.mu.Lock()
	b.enabled = true
	b.mu.Unlock()
}

// IsTracked reports whether class has been Enable'd.
func (t *Tracker) IsTracked(class string) bool {
	b := t.bucketFor(class, false)
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Track registers obj as a live instance of class. Track is a free
// function, not a Tracker method, because Go forbids a generic type
// parameter on a method — T is fixed by obj's static type at the call
// site, same as weak.Make itself requires.
func Track[T any](t *Tracker, class string, obj *T) {
	b := t.bucketFor(class, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = true
	b.refs = append(b.refs, typedWeakRef[T]{p: weak.Make(obj)})
}

// Count returns the number of currently-live instances of class. It always
// reflects liveness at the moment of the call — the registry re-checks
// each weak reference rather than relying on the last Sweep.
func (t *Tracker) Count(class string) int {
	return len(t.InstancesOf(class))
}

// InstancesOf returns every currently-live instance of class.
func (t *Tracker) InstancesOf(class string) []any {
	b := t.bucketFor(class, false)
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]any, 0, len(b.refs))
	for _, r := range b.refs {
		if v := r.value(); v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Sweep purges dead references from every tracked class's bookkeeping.
// Per-class, Sweep takes exclusive access only for that class's bucket, so
// sweeping one class never blocks tracking or counting another.
func (t *Tracker) Sweep() {
	t.mu.RLock()
	buckets := make([]*bucket, 0, len(t.buckets))
	for _, b := range t.buckets {
		buckets = append(buckets, b)
	}
	t.mu.RUnlock()

	for _, b := range buckets {
		b.mu.Lock()
		live := b.refs[:0]
		for _, r := range b.refs {
			if r.value() != nil {
				live = append(live, r)
			}
		}
		b.refs = live
		b.mu.Unlock()
	}
}
