package instances

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct{ id int }

func TestTracker_CountReflectsLiveInstances(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")

	p := &probe{id: 1}
	Track(tr, "com.example.Service", p)

	assert.Equal(t, 1, tr.Count("com.example.Service"))
	runtime.KeepAlive(p)
}

func TestTracker_UntrackedClassHasZeroCount(t *testing.T) {
	tr := New()
	assert.Equal(t, 0, tr.Count("com.example.Unknown"))
	assert.False(t, tr.IsTracked("com.example.Unknown"))
}

func TestTracker_ReclaimedInstanceIsNotCounted(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")

	func() {
		p := &probe{id: 1}
		Track(tr, "com.example.Service", p)
	}()

	// Force collection so the weak reference's referent is actually
	// reclaimed; without a live root, p above is now unreachable.
	runtime.GC()
	runtime.GC()

	assert.Equal(t, 0, tr.Count("com.example.Service"))
}

func TestTracker_SweepPurgesDeadReferencesPerClassIndependently(t *testing.T) {
	tr := New()
	tr.Enable("com.example.A")
	tr.Enable("com.example.B")

	func() {
		p := &probe{id: 1}
		Track(tr, "com.example.A", p)
	}()
	runtime.GC()
	runtime.GC()

	keep := &probe{id: 2}
	Track(tr, "com.example.B", keep)

	tr.Sweep()

	assert.Equal(t, 0, tr.Count("com.example.A"))
	require.Equal(t, 1, tr.Count("com.example.B"))
	runtime.KeepAlive(keep)
}

func TestTracker_InstancesOfReturnsOnlyLiveReferences(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")

	a := &probe{id: 1}
	b := &probe{id: 2}
	Track(tr, "com.example.Service", a)
	Track(tr, "com.example.Service", b)

	live := tr.InstancesOf("com.example.Service")
	assert.Len(t, live, 2)
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}
