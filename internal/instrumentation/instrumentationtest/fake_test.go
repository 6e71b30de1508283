package instrumentationtest

import (
	"testing"

	"github.com/rydnr/bytehot/internal/instrumentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_FindLoadedClass_UnknownClassIsNotFound(t *testing.T) {
	f := New()
	_, ok := f.FindLoadedClass("com.example.Service")
	assert.False(t, ok)
}

func TestFake_FindLoadedClass_LoadedClassResolves(t *testing.T) {
	f := New()
	f.Load("com.example.Service")

	h, ok := f.FindLoadedClass("com.example.Service")
	require.True(t, ok)
	assert.Equal(t, "com.example.Service", h.Name)
}

func TestFake_Redefine_SucceedsAndRecordsCall(t *testing.T) {
	f := New()
	f.Load("com.example.Service")
	h, _ := f.FindLoadedClass("com.example.Service")

	err := f.Redefine(h, []byte{1, 2, 3})
	require.NoError(t, err)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "com.example.Service", calls[0].ClassName)
}

func TestFake_Redefine_UnsupportedWhenDisabled(t *testing.T) {
	f := New()
	f.SetRedefinitionSupported(false)
	f.Load("com.example.Service")
	h, _ := f.FindLoadedClass("com.example.Service")

	err := f.Redefine(h, []byte{1})
	require.Error(t, err)
	var rerr *instrumentation.RedefinitionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, instrumentation.UnsupportedChange, rerr.Reason)
}

func TestFake_FailNextRedefineWith_ReturnsConfiguredError(t *testing.T) {
	f := New()
	f.Load("com.example.Service")
	h, _ := f.FindLoadedClass("com.example.Service")
	f.FailNextRedefineWith("com.example.Service", &instrumentation.RedefinitionError{Reason: instrumentation.VerificationFailed})

	err := f.Redefine(h, []byte{1})
	require.Error(t, err)
	var rerr *instrumentation.RedefinitionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, instrumentation.VerificationFailed, rerr.Reason)

	// the configured failure is consumed: the next call succeeds normally.
	err = f.Redefine(h, []byte{1})
	assert.NoError(t, err)
}
