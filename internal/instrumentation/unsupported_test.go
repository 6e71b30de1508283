package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsupportedPort_NeverSimulatesSuccess(t *testing.T) {
	p := NewUnsupportedPort()

	assert.False(t, p.IsRedefinitionSupported())

	handle, ok := p.FindLoadedClass("com.example.Service")
	require.True(t, ok)

	err := p.Redefine(handle, []byte{0xCA, 0xFE})
	require.Error(t, err)

	var rerr *RedefinitionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, UnsupportedChange, rerr.Reason)
}

func TestRedefinitionError_Message(t *testing.T) {
	assert.Equal(t, "VerificationFailed", (&RedefinitionError{Reason: VerificationFailed}).Error())
	assert.Equal(t, "PlatformError: timeout", NewPlatformError("timeout").Error())
}
