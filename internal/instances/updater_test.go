package instances

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func allEnabled() map[UpdateMethod]bool {
	return map[UpdateMethod]bool{
		AUTOMATIC: true, REFLECTION: true, PROXY_REFRESH: true, FACTORY_RESET: true, NO_UPDATE: true,
	}
}

func TestUpdater_NoTrackedInstancesIsNoUpdate(t *testing.T) {
	tr := New()
	u := NewUpdater(DefaultStrategyRules())

	out := u.Update(tr, "com.example.Service", DecisionContext{}, allEnabled())

	assert.Equal(t, NO_UPDATE, out.Method)
	assert.Zero(t, out.Updated)
	assert.Zero(t, out.Total)
	assert.Zero(t, out.Failed)
}

func TestUpdater_FieldLayoutPreservedSelectsAutomatic(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{FieldLayoutPreserved: true, MethodTablesMigrated: true}, allEnabled())

	assert.Equal(t, AUTOMATIC, out.Method)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Total)
	assert.Zero(t, out.Failed)
	runtime.KeepAlive(p)
}

func TestUpdater_ProxyWrapperSelectsProxyRefresh(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{ProxyWrapper: true}, allEnabled())

	assert.Equal(t, PROXY_REFRESH, out.Method)
	runtime.KeepAlive(p)
}

func TestUpdater_FactoryManagedSelectsFactoryReset(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{FactoryManaged: true}, allEnabled())

	assert.Equal(t, FACTORY_RESET, out.Method)
	runtime.KeepAlive(p)
}

func TestUpdater_NoSignalsFallsThroughToReflection(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{}, allEnabled())

	assert.Equal(t, REFLECTION, out.Method)
	assert.Equal(t, 1, out.Updated)
	assert.Zero(t, out.Failed)
	runtime.KeepAlive(p)
}

func TestUpdater_DisabledStrategySkipsToNextRule(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	enabled := allEnabled()
	enabled[AUTOMATIC] = false

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{FieldLayoutPreserved: true, MethodTablesMigrated: true}, enabled)

	assert.Equal(t, REFLECTION, out.Method)
	runtime.KeepAlive(p)
}

func TestUpdater_ReflectionFailureIsIsolatedPerInstance(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	a := &probe{id: 1}
	b := &probe{id: 2}
	// A non-struct referent cannot be migrated by the reflective copier; its
	// failure must not abort the updates of its siblings.
	c := new(int)
	Track(tr, "com.example.Service", a)
	Track(tr, "com.example.Service", b)
	Track(tr, "com.example.Service", c)

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{}, allEnabled())

	assert.Equal(t, REFLECTION, out.Method)
	assert.Equal(t, 2, out.Updated)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Failed)
	assert.LessOrEqual(t, out.Updated+out.Failed, out.Total)
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
	runtime.KeepAlive(c)
}

func TestUpdater_CustomReflectiveCopier(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{id: 7}
	Track(tr, "com.example.Service", p)

	var saw []any
	u := NewUpdater(DefaultStrategyRules(), WithReflectiveCopier(func(inst any) error {
		saw = append(saw, inst)
		return nil
	}))
	out := u.Update(tr, "com.example.Service", DecisionContext{}, allEnabled())

	assert.Equal(t, 1, out.Updated)
	assert.Len(t, saw, 1)
	runtime.KeepAlive(p)
}

func TestUpdater_ReflectionDisabledFallsBackToNoUpdate(t *testing.T) {
	tr := New()
	tr.Enable("com.example.Service")
	p := &probe{}
	Track(tr, "com.example.Service", p)

	enabled := allEnabled()
	enabled[REFLECTION] = false

	u := NewUpdater(DefaultStrategyRules())
	out := u.Update(tr, "com.example.Service", DecisionContext{}, enabled)

	assert.Equal(t, NO_UPDATE, out.Method)
	assert.Equal(t, 1, out.Total)
	runtime.KeepAlive(p)
}
