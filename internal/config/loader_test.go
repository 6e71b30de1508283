package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"*.class"}, cfg.Watch.Patterns)
	assert.True(t, cfg.Watch.IsRecursive())
	assert.Equal(t, 100, cfg.Watch.DebounceMS)
	assert.Equal(t, 10, cfg.Snapshot.Window)
	assert.Equal(t, 0, cfg.Redefine.TimeoutMS)
}

func TestLoadConfig_OverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `watch:
  roots:
    - /tmp/classes
  patterns:
    - "*.class"
    - "*.jar"
  recursive: false
  debounce_ms: 250
snapshot:
  window: 25
redefine:
  timeout_ms: 5000
update:
  enabled_strategies:
    - REFLECTION
    - NO_UPDATE
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"/tmp/classes"}, cfg.Watch.Roots)
	assert.Equal(t, []string{"*.class", "*.jar"}, cfg.Watch.Patterns)
	assert.False(t, cfg.Watch.IsRecursive())
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, 25, cfg.Snapshot.Window)
	assert.Equal(t, 5000, cfg.Redefine.TimeoutMS)
	assert.Equal(t, []string{"REFLECTION", "NO_UPDATE"}, cfg.Update.EnabledStrategies)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("watch: ["), 0o644))

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var ce ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "parse", ce.ErrorType)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Watch.Roots = []string{"relative/path"}
	cfg.Watch.DebounceMS = -1
	cfg.Update.EnabledStrategies = []string{"TELEKINESIS"}

	err := Validate(cfg)
	require.Error(t, err)

	var collection ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Len(t, collection.Errors, 3)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}
