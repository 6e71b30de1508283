package config

// Config is the top-level configuration structure for ByteHot.
type Config struct {
	Watch    WatchConfig    `yaml:"watch"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Redefine RedefineConfig `yaml:"redefine"`
	Update   UpdateConfig   `yaml:"update"`
	// EventLogFile enables the persisted event log when non-empty.
	EventLogFile string `yaml:"event_log_file,omitempty"`
	// Workers sizes the Pipeline Driver's bounded worker pool.
	Workers int `yaml:"workers,omitempty"`
}

// WatchConfig configures the File-Watch Dispatcher.
type WatchConfig struct {
	Roots      []string `yaml:"roots"`
	Patterns   []string `yaml:"patterns,omitempty"`
	Recursive  *bool    `yaml:"recursive,omitempty"`
	DebounceMS int      `yaml:"debounce_ms,omitempty"`
}

// SnapshotConfig configures the Snapshot Engine.
type SnapshotConfig struct {
	Window int `yaml:"window,omitempty"`
}

// RedefineConfig configures the redefinition call.
type RedefineConfig struct {
	// TimeoutMS is the deadline for the platform redefinition call. Zero
	// means no deadline unless configured, which is the default.
	TimeoutMS int `yaml:"timeout_ms,omitempty"`
}

// UpdateConfig configures the Instance Updater.
type UpdateConfig struct {
	// EnabledStrategies is a subset of {AUTOMATIC, REFLECTION, PROXY_REFRESH,
	// FACTORY_RESET, NO_UPDATE}. Empty means all strategies are enabled.
	EnabledStrategies []string `yaml:"enabled_strategies,omitempty"`
}

// IsRecursive resolves the Recursive tri-state: unset means true.
func (w WatchConfig) IsRecursive() bool {
	if w.Recursive == nil {
		return true
	}
	return *w.Recursive
}

// knownStrategies is the closed set UpdateConfig.EnabledStrategies may name.
var knownStrategies = map[string]bool{
	"AUTOMATIC":     true,
	"REFLECTION":    true,
	"PROXY_REFRESH": true,
	"FACTORY_RESET": true,
	"NO_UPDATE":     true,
}
