package config

// GetDefaultConfig returns the configuration ByteHot runs with when no
// config.yaml is present.
func GetDefaultConfig() Config {
	recursive := true
	return Config{
		Watch: WatchConfig{
			Patterns:   []string{"*.class"},
			Recursive:  &recursive,
			DebounceMS: 100,
		},
		Snapshot: SnapshotConfig{Window: 10},
		Redefine: RedefineConfig{TimeoutMS: 0},
		Update:   UpdateConfig{},
		Workers:  4,
	}
}
