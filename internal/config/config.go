// Package config handles workshop configuration loading and management.
package config

// Config holds all workshop tool settings.
type Config struct {
	Load    LoadConfig    `yaml:"load"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoadConfig controls how COL files are decoded.
type LoadConfig struct {
	// Strict aborts a load at the first malformed chunk instead of
	// skipping it.
	Strict bool `yaml:"strict"`
	// MaxModels caps models per file; 0 disables the cap.
	MaxModels int `yaml:"max_models"`
}

// OutputConfig controls how files are written back.
type OutputConfig struct {
	// Backup keeps a .bak copy of a file before overwriting it.
	Backup bool `yaml:"backup"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Load: LoadConfig{
			Strict:    false,
			MaxModels: 512,
		},
		Output: OutputConfig{
			Backup: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
