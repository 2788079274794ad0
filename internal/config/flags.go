package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagStrict    = flag.Bool("strict", false, "Abort loads at the first malformed chunk")
	flagNoBackup  = flag.Bool("no-backup", false, "Do not keep .bak copies when overwriting")
	flagMaxModels = flag.Int("max-models", 0, "Cap models per file (0 = use config)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStrict {
		cfg.Load.Strict = true
	}
	if *flagNoBackup {
		cfg.Output.Backup = false
	}
	if *flagMaxModels > 0 {
		cfg.Load.MaxModels = *flagMaxModels
	}
}
