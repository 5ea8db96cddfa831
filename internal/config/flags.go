package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagEpsilon    = flag.Float64("epsilon", -1, "Per-component normal tolerance for face grouping (0 = exact)")
	flagSingleLoop = flag.Bool("single-loop", false, "Reject faces whose boundary has holes")
	flagLogFile    = flag.String("log-file", "", "Also write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagEpsilon >= 0 {
		cfg.Mesh.NormalEpsilon = float32(*flagEpsilon)
	}
	if *flagSingleLoop {
		cfg.Mesh.SingleLoop = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
