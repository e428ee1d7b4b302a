package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagTexDir        = flag.String("texdir", "", "Texture folder (absolute, or relative to the model's parent)")
	flagDump          = flag.String("dump", "", "Write a YAML scene description to this path")
	flagCheckTextures = flag.Bool("check-textures", false, "Verify resolved texture files on disk")
	flagLogFile       = flag.String("log-file", "", "Write logs to this file (rotated)")
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
	if *flagTexDir != "" {
		cfg.Import.TextureFolder = *flagTexDir
	}
	if *flagDump != "" {
		cfg.Output.DumpPath = *flagDump
	}
	if *flagCheckTextures {
		cfg.Import.CheckTextures = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
