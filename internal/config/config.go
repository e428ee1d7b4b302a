// Package config handles importer configuration loading and management.
package config

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds decode-time settings.
type ImportConfig struct {
	TextureFolder string `yaml:"texture_folder"` // Relative folders resolve next to the model folder
	CheckTextures bool   `yaml:"check_textures"` // Verify resolved texture files on disk
}

// OutputConfig holds scene description output settings.
type OutputConfig struct {
	DumpPath string `yaml:"dump_path"` // Write a YAML scene description here if set
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			TextureFolder: "TEXTURE",
			CheckTextures: false,
		},
		Output: OutputConfig{
			DumpPath: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
