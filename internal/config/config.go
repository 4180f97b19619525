// Package config loads NaiveDB's runtime settings, grounded on
// daviszhen-plan's cmd/main/main.go pattern of decoding a typed config
// struct at startup (there via BurntSushi/toml; here via viper, which the
// same repo's dependency set also carries and which cmd/dbadmin uses for
// config-file and environment binding).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tunables an embedder (cmd/dbadmin, or a future
// executor) needs to open a NaiveDB file.
type Config struct {
	// DataFile is the path to the single-file database image.
	DataFile string `mapstructure:"data_file"`
	// BufferPoolFrames is the fixed number of frames in the buffer pool.
	BufferPoolFrames int `mapstructure:"buffer_pool_frames"`
}

// Default returns the configuration used when no file/env override is
// present.
func Default() Config {
	return Config{
		DataFile:         "naivedb.db",
		BufferPoolFrames: 64,
	}
}

// Load reads configuration from (in order of precedence) environment
// variables prefixed NAIVEDB_, a config file at path (if non-empty), and
// falls back to Default() for anything unset.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("naivedb")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("data_file", def.DataFile)
	v.SetDefault("buffer_pool_frames", def.BufferPoolFrames)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	return cfg, nil
}
