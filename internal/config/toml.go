// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Storage  StorageConfig  `toml:"storage"`
	Feedback FeedbackConfig `toml:"feedback"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps quiz timing settings.
type PracticeConfig struct {
	CorrectDelayMs   *int  `toml:"correct-delay-ms"`
	IncorrectDelayMs *int  `toml:"incorrect-delay-ms"`
	TimeLimitMs      *int  `toml:"time-limit-ms"`
	PadOptions       *bool `toml:"pad-options"`
}

// StorageConfig selects and configures persistence backends.
type StorageConfig struct {
	Progress       *string `toml:"progress"`
	Library        *string `toml:"library"`
	DBPath         *string `toml:"db-path"`
	RedisAddr      *string `toml:"redis-addr"`
	RedisNamespace *string `toml:"redis-namespace"`
	PostgresDSN    *string `toml:"postgres-dsn"`
}

// FeedbackConfig maps tone and speech output.
type FeedbackConfig struct {
	Tone          *string `toml:"tone"`
	ToneCommand   *string `toml:"tone-command"`
	SpeechCommand *string `toml:"speech-command"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultFileContents is written when the user opens a config that does not exist yet.
const DefaultFileContents = `# kanadrill configuration

[practice]
# correct-delay-ms = 400
# incorrect-delay-ms = 800
# time-limit-ms = 2000
# pad-options = true

[storage]
# progress = "sqlite"   # sqlite | redis
# library = "sqlite"    # sqlite | postgres
# db-path = ""
# redis-addr = "localhost:6379"
# redis-namespace = "kanadrill:"
# postgres-dsn = "postgres://localhost/kanadrill"

[feedback]
# tone = "bell"         # bell | command | none
# tone-command = "play -qn synth 0.12 sine {freq}"
# speech-command = "say -v Kyoko {text}"

[log]
# level = "info"
# path = ""
`
