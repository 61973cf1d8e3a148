package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Backend names.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ToneBell    = "bell"
	ToneCommand = "command"
	ToneNone    = "none"
)

// Config is the resolved runtime configuration.
type Config struct {
	CorrectDelay   time.Duration
	IncorrectDelay time.Duration
	TimeLimit      time.Duration
	PadOptions     bool

	ProgressBackend string
	LibraryBackend  string
	DBPath          string
	RedisAddr       string
	RedisNamespace  string
	PostgresDSN     string

	Tone          string
	ToneCommand   string
	SpeechCommand string

	LogLevel string
	LogPath  string
}

// EnvConfig holds environment overrides. Empty values are ignored.
type EnvConfig struct {
	ProgressBackend string        `env:"KANADRILL_PROGRESS_BACKEND"`
	LibraryBackend  string        `env:"KANADRILL_LIBRARY_BACKEND"`
	DBPath          string        `env:"KANADRILL_DB_PATH"`
	RedisAddr       string        `env:"KANADRILL_REDIS_ADDR"`
	RedisNamespace  string        `env:"KANADRILL_REDIS_NAMESPACE"`
	PostgresDSN     string        `env:"KANADRILL_POSTGRES_DSN"`
	TimeLimit       time.Duration `env:"KANADRILL_TIME_LIMIT"`
	Tone            string        `env:"KANADRILL_TONE"`
	ToneCommand     string        `env:"KANADRILL_TONE_COMMAND"`
	SpeechCommand   string        `env:"KANADRILL_SPEECH_COMMAND"`
	LogLevel        string        `env:"KANADRILL_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CorrectDelay:    400 * time.Millisecond,
		IncorrectDelay:  800 * time.Millisecond,
		TimeLimit:       2 * time.Second,
		PadOptions:      true,
		ProgressBackend: BackendSQLite,
		LibraryBackend:  BackendSQLite,
		DBPath:          DefaultDBPath(),
		RedisAddr:       "localhost:6379",
		RedisNamespace:  "kanadrill:",
		Tone:            ToneBell,
		LogLevel:        "info",
		LogPath:         DefaultLogPath(),
	}
}

// ReadEnv loads environment overrides.
func ReadEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to read env: %w", err)
	}
	return env, nil
}

// Load resolves defaults, the TOML file at path and the environment.
func Load(path string) (Config, error) {
	file, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	env, err := ReadEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := Resolve(file, env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve layers file values over defaults and env values over both.
func Resolve(file FileConfig, env EnvConfig) Config {
	cfg := Default()

	applyMs(&cfg.CorrectDelay, file.Practice.CorrectDelayMs)
	applyMs(&cfg.IncorrectDelay, file.Practice.IncorrectDelayMs)
	applyMs(&cfg.TimeLimit, file.Practice.TimeLimitMs)
	if file.Practice.PadOptions != nil {
		cfg.PadOptions = *file.Practice.PadOptions
	}

	applyString(&cfg.ProgressBackend, file.Storage.Progress)
	applyString(&cfg.LibraryBackend, file.Storage.Library)
	applyString(&cfg.DBPath, file.Storage.DBPath)
	applyString(&cfg.RedisAddr, file.Storage.RedisAddr)
	applyString(&cfg.RedisNamespace, file.Storage.RedisNamespace)
	applyString(&cfg.PostgresDSN, file.Storage.PostgresDSN)
	applyString(&cfg.Tone, file.Feedback.Tone)
	applyString(&cfg.ToneCommand, file.Feedback.ToneCommand)
	applyString(&cfg.SpeechCommand, file.Feedback.SpeechCommand)
	applyString(&cfg.LogLevel, file.Log.Level)
	applyString(&cfg.LogPath, file.Log.Path)

	overrideString(&cfg.ProgressBackend, env.ProgressBackend)
	overrideString(&cfg.LibraryBackend, env.LibraryBackend)
	overrideString(&cfg.DBPath, env.DBPath)
	overrideString(&cfg.RedisAddr, env.RedisAddr)
	overrideString(&cfg.RedisNamespace, env.RedisNamespace)
	overrideString(&cfg.PostgresDSN, env.PostgresDSN)
	overrideString(&cfg.Tone, env.Tone)
	overrideString(&cfg.ToneCommand, env.ToneCommand)
	overrideString(&cfg.SpeechCommand, env.SpeechCommand)
	overrideString(&cfg.LogLevel, env.LogLevel)
	if env.TimeLimit > 0 {
		cfg.TimeLimit = env.TimeLimit
	}
	return cfg
}

// Validate checks backend names and required connection settings.
func (c Config) Validate() error {
	switch c.ProgressBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis progress backend needs redis-addr")
		}
	default:
		return fmt.Errorf("unknown progress backend %q", c.ProgressBackend)
	}
	switch c.LibraryBackend {
	case BackendSQLite:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres library backend needs postgres-dsn")
		}
	default:
		return fmt.Errorf("unknown library backend %q", c.LibraryBackend)
	}
	switch c.Tone {
	case ToneBell, ToneNone:
	case ToneCommand:
		if c.ToneCommand == "" {
			return fmt.Errorf("tone = %q needs tone-command", ToneCommand)
		}
	default:
		return fmt.Errorf("unknown tone output %q", c.Tone)
	}
	if c.CorrectDelay < 0 || c.IncorrectDelay < 0 || c.TimeLimit <= 0 {
		return fmt.Errorf("delays must be non-negative and time limit positive")
	}
	return nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyMs(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
