package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	AI         AIConfig         `mapstructure:"ai"`
	Functions  FunctionsConfig  `mapstructure:"functions"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle"`
	Recordings RecordingsConfig `mapstructure:"recordings"`
	Events     EventsConfig     `mapstructure:"events"`
	Audio      AudioConfig      `mapstructure:"audio"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AIConfig struct {
	Transcription ProviderConfig `mapstructure:"transcription"`
	Generation    ProviderConfig `mapstructure:"generation"`
}

// ProviderConfig selects one upstream AI provider. An empty APIKey is allowed at
// startup; calls then fail with ports.ErrUpstreamNotConfigured.
type ProviderConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

// FunctionsConfig points the intake pipeline at a remote `serve` instance.
// Empty BaseURL means the functions run in-process.
type FunctionsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LifecycleConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
	CacheSize         int  `mapstructure:"cache_size"`
}

type RecordingsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// AudioConfig describes the capture device. Input is a raw 16-bit little-endian
// PCM file or pipe read in real time; the intake command can override it.
type AudioConfig struct {
	Input         string        `mapstructure:"input"`
	SampleRate    int           `mapstructure:"sample_rate"`
	Channels      int           `mapstructure:"channels"`
	ChunkInterval time.Duration `mapstructure:"chunk_interval"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.config")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("generation_provider", cfg.AI.Generation.Provider),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.Bool("strict_transitions", cfg.Lifecycle.StrictTransitions),
	)

	return cfg, nil
}

// Validate checks the values that would make the process unusable. AI credentials
// are deliberately not checked here.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}

	switch strings.ToLower(c.Cache.Driver) {
	case "sqlite", "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return errors.New("cache.redis_url is required when cache.driver=redis")
		}
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}

	if c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0 || c.Audio.ChunkInterval <= 0 {
		return errors.New("audio.sample_rate, audio.channels and audio.chunk_interval must be positive")
	}

	if c.Recordings.Enabled && strings.TrimSpace(c.Recordings.Bucket) == "" {
		return errors.New("recordings.bucket is required when recordings are enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "maintrack")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".maintrack/maintrack.sqlite")
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("ai.transcription.provider", "openai")
	v.SetDefault("ai.transcription.api_key", "")
	v.SetDefault("ai.transcription.base_url", "")
	v.SetDefault("ai.transcription.model", "whisper-1")
	v.SetDefault("ai.generation.provider", "openai")
	v.SetDefault("ai.generation.api_key", "")
	v.SetDefault("ai.generation.base_url", "")
	v.SetDefault("ai.generation.model", "gpt-4o-mini")

	v.SetDefault("functions.base_url", "")
	v.SetDefault("functions.timeout", "60s")

	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("lifecycle.strict_transitions", false)
	v.SetDefault("lifecycle.cache_size", 256)

	v.SetDefault("recordings.enabled", false)
	v.SetDefault("recordings.endpoint", "")
	v.SetDefault("recordings.region", "us-east-1")
	v.SetDefault("recordings.access_key", "")
	v.SetDefault("recordings.secret_key", "")
	v.SetDefault("recordings.bucket", "")
	v.SetDefault("recordings.use_ssl", false)

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "maintrack.interventions")

	v.SetDefault("audio.input", "")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.chunk_interval", "1s")
}
