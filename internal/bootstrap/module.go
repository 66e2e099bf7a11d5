package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"maintrack/internal/bootstrap/config"
	"maintrack/internal/bootstrap/database"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/ai"
	"maintrack/internal/infrastructure/audio"
	cacheinfra "maintrack/internal/infrastructure/cache"
	"maintrack/internal/infrastructure/events"
	"maintrack/internal/infrastructure/functions"
	"maintrack/internal/infrastructure/objectstore"
	"maintrack/internal/infrastructure/persistence/gormdb/repository"
	gormuow "maintrack/internal/infrastructure/persistence/gormdb/uow"
	"maintrack/internal/ports"
	"maintrack/internal/usecase/assist"
	catalogsvc "maintrack/internal/usecase/catalog"
	"maintrack/internal/usecase/lifecycle"
)

const memoryCacheSize = 1024

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			gormuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewInterventionRepository,
			fx.As(new(ports.InterventionRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewCatalogRepository,
			fx.As(new(ports.CatalogRepository)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideSpeechToText),
	fx.Provide(provideChatCompleter),
	fx.Provide(assist.NewService),
	fx.Provide(provideAssistFunctions),
	fx.Provide(provideEventPublisher),
	fx.Provide(provideRecordingStore),
	fx.Provide(provideAudioDevice),
	fx.Provide(provideLifecycleManager),
	fx.Provide(provideCatalogService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithComponent(p.Ctx, "bootstrap.fx")
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithComponent(ctx, "bootstrap.fx")

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideCache(lc fx.Lifecycle, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	switch strings.ToLower(cfg.Cache.Driver) {
	case "memory":
		return cacheinfra.NewMemoryCache(memoryCacheSize, cfg.Cache.TTL), nil
	case "redis":
		cache, err := cacheinfra.NewRedisCache(cfg.Cache.RedisURL, cfg.App.Name+":")
		if err != nil {
			return nil, errs.Wrap(err, "open redis cache")
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return cache.Close()
			},
		})
		return cache, nil
	default:
		return cacheinfra.NewSQLiteCache(db), nil
	}
}

// provideSpeechToText returns nil for provider "none"; transcription calls then
// report ports.ErrUpstreamNotConfigured.
func provideSpeechToText(cfg config.Config) (ports.SpeechToText, error) {
	provider := cfg.AI.Transcription
	switch strings.ToLower(strings.TrimSpace(provider.Provider)) {
	case "openai", "":
		return ai.NewOpenAITranscriber(ai.OpenAIConfig{
			APIKey:  provider.APIKey,
			BaseURL: provider.BaseURL,
			Model:   provider.Model,
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider %q", provider.Provider)
	}
}

func provideChatCompleter(cfg config.Config) (ports.ChatCompleter, error) {
	provider := cfg.AI.Generation
	switch strings.ToLower(strings.TrimSpace(provider.Provider)) {
	case "openai", "":
		return ai.NewOpenAIChat(ai.OpenAIConfig{
			APIKey:  provider.APIKey,
			BaseURL: provider.BaseURL,
			Model:   provider.Model,
		}), nil
	case "gemini":
		return ai.NewGeminiChat(ai.GeminiConfig{
			APIKey:  provider.APIKey,
			BaseURL: provider.BaseURL,
			Model:   provider.Model,
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", provider.Provider)
	}
}

// provideAssistFunctions points intake at a remote server when functions.base_url
// is set and at the in-process service otherwise.
func provideAssistFunctions(ctx context.Context, cfg config.Config, local *assist.Service) ports.AssistFunctions {
	baseURL := strings.TrimSpace(cfg.Functions.BaseURL)
	if baseURL == "" {
		return local
	}
	logging.Info(logging.WithComponent(ctx, "bootstrap.fx"), "using remote functions", slog.String("base_url", baseURL))
	return functions.NewClient(baseURL, cfg.Functions.Timeout)
}

// provideEventPublisher falls back to dropping events when NATS is unreachable;
// intervention writes never depend on it.
func provideEventPublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) ports.EventPublisher {
	url := strings.TrimSpace(cfg.Events.NATSURL)
	if url == "" {
		return events.Noop{}
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.fx")
	publisher, err := events.Connect(url, cfg.Events.SubjectPrefix)
	if err != nil {
		logging.Warn(logCtx, "nats unavailable, events disabled", slog.Any("err", errs.Loggable(err)))
		return events.Noop{}
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	logging.Info(logCtx, "publishing intervention events", slog.String("prefix", cfg.Events.SubjectPrefix))
	return publisher
}

func provideRecordingStore(cfg config.Config) (ports.RecordingStore, error) {
	if !cfg.Recordings.Enabled {
		return nil, nil
	}
	store, err := objectstore.NewMinioStore(objectstore.Config{
		Endpoint:  cfg.Recordings.Endpoint,
		Region:    cfg.Recordings.Region,
		AccessKey: cfg.Recordings.AccessKey,
		SecretKey: cfg.Recordings.SecretKey,
		Bucket:    cfg.Recordings.Bucket,
		UseSSL:    cfg.Recordings.UseSSL,
	})
	if err != nil {
		return nil, errs.Wrap(err, "open recording store")
	}
	return store, nil
}

func provideAudioDevice(cfg config.Config) ports.AudioDevice {
	return audio.NewFileDevice(cfg.Audio.Input)
}

func provideLifecycleManager(repo ports.InterventionRepository, publisher ports.EventPublisher, cfg config.Config) (*lifecycle.Manager, error) {
	return lifecycle.NewManager(repo, publisher, lifecycle.Options{
		StrictTransitions: cfg.Lifecycle.StrictTransitions,
		CacheSize:         cfg.Lifecycle.CacheSize,
	})
}

func provideCatalogService(repo ports.CatalogRepository, uow ports.UnitOfWork, cache ports.Cache, cfg config.Config) *catalogsvc.Service {
	return catalogsvc.NewService(repo, uow, cache, cfg.Cache.TTL)
}

type appParams struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Lifecycle  *lifecycle.Manager
	Catalog    *catalogsvc.Service
	Assist     *assist.Service
	Functions  ports.AssistFunctions
	Device     ports.AudioDevice
	Recordings ports.RecordingStore
}

func provideApp(p appParams) *App {
	return &App{
		Config:     p.Config,
		DB:         p.DB,
		Lifecycle:  p.Lifecycle,
		Catalog:    p.Catalog,
		Assist:     p.Assist,
		Functions:  p.Functions,
		Device:     p.Device,
		Recordings: p.Recordings,
	}
}
