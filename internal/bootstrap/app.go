package bootstrap

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"maintrack/internal/bootstrap/config"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/ports"
	"maintrack/internal/usecase/assist"
	catalogsvc "maintrack/internal/usecase/catalog"
	"maintrack/internal/usecase/intake"
	"maintrack/internal/usecase/lifecycle"
)

type App struct {
	Config     config.Config
	DB         *gorm.DB
	Lifecycle  *lifecycle.Manager
	Catalog    *catalogsvc.Service
	Assist     *assist.Service
	Functions  ports.AssistFunctions
	Device     ports.AudioDevice
	Recordings ports.RecordingStore
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.app")
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// NewIntakeSession builds an intake form over the configured functions. A nil
// device uses the configured audio input.
func (a *App) NewIntakeSession(device ports.AudioDevice) (*intake.Session, error) {
	if device == nil {
		device = a.Device
	}
	return intake.NewSession(intake.Dependencies{
		Device:      device,
		Transcriber: a.Functions,
		Generator:   a.Functions,
		Catalog:     a.Catalog,
		Store:       a.Lifecycle,
		Recordings:  a.Recordings,
		Capture: ports.CaptureConfig{
			SampleRate:    a.Config.Audio.SampleRate,
			Channels:      a.Config.Audio.Channels,
			ChunkInterval: a.Config.Audio.ChunkInterval,
		},
	})
}
