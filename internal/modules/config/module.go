package config

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/pkg/logger"
)

// InitLogger поднимает zap до остальных модулей: invoke дочерних модулей идут по порядку объявления.
func InitLogger(lc fx.Lifecycle, cfg *Config) error {
	logger.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Service.LogLevel); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Sync()
			return nil
		},
	})
	return nil
}

// Module отдаёт *Config всем остальным модулям.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(InitLogger),
	)
}
