package settings

import (
	"go.uber.org/fx"

	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
)

// NewFromConfig: значения из конфига служат дефолтом, файл их перекрывает.
func NewFromConfig(cfg *config.Config) (*Store, error) {
	return NewStore(cfg.Trading.SettingsFile, models.TradingSettings{
		BasePosition: cfg.Trading.BasePosition,
		MaxPositions: cfg.Trading.MaxPositions,
	})
}

func Module() fx.Option {
	return fx.Module("settings",
		fx.Provide(NewFromConfig),
	)
}
