package pump

import (
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/pump/service"
)

// NewParams переводит пороги из конфига в decimal.
func NewParams(cfg *config.Config) (service.Params, error) {
	p := service.Params{
		StartedThreshold: decimal.NewFromFloat(cfg.Pump.StartedThreshold),
		StartGraceTicks:  cfg.Pump.StartGraceTicks,
		ConfirmThreshold: cfg.Pump.ConfirmThreshold,
		BaseTicks:        cfg.Pump.BaseTicks,
		CoolingOffFactor: decimal.NewFromFloat(cfg.Pump.CoolingOffFactor),
		StabilizedFactor: decimal.NewFromFloat(cfg.Pump.StabilizedFactor),
		DumpedFactor:     decimal.NewFromFloat(cfg.Pump.DumpedFactor),
	}
	return p, p.Validate()
}

func Module() fx.Option {
	return fx.Module("pump",
		fx.Provide(NewParams),
	)
}
