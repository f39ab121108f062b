package bybit_client

import (
	"go.uber.org/fx"

	"pump_bot/internal/exchange"
	"pump_bot/internal/modules/bybit_client/service"
	"pump_bot/internal/modules/config"
	"pump_bot/pkg/logger"
)

// paperQtyDecimals: точность объёма бумажных позиций.
const paperQtyDecimals = 6

func newClient(cfg *config.Config) *service.Client {
	return service.NewClient(service.Config{
		BaseURL:    cfg.Bybit.BaseURL,
		APIKey:     cfg.Bybit.APIKey,
		APISecret:  cfg.Bybit.APISecret,
		RecvWindow: cfg.Bybit.RecvWindow,
	})
}

// newGateway: в paper-режиме ордера на биржу не уходят.
func newGateway(cfg *config.Config, c *service.Client) exchange.Gateway {
	if cfg.Trading.Paper {
		logger.Info("[BYBIT] paper trading enabled, orders are simulated")
		return exchange.NewPaper(paperQtyDecimals)
	}
	logger.Info("[BYBIT] live gateway %s", cfg.Bybit.BaseURL)
	return c
}

func Module() fx.Option {
	return fx.Module("bybit_client",
		fx.Provide(
			newClient,
			newGateway,
		),
	)
}
