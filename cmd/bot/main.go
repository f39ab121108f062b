package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"pump_bot/internal/export"
	"pump_bot/internal/modules/binance_websocket"
	"pump_bot/internal/modules/bootstrap"
	"pump_bot/internal/modules/bybit_client"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/health"
	"pump_bot/internal/modules/postgres"
	"pump_bot/internal/modules/pump"
	telegram "pump_bot/internal/modules/telegram_bot"
	"pump_bot/internal/notify"
	"pump_bot/internal/runner"
	"pump_bot/internal/settings"
	"pump_bot/pkg/tracing"
)

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	tracing.SetServiceName(cfg.Service.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		config.Module(),
		postgres.Module(),
		health.Module(),
		settings.Module(),
		pump.Module(),
		bybit_client.Module(),
		telegram.Module(),
		notify.Module(),
		export.Module(),
		bootstrap.Module(),
		binance_websocket.Module(),
		runner.Module(),
		fx.Invoke(initTracing),
	)
	if err := app.Err(); err != nil {
		// логгер мог не подняться, пишем в stderr
		log.Fatal(err)
	}
	app.Run()
}
