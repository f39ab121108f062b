package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"pump_bot/internal/exchange"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/telegram_bot/service"
	"pump_bot/internal/notify"
	"pump_bot/internal/settings"
	"pump_bot/pkg/logger"
)

// newBotAPI: без токена бот не поднимается, уведомления идут в лог.
func newBotAPI(cfg *config.Config) (*tgbot.BotAPI, error) {
	if cfg.Telegram.Token == "" {
		logger.Warn("[TG] telegram token is empty, notifications go to log")
		return nil, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	return b, nil
}

func newSender(cfg *config.Config, bot *tgbot.BotAPI) notify.Sender {
	if bot == nil || cfg.Telegram.ChatID == 0 {
		return notify.NewStdout()
	}
	return notify.NewTelegram(bot, cfg.Telegram.ChatID)
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			newBotAPI,
			newSender,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config, bot *tgbot.BotAPI, gw exchange.Gateway, st *settings.Store) {
				if bot == nil {
					return
				}
				t := service.NewTelegram(bot, cfg.Telegram.ChatID, gw, st)
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
