package service

import (
	"context"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

// BotAPI: часть *tgbot.BotAPI, которой пользуется бот.
type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

type PositionsSource interface {
	Positions(ctx context.Context) ([]models.Position, error)
}

type SettingsStore interface {
	Get() models.TradingSettings
	SetBasePosition(usd float64) error
	SetMaxPositions(n int) error
}

// Telegram обслуживает команды и диалоги настроек.
type Telegram struct {
	bot       BotAPI
	ownerChat int64 // 0: отвечаем всем
	positions PositionsSource
	settings  SettingsStore
	await     *awaitStore

	wg sync.WaitGroup
}

func NewTelegram(bot BotAPI, ownerChat int64, positions PositionsSource, settings SettingsStore) *Telegram {
	return &Telegram{
		bot:       bot,
		ownerChat: ownerChat,
		positions: positions,
		settings:  settings,
		await:     newAwaitStore(),
	}
}

func (t *Telegram) Send(chatID int64, text string) {
	t.SendMessage(tgbot.NewMessage(chatID, text))
}

func (t *Telegram) SendMessage(msg tgbot.MessageConfig) {
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("[TG] send to %d: %v", msg.ChatID, err)
	}
}

// Start читает апдейты в фоне до Stop.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for update := range updates {
			t.handleUpdate(ctx, update)
		}
	}()
	logger.Info("[TG] polling started")
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
	t.wg.Wait()
}
