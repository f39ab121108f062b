package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/pkg/logger"
)

// BotAPI: то, что нужно от *tgbot.BotAPI для отправки.
type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram шлёт сообщения в один чат.
type Telegram struct {
	bot    BotAPI
	chatID int64
}

func NewTelegram(bot BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(_ context.Context, msg Message) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return fmt.Errorf("telegram sender is not configured")
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg.Text))
	return err
}

// Stdout: заглушка без токена, всё уходит в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, msg Message) error {
	logger.Info("[NOTIFY] %s %s: %s", msg.Kind, msg.Symbol, msg.Text)
	return nil
}
