package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

const (
	btnPositionSize = "💰 Размер позиции"
	btnMaxPositions = "🔢 Макс. позиций"
)

const startMessage = "Бот следит за пампами на минутных свечах и торгует по их стадиям.\n\n" +
	"🟡 STARTED: открываем половину позиции\n" +
	"🟢 CONFIRMED: доводим до полной\n" +
	"🔵 STABILIZED: удваиваем\n" +
	"🔄 Остывание, слив или ретест: закрываем\n\n" +
	"/positions: открытые позиции\n" +
	"/settings: текущие настройки"

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPositionSize),
			tgbotapi.NewKeyboardButton(btnMaxPositions),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	if t.ownerChat != 0 && chatID != t.ownerChat {
		logger.Warn("[TG] ignore message from chat %d", chatID)
		return
	}

	if msg.IsCommand() {
		t.clearAwait(chatID)
		switch msg.Command() {
		case "start":
			t.handleStart(chatID)
		case "positions":
			t.handlePositions(ctx, chatID)
		case "settings":
			t.handleSettings(chatID)
		default:
			t.Send(chatID, "Неизвестная команда. Есть /start, /positions, /settings")
		}
		return
	}

	t.handleTextMessage(chatID, strings.TrimSpace(msg.Text))
}

func (t *Telegram) handleStart(chatID int64) {
	logger.Info("[TG] /start from chat %d", chatID)
	m := tgbotapi.NewMessage(chatID, startMessage)
	m.ReplyMarkup = mainKeyboard()
	t.SendMessage(m)
}

func (t *Telegram) handlePositions(ctx context.Context, chatID int64) {
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := t.positions.Positions(callCtx)
	if err != nil {
		t.Send(chatID, fmt.Sprintf("❗️ Ошибка получения позиций: %v", err))
		return
	}
	t.Send(chatID, notify.FormatPositions(list))
}

func (t *Telegram) handleSettings(chatID int64) {
	s := t.settings.Get()
	t.Send(chatID, fmt.Sprintf("⚙️ Настройки\n\n• Размер позиции: $%.2f\n• Макс. позиций: %d", s.BasePosition, s.MaxPositions))
}

func (t *Telegram) handleTextMessage(chatID int64, text string) {
	switch text {
	case btnPositionSize:
		t.askValue(chatID, awaitPosition)
		return
	case btnMaxPositions:
		t.askValue(chatID, awaitMaxPos)
		return
	}

	if key, ok := t.peekAwait(chatID); ok {
		t.handleAwaitValue(chatID, text, key)
	}
}
