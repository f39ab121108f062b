package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/internal/settings"
	"pump_bot/pkg/logger"
)

func (t *Telegram) askValue(chatID int64, key string) {
	t.setAwait(chatID, key)

	var hint string
	switch key {
	case awaitPosition:
		hint = "Введите размер позиции (в USD):"
	case awaitMaxPos:
		hint = "Введите максимальное количество позиций:"
	default:
		hint = "Введите значение:"
	}
	t.Send(chatID, "✍️ "+hint+"\n\nОтмена: напишите «отмена»")
}

func (t *Telegram) handleAwaitValue(chatID int64, text, key string) {
	if strings.EqualFold(text, "отмена") {
		t.clearAwait(chatID)
		t.replyWithMenu(chatID, "Отменено")
		return
	}
	text = strings.ReplaceAll(text, ",", ".")

	switch key {
	case awaitPosition:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			t.Send(chatID, "❌ Пожалуйста, введите корректное число.")
			return
		}
		if err := t.settings.SetBasePosition(v); err != nil {
			t.rejectValue(chatID, err)
			return
		}
		t.clearAwait(chatID)
		logger.Info("[TG] base position set to %.2f", v)
		t.replyWithMenu(chatID, fmt.Sprintf("✅ Размер позиции установлен: $%.2f", v))

	case awaitMaxPos:
		v, err := strconv.Atoi(text)
		if err != nil {
			t.Send(chatID, "❌ Пожалуйста, введите корректное целое число.")
			return
		}
		if err := t.settings.SetMaxPositions(v); err != nil {
			t.rejectValue(chatID, err)
			return
		}
		t.clearAwait(chatID)
		logger.Info("[TG] max positions set to %d", v)
		t.replyWithMenu(chatID, fmt.Sprintf("✅ Максимальное количество позиций установлено: %d", v))

	default:
		t.clearAwait(chatID)
	}
}

func (t *Telegram) replyWithMenu(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = mainKeyboard()
	t.SendMessage(m)
}

func (t *Telegram) rejectValue(chatID int64, err error) {
	if errors.Is(err, settings.ErrInvalidValue) {
		t.Send(chatID, "❌ Значение должно быть положительным числом.")
		return
	}
	logger.Error("[TG] save settings: %v", err)
	t.Send(chatID, fmt.Sprintf("❗️ Не удалось сохранить настройки: %v", err))
}
