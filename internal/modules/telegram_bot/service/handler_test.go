package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/models"
	"pump_bot/internal/settings"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbot.MessageConfig
}

func (b *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbot.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbot.Message{}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel {
	ch := make(chan tgbot.Update)
	close(ch)
	return ch
}

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) last(t *testing.T) tgbot.MessageConfig {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.sent)
	return b.sent[len(b.sent)-1]
}

type fakePositions struct {
	list []models.Position
	err  error
}

func (f fakePositions) Positions(context.Context) ([]models.Position, error) { return f.list, f.err }

const chat int64 = 42

func text(s string) tgbot.Update {
	return tgbot.Update{Message: &tgbot.Message{Chat: &tgbot.Chat{ID: chat}, Text: s}}
}

func command(name string) tgbot.Update {
	u := text("/" + name)
	u.Message.Entities = []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name) + 1}}
	return u
}

func newBot(t *testing.T, pos PositionsSource) (*Telegram, *fakeBot, *settings.Store) {
	t.Helper()
	st, err := settings.NewStore("", models.TradingSettings{BasePosition: 1000, MaxPositions: 3})
	require.NoError(t, err)
	bot := &fakeBot{}
	return NewTelegram(bot, chat, pos, st), bot, st
}

func TestStart_SendsKeyboard(t *testing.T) {
	tg, bot, _ := newBot(t, fakePositions{})
	tg.handleUpdate(context.Background(), command("start"))

	m := bot.last(t)
	assert.Equal(t, chat, m.ChatID)
	kb, ok := m.ReplyMarkup.(tgbot.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, btnPositionSize, kb.Keyboard[0][0].Text)
	assert.Equal(t, btnMaxPositions, kb.Keyboard[0][1].Text)
}

func TestPositions(t *testing.T) {
	tg, bot, _ := newBot(t, fakePositions{list: []models.Position{{
		Symbol: "btcusdt", Side: models.SideBuy,
		Qty: decimal.NewFromInt(2), AvgPrice: decimal.NewFromInt(100), UnrealizedPnl: decimal.NewFromInt(5),
	}}})
	tg.handleUpdate(context.Background(), command("positions"))
	assert.Contains(t, bot.last(t).Text, "BTCUSDT")
	assert.Contains(t, bot.last(t).Text, "$200.00")

	tg, bot, _ = newBot(t, fakePositions{err: errors.New("timeout")})
	tg.handleUpdate(context.Background(), command("positions"))
	assert.Contains(t, bot.last(t).Text, "timeout")
}

func TestPositionSizeDialog(t *testing.T) {
	tg, bot, st := newBot(t, fakePositions{})
	ctx := context.Background()

	tg.handleUpdate(ctx, text(btnPositionSize))
	assert.Contains(t, bot.last(t).Text, "Введите размер позиции")

	tg.handleUpdate(ctx, text("abc"))
	assert.Contains(t, bot.last(t).Text, "корректное число")
	assert.Equal(t, 1000.0, st.Get().BasePosition)

	tg.handleUpdate(ctx, text("-5"))
	assert.Contains(t, bot.last(t).Text, "положительным")

	for _, bad := range []string{"NaN", "Inf", "-inf"} {
		tg.handleUpdate(ctx, text(bad))
		assert.Contains(t, bot.last(t).Text, "положительным", bad)
		assert.Equal(t, 1000.0, st.Get().BasePosition, bad)
	}

	tg.handleUpdate(ctx, text("250,5"))
	assert.Equal(t, "✅ Размер позиции установлен: $250.50", bot.last(t).Text)
	assert.Equal(t, 250.5, st.Get().BasePosition)

	_, waiting := tg.peekAwait(chat)
	assert.False(t, waiting)
}

func TestMaxPositionsDialog(t *testing.T) {
	tg, bot, st := newBot(t, fakePositions{})
	ctx := context.Background()

	tg.handleUpdate(ctx, text(btnMaxPositions))
	tg.handleUpdate(ctx, text("1.5"))
	assert.Contains(t, bot.last(t).Text, "целое число")

	tg.handleUpdate(ctx, text("0"))
	assert.Contains(t, bot.last(t).Text, "положительным")

	tg.handleUpdate(ctx, text("5"))
	assert.Equal(t, 5, st.Get().MaxPositions)

	tg.handleUpdate(ctx, command("settings"))
	assert.Contains(t, bot.last(t).Text, "Макс. позиций: 5")
}

func TestDialogCancel(t *testing.T) {
	tg, bot, st := newBot(t, fakePositions{})
	ctx := context.Background()

	tg.handleUpdate(ctx, text(btnMaxPositions))
	tg.handleUpdate(ctx, text("Отмена"))
	assert.Equal(t, "Отменено", bot.last(t).Text)

	tg.handleUpdate(ctx, text("7"))
	assert.Equal(t, 3, st.Get().MaxPositions)
}

func TestForeignChatIgnored(t *testing.T) {
	tg, bot, _ := newBot(t, fakePositions{})
	u := command("start")
	u.Message.Chat.ID = 7
	tg.handleUpdate(context.Background(), u)
	assert.Empty(t, bot.sent)
}
