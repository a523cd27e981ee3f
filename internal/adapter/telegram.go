package adapter

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramAdapter struct {
	token         string
	updateTimeout int
	eventHandler  EventHandler

	mu      sync.RWMutex
	bot     *tgbotapi.BotAPI
	updates tgbotapi.UpdatesChannel
}

func NewTelegramAdapter(token string, eventHandler EventHandler, updateTimeout int) *TelegramAdapter {
	if updateTimeout <= 0 {
		updateTimeout = config.DefaultTelegramUpdateTimeout
	}
	return &TelegramAdapter{
		token:         token,
		updateTimeout: updateTimeout,
		eventHandler:  eventHandler,
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return bberrors.Wrap(err, "failed to init telegram bot")
	}

	slog.Info("Telegram Adapter started", "user", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout

	t.mu.Lock()
	t.bot = bot
	t.updates = bot.GetUpdatesChan(u)
	updates := t.updates
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()

	return nil
}

func (t *TelegramAdapter) Stop(ctx context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message

	// UpdateID is unique per bot, MessageID only per chat.
	metadata := map[string]string{
		metaMessageID: strconv.Itoa(update.UpdateID),
	}
	if msg.From != nil {
		metadata[metaUserID] = strconv.FormatInt(msg.From.ID, 10)
		metadata[metaUserName] = msg.From.UserName
	}

	if t.eventHandler != nil {
		channelID := strconv.FormatInt(msg.Chat.ID, 10)
		if err := t.eventHandler(ctx, t.Name(), channelID, msg.Text, metadata); err != nil {
			slog.Error("Failed to handle Telegram event", "error", err)
		}
	}
}

// Send sends a reply back to Telegram
func (t *TelegramAdapter) Send(ctx context.Context, channelID string, content string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return bberrors.InvalidInput("invalid telegram chat ID: " + err.Error())
	}

	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()
	if bot == nil {
		return bberrors.Transient("Telegram bot not initialized")
	}

	if _, err := bot.Send(tgbotapi.NewMessage(chatID, content)); err != nil {
		return bberrors.WrapWithCategory(err, "failed to send telegram message", bberrors.ErrTransient)
	}

	slog.Debug("Telegram message sent", "chat_id", channelID)
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()
	if bot == nil {
		return bberrors.Transient("Telegram bot not initialized")
	}

	if _, err := bot.GetMe(); err != nil {
		return bberrors.Transient("Telegram connection failed: " + err.Error())
	}
	return nil
}
