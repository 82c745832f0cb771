// Package telegram is the chat transport: it long-polls Telegram, turns
// updates into command actions and renders replies as inline keyboards.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/command"
)

// Telegram allows about 30 messages per second to different chats.
const defaultSendRate = 30

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler runs a decoded action; *command.Service implements it.
type Handler interface {
	Handle(ctx context.Context, userID int64, a command.Action) command.Reply
}

type Bot struct {
	api     API
	handler Handler
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a bot. sendRate is the outbound message budget per second;
// zero means Telegram's documented limit.
func New(api API, handler Handler, sendRate int) *Bot {
	if sendRate <= 0 {
		sendRate = defaultSendRate
	}
	return &Bot{
		api:     api,
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendRate),
		logger:  log.With().Str("component", "telegram").Logger(),
	}
}

// Run handles updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info().Msg("Polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update: a text message or a button press.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	action := command.DecodeText(message.Text)
	reply := b.handler.Handle(ctx, userID, action)

	msg := tgbotapi.NewMessage(message.Chat.ID, reply.Text)
	if reply.Menu != nil {
		msg.ReplyMarkup = keyboard(reply.Menu)
	}
	if err := b.send(ctx, msg); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("action", action.Kind.String()).Msg("Failed to send reply")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID

	// Acknowledge the callback query
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to answer callback")
	}

	action := command.DecodeCallback(callback.Data)
	reply := b.handler.Handle(ctx, userID, action)

	var out tgbotapi.Chattable
	switch {
	case callback.Message == nil:
		msg := tgbotapi.NewMessage(userID, reply.Text)
		if reply.Menu != nil {
			msg.ReplyMarkup = keyboard(reply.Menu)
		}
		out = msg
	case reply.Menu != nil:
		out = tgbotapi.NewEditMessageTextAndMarkup(callback.Message.Chat.ID, callback.Message.MessageID, reply.Text, keyboard(reply.Menu))
	default:
		out = tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, reply.Text)
	}
	if err := b.send(ctx, out); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("action", action.Kind.String()).Msg("Failed to send reply")
	}
}

// SendText delivers an alert to a user's private chat.
func (b *Bot) SendText(ctx context.Context, userID int64, text string) error {
	return b.send(ctx, tgbotapi.NewMessage(userID, text))
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate limit: %w", err)
	}
	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func keyboard(menu [][]command.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu))
	for _, row := range menu {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action.CallbackData()))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
