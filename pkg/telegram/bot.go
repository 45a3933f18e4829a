// Package telegram connects the chat handlers to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emtbot/pkg/bot"
	"emtbot/pkg/emt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrEmptyToken is returned by NewBot without a bot token.
var ErrEmptyToken = errors.New("telegram bot token is empty")

type Options struct {
	// APIURL overrides the Bot API server, e.g. a local bot API server or a test double.
	APIURL      string
	PollTimeout time.Duration
	Logger      *slog.Logger
}

// Bot delivers replies through the Bot API and feeds received messages to a handler.
// It implements bot.Gateway.
type Bot struct {
	api    *tgbot.Bot
	token  string
	log    *slog.Logger
	handle func(context.Context, bot.Message) error
}

var _ bot.Gateway = (*Bot)(nil)

func NewBot(token string, opts Options) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrEmptyToken
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poll := opts.PollTimeout
	if poll <= 0 {
		poll = 30 * time.Second
	}

	b := &Bot{token: token, log: logger}

	tgOpts := []tgbot.Option{
		tgbot.WithSkipGetMe(),
		// Long polls hold the connection for the whole poll timeout, leave room on top
		tgbot.WithHTTPClient(poll, &http.Client{Timeout: poll + 10*time.Second}),
		tgbot.WithAllowedUpdates(tgbot.AllowedUpdates{"message"}),
		tgbot.WithWorkers(1),
		tgbot.WithDefaultHandler(b.onUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			b.log.Warn("telegram polling failed", "err", b.redact(err))
		}),
	}
	if opts.APIURL != "" {
		tgOpts = append(tgOpts, tgbot.WithServerURL(strings.TrimRight(opts.APIURL, "/")))
	}

	api, err := tgbot.New(token, tgOpts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", b.redact(err))
	}
	b.api = api
	return b, nil
}

// SendText sends a text message, optionally as a reply and with a reply keyboard.
// An empty keyboard is not sent.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string, opts *bot.SendOptions) error {
	params := &tgbot.SendMessageParams{ChatID: chatID, Text: text}
	if opts != nil {
		if opts.ReplyTo != 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: int(opts.ReplyTo)}
		}
		if len(opts.Keyboard) > 0 {
			params.ReplyMarkup = replyKeyboard(opts.Keyboard, opts.ResizeKeyboard)
		}
	}

	if _, err := b.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", b.redact(err))
	}
	return nil
}

// SendLocation sends a map pin.
func (b *Bot) SendLocation(ctx context.Context, chatID int64, loc emt.Location) error {
	_, err := b.api.SendLocation(ctx, &tgbot.SendLocationParams{
		ChatID:    chatID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil {
		return fmt.Errorf("telegram sendLocation: %w", b.redact(err))
	}
	return nil
}

// Run long-polls for messages until ctx is cancelled. There is a single update
// worker, so fn sees one message at a time and every reply to a message is sent before
// the next message is handled.
func (b *Bot) Run(ctx context.Context, fn func(context.Context, bot.Message) error) error {
	b.handle = fn
	b.log.Info("polling for updates")
	b.api.Start(ctx)
	return nil
}

func (b *Bot) onUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg, ok := toMessage(update)
	if !ok || b.handle == nil {
		return
	}
	if err := b.handle(ctx, msg); err != nil {
		b.log.Error("failed to handle message", "chat_id", msg.Chat.ID, "err", b.redact(err))
	}
}

// redact hides the bot token, which is part of every request URL, in errors.
func (b *Bot) redact(err error) error {
	if err == nil || !strings.Contains(err.Error(), b.token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), b.token, "[REDACTED]"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
