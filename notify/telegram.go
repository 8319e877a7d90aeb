// Package notify sends search reports to a Telegram group.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/ebook-search/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a message is dropped by the local limiter.
var ErrRateLimited = errors.New("notify: rate limit exceeded")

// Notifier delivers a text message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// New returns a Telegram notifier when a token is configured, and a Nop
// otherwise.
func New(cfg *config.Config) Notifier {
	if cfg.TelegramToken == "" || cfg.TelegramGroupID == "" {
		slog.Debug("telegram notifications disabled")
		return Nop{}
	}
	return NewTelegram(cfg.TelegramToken, cfg.TelegramGroupID, cfg.NotifyPerMinute, cfg.Timeout)
}

// Nop discards every message.
type Nop struct{}

// Send implements Notifier.
func (Nop) Send(context.Context, string) error { return nil }

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewTelegram builds a notifier allowing perMinute messages per minute.
func NewTelegram(token, chatID string, perMinute int, timeout time.Duration) *Telegram {
	if perMinute <= 0 {
		perMinute = 20
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// WithBaseURL points the notifier at another API host.
func (t *Telegram) WithBaseURL(baseURL string) *Telegram {
	t.endpoint = strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	return t
}

// Send implements Notifier. Messages over the rate limit are dropped.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.limiter.Allow() {
		return ErrRateLimited
	}

	msg := t.message(text)
	if _, err := t.bot(ctx).Send(msg); err != nil {
		return fmt.Errorf("telegram: %w", redact(err, t.token))
	}
	return nil
}

// bot is built per message so the request carries ctx. NewBotAPI is not
// used because it calls getMe on construction.
func (t *Telegram) bot(ctx context.Context) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{
		Token:  t.token,
		Client: contextClient{ctx: ctx, client: t.client},
		Buffer: 1,
	}
	bot.SetAPIEndpoint(t.endpoint)
	return bot
}

// message targets a numeric chat id, or a @channel name otherwise.
func (t *Telegram) message(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(t.chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(t.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

// contextClient binds outgoing bot requests to a context.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// redact keeps the bot token out of logged URL errors.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
