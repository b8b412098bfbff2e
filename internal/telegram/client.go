// Package telegram adapts the Bot API to the router's Sender and Event types.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"contract-bot/internal/bot"
	commonhttp "contract-bot/internal/common/http"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
)

type options struct {
	endpoint    string
	httpClient  tgbotapi.HTTPClient
	debug       bool
	pollTimeout int
}

type Option func(*options)

// WithEndpoint overrides the Bot API URL template ("https://host/bot%s/%s").
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithHTTPClient(c tgbotapi.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithPollTimeout sets the getUpdates long-poll timeout in seconds. The default
// HTTP client is sized from it.
func WithPollTimeout(seconds int) Option {
	return func(o *options) { o.pollTimeout = seconds }
}

// pollHeadroom keeps the HTTP timeout above the long-poll timeout.
const pollHeadroom = 15 * time.Second

func httpTimeoutFor(pollSeconds int) time.Duration {
	return time.Duration(pollSeconds)*time.Second + pollHeadroom
}

func newOptions(opts []Option) options {
	o := options{endpoint: tgbotapi.APIEndpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pollTimeout <= 0 {
		o.pollTimeout = DefaultPollTimeout
	}
	if o.httpClient == nil {
		o.httpClient = commonhttp.NewClient(httpTimeoutFor(o.pollTimeout), "contract-bot")
	}
	return o
}

// Client sends router output through the Bot API. It implements bot.Sender.
type Client struct {
	api         *tgbotapi.BotAPI
	logger      logger.Logger
	pollTimeout int
}

var _ bot.Sender = (*Client)(nil)

// New authenticates the token with getMe and returns a ready client.
func New(token string, log logger.Logger, opts ...Option) (*Client, error) {
	o := newOptions(opts)
	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = o.debug

	log = log.With(map[string]interface{}{"component": "telegram", "bot": api.Self.UserName})
	log.Info("telegram bot authorised", nil)
	return &Client{api: api, logger: log, pollTimeout: o.pollTimeout}, nil
}

// Username is the bot's @handle without the @.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) Send(ctx context.Context, chatID int64, msg bot.Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.DisableWebPagePreview = true
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	switch {
	case len(msg.Inline) > 0:
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	case len(msg.Menu) > 0:
		cfg.ReplyMarkup = replyMarkup(msg.Menu)
	}

	sent, err := c.api.Send(cfg)
	observe("sendMessage", err)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, msg bot.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	cfg.DisableWebPagePreview = true
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Inline) > 0 {
		markup := inlineMarkup(msg.Inline)
		cfg.ReplyMarkup = &markup
	}

	_, err := c.api.Request(cfg)
	if isNotModified(err) {
		err = nil
	}
	observe("editMessageText", err)
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	observe("deleteMessage", err)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, doc bot.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.FileName, Bytes: doc.Data})
	cfg.Caption = doc.Caption

	_, err := c.api.Send(cfg)
	observe("sendDocument", err)
	if err != nil {
		return fmt.Errorf("send document %s: %w", doc.FileName, err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	observe("answerCallbackQuery", err)
	if err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SetWebhook registers url with Telegram. Telegram echoes secret back in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	params["allowed_updates"] = `["message","callback_query"]`

	_, err := c.api.MakeRequest("setWebhook", params)
	observe("setWebhook", err)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	c.logger.Info("webhook registered", map[string]interface{}{"url": url})
	return nil
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.DeleteWebhookConfig{})
	observe("deleteWebhook", err)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func inlineMarkup(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func replyMarkup(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true
	return markup
}

// isNotModified matches Telegram's answer to an edit that changes nothing.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func observe(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.TelegramRequests.WithLabelValues(method, outcome).Inc()
}
