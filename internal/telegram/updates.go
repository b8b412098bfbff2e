package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"contract-bot/internal/bot"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
)

const (
	DefaultPollTimeout = 60
	SecretHeader       = "X-Telegram-Bot-Api-Secret-Token"
)

// EventSink accepts converted events; the dispatcher is the production sink.
type EventSink interface {
	Submit(ctx context.Context, ev bot.Event) error
}

// EventFromUpdate converts an update into a router event. ok is false for updates
// the bot does not react to: edits, channel posts, stickers and the like.
func EventFromUpdate(u tgbotapi.Update) (bot.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil {
			return bot.Event{}, false
		}
		ev := bot.Event{
			ChatID:     cq.Message.Chat.ID,
			Kind:       bot.KindCallback,
			Text:       cq.Data,
			CallbackID: cq.ID,
			MessageID:  cq.Message.MessageID,
			ReceivedAt: time.Now(),
		}
		if cq.From != nil {
			ev.FromName = cq.From.FirstName
		}
		return ev, true
	}

	m := u.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return bot.Event{}, false
	}
	kind := bot.KindText
	if m.IsCommand() {
		kind = bot.KindCommand
	}
	ev := bot.Event{
		ChatID:     m.Chat.ID,
		Kind:       kind,
		Text:       m.Text,
		MessageID:  m.MessageID,
		ReceivedAt: time.Now(),
	}
	if m.From != nil {
		ev.FromName = m.From.FirstName
	}
	return ev, true
}

// Poller pulls updates with getUpdates and feeds them to the sink. It uses the
// client's poll timeout so the long poll always ends before the HTTP deadline.
type Poller struct {
	client  *Client
	sink    EventSink
	timeout int
	logger  logger.Logger
}

func NewPoller(client *Client, sink EventSink, log logger.Logger) *Poller {
	return &Poller{
		client:  client,
		sink:    sink,
		timeout: client.pollTimeout,
		logger:  log.With(map[string]interface{}{"component": "poller"}),
	}
}

// Run blocks until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	updates := p.client.api.GetUpdatesChan(cfg)
	defer p.client.api.StopReceivingUpdates()
	p.logger.Info("polling for updates", map[string]interface{}{"timeout": p.timeout})

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped", nil)
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			ev, keep := EventFromUpdate(u)
			if !keep {
				metrics.TelegramUpdates.WithLabelValues("polling", "ignored").Inc()
				continue
			}
			if err := p.sink.Submit(ctx, ev); err != nil {
				metrics.TelegramUpdates.WithLabelValues("polling", "dropped").Inc()
				p.logger.Warn("update dropped", map[string]interface{}{"chatId": ev.ChatID, "updateId": u.UpdateID, "error": err})
				continue
			}
			metrics.TelegramUpdates.WithLabelValues("polling", "queued").Inc()
		}
	}
}

// NewWebhookHandler serves Telegram's webhook deliveries at path plus a /healthz probe.
// When secret is set, deliveries must carry it in SecretHeader.
func NewWebhookHandler(sink EventSink, path, secret string, log logger.Logger) http.Handler {
	log = log.With(map[string]interface{}{"component": "webhook"})
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "mode": "webhook"})
	})

	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"ok": false})
			return
		}
		if secret != "" && subtle.ConstantTimeCompare([]byte(req.Header.Get(SecretHeader)), []byte(secret)) != 1 {
			metrics.TelegramUpdates.WithLabelValues("webhook", "rejected").Inc()
			log.Warn("webhook delivery rejected: bad secret", map[string]interface{}{"remote": req.RemoteAddr})
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false})
			return
		}

		var u tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&u); err != nil {
			log.Warn("undecodable webhook delivery", map[string]interface{}{"error": err})
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false})
			return
		}

		ev, keep := EventFromUpdate(u)
		if !keep {
			metrics.TelegramUpdates.WithLabelValues("webhook", "ignored").Inc()
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
			return
		}
		if err := sink.Submit(req.Context(), ev); err != nil {
			// Telegram redelivers on non-2xx.
			metrics.TelegramUpdates.WithLabelValues("webhook", "dropped").Inc()
			log.Error("could not queue webhook update", map[string]interface{}{"chatId": ev.ChatID, "error": err})
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ok": false})
			return
		}
		metrics.TelegramUpdates.WithLabelValues("webhook", "queued").Inc()
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
