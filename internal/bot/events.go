// Package bot routes chat events to contract operations and renders the replies.
package bot

import (
	"context"
	"time"
)

type EventKind int

const (
	KindText EventKind = iota
	KindCommand
	KindCallback
	// KindExpire is produced internally by the sweeper to close a stale pending edit.
	KindExpire
)

func (k EventKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	case KindExpire:
		return "expire"
	default:
		return "unknown"
	}
}

// Event is one inbound occurrence for a chat, already stripped of transport details.
type Event struct {
	ChatID     int64
	Kind       EventKind
	Text       string // message text or callback data
	CallbackID string
	MessageID  int
	FromName   string
	ReceivedAt time.Time
}

// Button is an inline keyboard button. Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Message is an outbound text with optional keyboards.
type Message struct {
	Text     string
	Markdown bool
	Inline   [][]Button
	// Menu is a persistent reply keyboard of button texts.
	Menu [][]string
}

type Document struct {
	FileName string
	MIMEType string
	Data     []byte
	Caption  string
}

// Sender is the outbound side of the chat transport.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
