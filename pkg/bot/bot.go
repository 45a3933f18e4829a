// Package bot holds the chat commands of emtbot: it turns an inbound chat message into
// EMT backend calls and the replies sent back through a messaging Gateway.
package bot

import (
	"context"

	"emtbot/pkg/emt"
)

// Chat identifies where a message came from. Sender fields are only used for logging.
type Chat struct {
	ID        int64
	MessageID int64
	SenderID  int64
	Username  string
}

// Message is one inbound chat message: either text or a shared location.
type Message struct {
	Chat     Chat
	Text     string
	Location *emt.Location
}

// SendOptions are the optional parts of a text reply.
type SendOptions struct {
	Keyboard       emt.Keyboard
	ResizeKeyboard bool
	ReplyTo        int64
}

// Gateway delivers replies to the chat network.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, opts *SendOptions) error
	SendLocation(ctx context.Context, chatID int64, loc emt.Location) error
}

// Transit is the part of the EMT client the handlers use.
type Transit interface {
	StopsFromXY(ctx context.Context, loc emt.Location) (emt.Response, error)
	ArriveStop(ctx context.Context, stopID string) (emt.Response, error)
	NodesLines(ctx context.Context, stopID string) (emt.Response, error)
}

// Metrics receives routing and failure events. A nil Metrics is allowed.
type Metrics interface {
	MessageRouted(route string)
	HandlerFailed(handler string)
	MessageRateLimited()
}

type noopMetrics struct{}

func (noopMetrics) MessageRouted(string) {}
func (noopMetrics) HandlerFailed(string) {}
func (noopMetrics) MessageRateLimited()  {}
