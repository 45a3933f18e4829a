package bot

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	stopCommand  = regexp.MustCompile(`^/stop(?:@\w+)? (\d{1,5})$`)
	stopButton   = regexp.MustCompile(`(?i)^parada (\d{1,5})$`)
	usageCommand = regexp.MustCompile(`^(?:/start|/?help)(?:@\w+)?$`)
	aboutCommand = regexp.MustCompile(`^/about(?:@\w+)?$`)
)

// Limiter decides whether a chat may be served right now.
type Limiter interface {
	Allow(key string, now time.Time) bool
}

// Router matches inbound messages to handlers. Stop ids that are not 1-5 digits never
// reach a handler.
type Router struct {
	handlers *Handlers
	limiter  Limiter
	log      *slog.Logger
	metrics  Metrics
	now      func() time.Time
}

func NewRouter(handlers *Handlers, limiter Limiter, logger *slog.Logger, metrics Metrics) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Router{handlers: handlers, limiter: limiter, log: logger, metrics: metrics, now: time.Now}
}

// Dispatch runs the handler matching msg. Unmatched and rate-limited messages are dropped.
func (r *Router) Dispatch(ctx context.Context, msg Message) error {
	if r.limiter != nil && !r.limiter.Allow(strconv.FormatInt(msg.Chat.ID, 10), r.now()) {
		r.metrics.MessageRateLimited()
		r.log.Debug("rate limited", "chat_id", msg.Chat.ID)
		return nil
	}

	if msg.Location != nil {
		r.metrics.MessageRouted("location")
		return r.handlers.FindStopsNearLocation(ctx, msg.Chat, *msg.Location)
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case stopCommand.MatchString(text):
		r.metrics.MessageRouted("stop")
		return r.handlers.MinutesLeftForStop(ctx, msg.Chat, stopCommand.FindStringSubmatch(text)[1])
	case stopButton.MatchString(text):
		r.metrics.MessageRouted("parada")
		return r.handlers.ArrivalAndLocationForStop(ctx, msg.Chat, stopButton.FindStringSubmatch(text)[1])
	case usageCommand.MatchString(text):
		r.metrics.MessageRouted("usage")
		return r.handlers.Usage(ctx, msg.Chat)
	case aboutCommand.MatchString(text):
		r.metrics.MessageRouted("about")
		return r.handlers.About(ctx, msg.Chat)
	}

	r.metrics.MessageRouted("unmatched")
	r.log.Debug("no command matched", "chat_id", msg.Chat.ID, "text", text)
	return nil
}
