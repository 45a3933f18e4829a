package bot

import (
	"context"
	"log/slog"

	"emtbot/pkg/emt"
)

const (
	ApologyMessage = "Lo siento, no he podido consultar la EMT. Inténtalo más tarde."
	AboutMessage   = "https://twitter.com/VITIMan"
	UsageMessage   = `
Hola!

Bienvenido al servicio básico de encontrar una parada y saber lo que le queda a tu bus. Esperamos que lo disfrutes!

Cómo se usa:

- Paradas cercanas a tu ubicación:
    Simplemente manda tu ubicación
- Tiempo para que llegue un autobús a una parada concreta:
    /stop ID_PARADA
`
)

// Handlers implements the chat commands. Each call is independent: no state is kept
// between messages.
type Handlers struct {
	transit Transit
	gw      Gateway
	log     *slog.Logger
	metrics Metrics
}

func NewHandlers(transit Transit, gw Gateway, logger *slog.Logger, metrics Metrics) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Handlers{transit: transit, gw: gw, log: logger, metrics: metrics}
}

// FindStopsNearLocation replies with the stops around loc and a keyboard to pick one.
func (h *Handlers) FindStopsNearLocation(ctx context.Context, chat Chat, loc emt.Location) error {
	const name = "location_stops"
	h.logRequest(name, chat, "latitude", loc.Latitude, "longitude", loc.Longitude)

	content, err := h.transit.StopsFromXY(ctx, loc)
	if err != nil {
		return h.fail(ctx, name, chat, err)
	}
	text, keyboard, err := emt.BuildStopsReply(content)
	if err != nil {
		return h.fail(ctx, name, chat, err)
	}

	return h.gw.SendText(ctx, chat.ID, text, &SendOptions{Keyboard: keyboard, ResizeKeyboard: true})
}

// MinutesLeftForStop replies with the minutes left for each bus arriving at stopID.
// stopID is expected to be 1-5 digits; the Router enforces it.
func (h *Handlers) MinutesLeftForStop(ctx context.Context, chat Chat, stopID string) error {
	const name = "minutes_left"
	h.logRequest(name, chat, "stop", stopID)

	text, err := h.arrivals(ctx, stopID)
	if err != nil {
		return h.fail(ctx, name, chat, err)
	}
	return h.reply(ctx, chat, text)
}

// ArrivalAndLocationForStop replies with the arrivals at stopID and then, best effort,
// with the stop's location. The location never goes out before the arrivals.
func (h *Handlers) ArrivalAndLocationForStop(ctx context.Context, chat Chat, stopID string) error {
	const name = "check_stop_and_location"
	h.logRequest(name, chat, "stop", stopID)

	text, err := h.arrivals(ctx, stopID)
	if err != nil {
		return h.fail(ctx, name, chat, err)
	}
	if err := h.reply(ctx, chat, text); err != nil {
		return err
	}

	h.sendStopLocation(ctx, chat, stopID)
	return nil
}

// Usage replies with the help text.
func (h *Handlers) Usage(ctx context.Context, chat Chat) error {
	h.logRequest("usage", chat)
	return h.reply(ctx, chat, UsageMessage)
}

// About replies with the author link.
func (h *Handlers) About(ctx context.Context, chat Chat) error {
	h.logRequest("about", chat)
	return h.reply(ctx, chat, AboutMessage)
}

func (h *Handlers) arrivals(ctx context.Context, stopID string) (string, error) {
	content, err := h.transit.ArriveStop(ctx, stopID)
	if err != nil {
		return "", err
	}
	return emt.RenderArrivals(content)
}

// sendStopLocation failures are logged and dropped: the arrivals reply already went out.
func (h *Handlers) sendStopLocation(ctx context.Context, chat Chat, stopID string) {
	content, err := h.transit.NodesLines(ctx, stopID)
	if err != nil {
		h.log.Warn("could not look up stop location", "stop", stopID, "err", err)
		return
	}

	loc, ok := emt.NodeLocation(content)
	if !ok {
		h.log.Warn("the stop does not exist", "stop", stopID)
		return
	}

	if err := h.gw.SendLocation(ctx, chat.ID, loc); err != nil {
		h.log.Warn("failed to send stop location", "stop", stopID, "chat_id", chat.ID, "err", err)
	}
}

func (h *Handlers) reply(ctx context.Context, chat Chat, text string) error {
	return h.gw.SendText(ctx, chat.ID, text, &SendOptions{ReplyTo: chat.MessageID})
}

// fail turns a backend error into the apology reply. Only a failure to send that reply is returned.
func (h *Handlers) fail(ctx context.Context, name string, chat Chat, err error) error {
	h.metrics.HandlerFailed(name)
	h.log.Error("handler failed", "handler", name, "chat_id", chat.ID, "backend", emt.IsBackendError(err), "err", err)
	return h.reply(ctx, chat, ApologyMessage)
}

func (h *Handlers) logRequest(name string, chat Chat, args ...any) {
	attrs := append([]any{"sender_id", chat.SenderID, "username", chat.Username}, args...)
	h.log.Info(name, attrs...)
}
