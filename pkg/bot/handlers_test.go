package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"emtbot/pkg/emt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	kind     string // "text" or "location"
	chatID   int64
	text     string
	opts     *SendOptions
	location emt.Location
}

type fakeGateway struct {
	sent        []sent
	textErr     error
	locationErr error
}

func (g *fakeGateway) SendText(ctx context.Context, chatID int64, text string, opts *SendOptions) error {
	g.sent = append(g.sent, sent{kind: "text", chatID: chatID, text: text, opts: opts})
	return g.textErr
}

func (g *fakeGateway) SendLocation(ctx context.Context, chatID int64, loc emt.Location) error {
	g.sent = append(g.sent, sent{kind: "location", chatID: chatID, location: loc})
	return g.locationErr
}

type fakeTransit struct {
	calls []string

	stops    string
	arrivals string
	nodes    string

	stopsErr    error
	arrivalsErr error
	nodesErr    error
}

func (f *fakeTransit) StopsFromXY(ctx context.Context, loc emt.Location) (emt.Response, error) {
	f.calls = append(f.calls, fmt.Sprintf("stops %v,%v", loc.Latitude, loc.Longitude))
	return respond(f.stops, f.stopsErr)
}

func (f *fakeTransit) ArriveStop(ctx context.Context, stopID string) (emt.Response, error) {
	f.calls = append(f.calls, "arrive "+stopID)
	return respond(f.arrivals, f.arrivalsErr)
}

func (f *fakeTransit) NodesLines(ctx context.Context, stopID string) (emt.Response, error) {
	f.calls = append(f.calls, "nodes "+stopID)
	return respond(f.nodes, f.nodesErr)
}

func respond(body string, err error) (emt.Response, error) {
	if err != nil {
		return nil, err
	}
	var content emt.Response
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		panic(err)
	}
	return content, nil
}

type countingMetrics struct {
	routed  []string
	failed  []string
	limited int
}

func (m *countingMetrics) MessageRouted(route string)   { m.routed = append(m.routed, route) }
func (m *countingMetrics) HandlerFailed(handler string) { m.failed = append(m.failed, handler) }
func (m *countingMetrics) MessageRateLimited()          { m.limited++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testChat = Chat{ID: 42, MessageID: 7, SenderID: 1001, Username: "viajero"}

func TestFindStopsNearLocation(t *testing.T) {
	transit := &fakeTransit{stops: `{"stop": [
		{"stopId": "1", "name": "A", "line": {"line": "1"}},
		{"stopId": "2", "name": "B", "line": [{"line": "2"}, {"line": "N2"}]},
		{"stopId": "3", "name": "C", "line": {"line": "3"}}
	]}`}
	gw := &fakeGateway{}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	err := h.FindStopsNearLocation(context.Background(), testChat, emt.Location{Latitude: 40.449461, Longitude: -3.677823})
	require.NoError(t, err)

	assert.Equal(t, []string{"stops 40.449461,-3.677823"}, transit.calls)
	require.Len(t, gw.sent, 1)
	assert.Equal(t, int64(42), gw.sent[0].chatID)
	assert.Equal(t, "1 A\nlíneas: 1\n2 B\nlíneas: 2, N2\n3 C\nlíneas: 3\n", gw.sent[0].text)
	require.NotNil(t, gw.sent[0].opts)
	assert.True(t, gw.sent[0].opts.ResizeKeyboard)
	assert.Equal(t, emt.Keyboard{{"Parada 1", "Parada 2"}, {"Parada 3"}}, gw.sent[0].opts.Keyboard)
}

func TestFindStopsNearLocation_NoStops(t *testing.T) {
	gw := &fakeGateway{}
	h := NewHandlers(&fakeTransit{stops: `{}`}, gw, quietLogger(), nil)

	require.NoError(t, h.FindStopsNearLocation(context.Background(), testChat, emt.Location{}))

	require.Len(t, gw.sent, 1)
	assert.Equal(t, emt.NoStopsMessage, gw.sent[0].text)
	assert.Empty(t, gw.sent[0].opts.Keyboard)
}

func TestMinutesLeftForStop(t *testing.T) {
	transit := &fakeTransit{arrivals: `{"arrives": [
		{"lineId": "27", "destination": "Sol", "busTimeLeft": 180},
		{"lineId": "N1", "destination": "Atocha", "busTimeLeft": 999999}
	]}`}
	gw := &fakeGateway{}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	require.NoError(t, h.MinutesLeftForStop(context.Background(), testChat, "1000"))

	assert.Equal(t, []string{"arrive 1000"}, transit.calls, "only the arrival endpoint is called")
	require.Len(t, gw.sent, 1)
	assert.Equal(t, "27   Sol               3m\nN1   Atocha           20m\n", gw.sent[0].text)
	assert.Equal(t, int64(7), gw.sent[0].opts.ReplyTo)
	assert.Empty(t, gw.sent[0].opts.Keyboard)
}

func TestMinutesLeftForStop_UnknownStop(t *testing.T) {
	gw := &fakeGateway{}
	h := NewHandlers(&fakeTransit{arrivals: `{"errorCode": "-1"}`}, gw, quietLogger(), nil)

	require.NoError(t, h.MinutesLeftForStop(context.Background(), testChat, "99999"))

	require.Len(t, gw.sent, 1)
	assert.Equal(t, emt.StopNotFoundMessage, gw.sent[0].text)
}

func TestArrivalAndLocationForStop(t *testing.T) {
	transit := &fakeTransit{
		arrivals: `{"arrives": {"lineId": "27", "destination": "Sol", "busTimeLeft": 119}}`,
		nodes:    `{"resultValues": {"node": 1000, "latitude": 40.4199, "longitude": -3.7058}}`,
	}
	gw := &fakeGateway{}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	require.NoError(t, h.ArrivalAndLocationForStop(context.Background(), testChat, "1000"))

	assert.Equal(t, []string{"arrive 1000", "nodes 1000"}, transit.calls)
	require.Len(t, gw.sent, 2)
	assert.Equal(t, "text", gw.sent[0].kind, "arrival text goes first")
	assert.Equal(t, "27   Sol               1m\n", gw.sent[0].text)
	assert.Equal(t, "location", gw.sent[1].kind)
	assert.Equal(t, emt.Location{Latitude: 40.4199, Longitude: -3.7058}, gw.sent[1].location)
}

func TestArrivalAndLocationForStop_NoResultValues(t *testing.T) {
	transit := &fakeTransit{
		arrivals: `{"arrives": []}`,
		nodes:    `{"description": "no data"}`,
	}
	gw := &fakeGateway{}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	require.NoError(t, h.ArrivalAndLocationForStop(context.Background(), testChat, "1000"))

	require.Len(t, gw.sent, 1, "only the first reply is sent")
	assert.Equal(t, "text", gw.sent[0].kind)
}

func TestArrivalAndLocationForStop_SecondPhaseFailures(t *testing.T) {
	arrivals := `{"arrives": {"lineId": "5", "destination": "Estrecho", "busTimeLeft": 60}}`

	t.Run("backend error", func(t *testing.T) {
		gw := &fakeGateway{}
		transit := &fakeTransit{arrivals: arrivals, nodesErr: &emt.TransportError{Endpoint: emt.EndpointNodesLines, StatusCode: 500}}
		h := NewHandlers(transit, gw, quietLogger(), nil)

		require.NoError(t, h.ArrivalAndLocationForStop(context.Background(), testChat, "1000"))
		require.Len(t, gw.sent, 1)
		assert.NotEqual(t, ApologyMessage, gw.sent[0].text)
	})

	t.Run("send location error", func(t *testing.T) {
		gw := &fakeGateway{locationErr: errors.New("telegram down")}
		transit := &fakeTransit{arrivals: arrivals, nodes: `{"resultValues": {"latitude": 1, "longitude": 2}}`}
		h := NewHandlers(transit, gw, quietLogger(), nil)

		require.NoError(t, h.ArrivalAndLocationForStop(context.Background(), testChat, "1000"))
		require.Len(t, gw.sent, 2)
	})
}

func TestArrivalAndLocationForStop_FirstReplyFails(t *testing.T) {
	gw := &fakeGateway{textErr: errors.New("telegram down")}
	transit := &fakeTransit{arrivals: `{"arrives": []}`, nodes: `{}`}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	err := h.ArrivalAndLocationForStop(context.Background(), testChat, "1000")
	require.Error(t, err)
	assert.Equal(t, []string{"arrive 1000"}, transit.calls, "no location lookup when the first reply failed")
}

func TestHandlers_BackendFailureApologizes(t *testing.T) {
	transportErr := &emt.TransportError{Endpoint: emt.EndpointArriveStop, Err: errors.New("connection refused")}
	decodeErr := &emt.DecodeError{Endpoint: emt.EndpointStopsFromXY, Err: errors.New("invalid character '<'")}

	cases := map[string]func(h *Handlers) error{
		"minutes_left": func(h *Handlers) error {
			return h.MinutesLeftForStop(context.Background(), testChat, "1000")
		},
		"check_stop_and_location": func(h *Handlers) error {
			return h.ArrivalAndLocationForStop(context.Background(), testChat, "1000")
		},
		"location_stops": func(h *Handlers) error {
			return h.FindStopsNearLocation(context.Background(), testChat, emt.Location{Latitude: 1, Longitude: 2})
		},
	}

	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{}
			metrics := &countingMetrics{}
			transit := &fakeTransit{arrivalsErr: transportErr, stopsErr: decodeErr}
			h := NewHandlers(transit, gw, quietLogger(), metrics)

			require.NoError(t, run(h))

			require.Len(t, gw.sent, 1)
			assert.Equal(t, ApologyMessage, gw.sent[0].text)
			assert.Equal(t, []string{name}, metrics.failed)
			assert.NotContains(t, transit.calls, "nodes 1000")
		})
	}
}

func TestHandlers_MalformedStopsApologizes(t *testing.T) {
	gw := &fakeGateway{}
	h := NewHandlers(&fakeTransit{stops: `{"stop": 12}`}, gw, quietLogger(), nil)

	require.NoError(t, h.FindStopsNearLocation(context.Background(), testChat, emt.Location{}))
	require.Len(t, gw.sent, 1)
	assert.Equal(t, ApologyMessage, gw.sent[0].text)
}

func TestUsageAndAbout(t *testing.T) {
	gw := &fakeGateway{}
	transit := &fakeTransit{}
	h := NewHandlers(transit, gw, quietLogger(), nil)

	require.NoError(t, h.Usage(context.Background(), testChat))
	require.NoError(t, h.About(context.Background(), testChat))

	require.Len(t, gw.sent, 2)
	assert.Contains(t, gw.sent[0].text, "/stop ID_PARADA")
	assert.Equal(t, AboutMessage, gw.sent[1].text)
	assert.Empty(t, transit.calls)
}
