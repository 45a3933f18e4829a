package emt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var baseURL = "https://openbus.emtmadrid.es:9443/emt-proxy-server/last/"

const (
	EndpointStopsFromXY = "geo/GetStopsFromXY.php"
	EndpointArriveStop  = "geo/GetArriveStop.php"
	EndpointNodesLines  = "bus/GetNodesLines.php"

	// DefaultRadius is the search radius in meters around a shared location.
	DefaultRadius = 100
)

// Response is a decoded top-level JSON object returned by the EMT backend.
type Response map[string]json.RawMessage

// Has reports whether the backend included key at the top level.
func (r Response) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Credentials are the baseline form fields sent with every request (idClient, passKey).
// The zero value holds no fields.
type Credentials struct {
	values map[string]string
}

// NewCredentials copies m so later changes to it do not leak into requests.
func NewCredentials(m map[string]string) Credentials {
	return Credentials{values: maps.Clone(m)}
}

// Len returns the number of credential fields.
func (c Credentials) Len() int { return len(c.values) }

// Merge returns a fresh form with the credentials and fields. Fields win on key collision.
func (c Credentials) Merge(fields map[string]string) url.Values {
	form := make(url.Values, len(c.values)+len(fields))
	for k, v := range c.values {
		form.Set(k, v)
	}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

// Metrics receives one observation per backend call. Outcome is "ok", "transport_error" or "decode_error".
type Metrics interface {
	ObserveRequest(endpoint, outcome string, d time.Duration)
}

// Options tune the client. Zero values pick the defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate validation for the backend.
	// The openbus proxy has historically been served with a certificate that does not validate;
	// only turn this on for that deployment.
	InsecureSkipVerify bool

	// MaxAttempts bounds retries on network errors and 502/503/504. 1 means no retry.
	MaxAttempts int
	Radius      int

	Logger  *slog.Logger
	Metrics Metrics
}

// Client interacts with the EMT Madrid openbus API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	creds       Credentials
	maxAttempts int
	radius      int
	backoff     time.Duration
	log         *slog.Logger
	metrics     Metrics
}

func NewClient(creds Credentials, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	base := opts.BaseURL
	if base == "" {
		base = baseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
		logger.Warn("TLS certificate verification disabled for EMT backend", "base_url", base)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout, Transport: transport},
		baseURL:     strings.TrimRight(base, "/"),
		creds:       creds,
		maxAttempts: attempts,
		radius:      radius,
		backoff:     time.Second,
		log:         logger,
		metrics:     opts.Metrics,
	}
}

// Request POSTs the credentials plus fields to endpoint and decodes the JSON object it answers with.
func (c *Client) Request(ctx context.Context, endpoint string, fields map[string]string) (Response, error) {
	c.log.Info("SEND", "endpoint", endpoint, "fields", fields)
	start := time.Now()

	resp, err := c.postWithRetries(ctx, endpoint, c.creds.Merge(fields).Encode())
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(endpoint, "transport_error", start)
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var content Response
	if err := json.Unmarshal(body, &content); err != nil {
		c.observe(endpoint, "decode_error", start)
		return nil, &DecodeError{Endpoint: endpoint, Err: err}
	}
	if content == nil {
		c.observe(endpoint, "decode_error", start)
		return nil, &DecodeError{Endpoint: endpoint, Err: errors.New("response is not a JSON object")}
	}

	c.observe(endpoint, "ok", start)
	return content, nil
}

// StopsFromXY looks up the stops within the configured radius of loc.
func (c *Client) StopsFromXY(ctx context.Context, loc Location) (Response, error) {
	return c.Request(ctx, EndpointStopsFromXY, map[string]string{
		"latitude":  strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		"Radius":    strconv.Itoa(c.radius),
	})
}

// ArriveStop fetches the arrival estimates for a stop.
func (c *Client) ArriveStop(ctx context.Context, stopID string) (Response, error) {
	return c.Request(ctx, EndpointArriveStop, map[string]string{"idStop": stopID})
}

// NodesLines fetches the node record (coordinates, lines) of a stop.
func (c *Client) NodesLines(ctx context.Context, stopID string) (Response, error) {
	return c.Request(ctx, EndpointNodesLines, map[string]string{"Nodes": stopID})
}

// postWithRetries sends the form up to maxAttempts times for 502/503/504 and network errors
func (c *Client) postWithRetries(ctx context.Context, endpoint, form string) (*http.Response, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form))
		if err != nil {
			return nil, &TransportError{Endpoint: endpoint, Err: err}
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = &TransportError{Endpoint: endpoint, Err: err}
		case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout:
			resp.Body.Close()
			lastErr = &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		default:
			return resp, nil
		}

		if attempt+1 == c.maxAttempts {
			break
		}
		c.log.Warn("EMT backend unavailable, retrying", "endpoint", endpoint, "attempt", attempt+1, "max_attempts", c.maxAttempts, "err", lastErr)

		select {
		case <-ctx.Done():
			return nil, &TransportError{Endpoint: endpoint, Err: ctx.Err()}
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}

	return nil, lastErr
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveRequest(endpoint, outcome, time.Since(start))
}
