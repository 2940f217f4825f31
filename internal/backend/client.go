package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/fjod/storefront/pkg/metrics"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	// ErrConnection covers every transport failure. Callers show a generic
	// message and do not retry.
	ErrConnection = errors.New("connection error")
	// ErrCircuitOpen is returned without a network call while the backend
	// breaker is open.
	ErrCircuitOpen = errors.New("backend temporarily unavailable")
)

// maxRawErrorLen is counted in runes.
const maxRawErrorLen = 200

// APIError is a non-2xx answer from the storefront backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

type response struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(cfg Config, m *metrics.Metrics, log *zap.Logger) *Client {
	log = logger.OrNop(log)

	bcfg := cfg.Breaker
	// client errors mean the backend is up
	bcfg.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Status < http.StatusInternalServerError
		}
		return err == nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[response]("storefront-backend", bcfg, log),
		metrics: m,
		log:     log,
	}
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	token    string
}

// do performs c and returns the raw 2xx body.
func (cl *Client) do(ctx context.Context, c call) ([]byte, error) {
	var payload []byte
	if c.body != nil {
		var err error
		payload, err = json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", c.endpoint, err)
		}
	}

	u := cl.baseURL + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}

	started := time.Now()
	res, err := cl.breaker.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, c.method, u, bytes.NewReader(payload))
		if err != nil {
			return response{}, fmt.Errorf("build %s request: %w", c.endpoint, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := cl.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, ctx.Err()
			}
			return response{}, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, fmt.Errorf("%w: read body: %v", ErrConnection, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return response{status: resp.StatusCode}, parseAPIError(resp.StatusCode, body)
		}
		return response{status: resp.StatusCode, body: body}, nil
	})
	cl.metrics.ObserveBackend(c.endpoint, res.status, started)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		logger.FromContext(ctx, cl.log).Warn("backend call failed",
			zap.String("endpoint", c.endpoint),
			zap.String("method", c.method),
			zap.Error(err))
		return nil, err
	}

	if err := envelopeError(res.status, res.body); err != nil {
		return nil, err
	}
	return res.body, nil
}

// parseAPIError pulls the message out of an error body. JSON bodies carry it
// in "error" or "message"; anything else is returned as truncated text.
func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			return &APIError{Status: status, Message: payload.Error}
		case payload.Message != "":
			return &APIError{Status: status, Message: payload.Message}
		case payload.Reason != "":
			return &APIError{Status: status, Message: payload.Reason}
		}
	}

	text := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(text) > maxRawErrorLen {
		text = string([]rune(text)[:maxRawErrorLen])
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return &APIError{Status: status, Message: text}
}

// envelopeError treats a 2xx body of the form {"success": false, ...} as a
// failure.
func envelopeError(status int, body []byte) error {
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var env struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil || *env.Success {
		return nil
	}
	apiErr := parseAPIError(status, body)
	if apiErr.Message == strings.TrimSpace(string(body)) {
		apiErr.Message = "request was not successful"
	}
	return apiErr
}

// decodeData decodes the "data" field of the standard envelope. A bare body
// without the envelope is accepted too.
func decodeData[T any](body []byte) (T, error) {
	var out T
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &out); err != nil {
				return out, fmt.Errorf("decode data: %w", err)
			}
			return out, nil
		}
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, fmt.Errorf("decode body: %w", err)
	}
	return out, nil
}

// Message turns any backend error into the text shown to the shopper.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrConnection):
		return "Bağlantı hatası. Lütfen tekrar deneyin."
	case errors.Is(err, ErrCircuitOpen):
		return "Servis geçici olarak kullanılamıyor."
	}
	return err.Error()
}
