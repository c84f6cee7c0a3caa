package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/megaversectl/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrBaseURLRequired     = errors.New("transport: base url required")
	ErrCandidateIDRequired = errors.New("transport: candidate id required")
	ErrRequestFailed       = errors.New("transport: request failed")
)

const candidateField = "candidateId"

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Transport)

// WithHTTPClient replaces the shared client. Per-attempt timeouts are applied
// through the request context, so the client needs no Timeout of its own.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

func WithSleep(fn SleepFunc) Option {
	return func(t *Transport) {
		if fn != nil {
			t.sleep = fn
		}
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(t *Transport) {
		t.rng = rng
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// Transport is the retrying HTTP session for one candidate.
type Transport struct {
	cfg    Config
	client *http.Client
	sleep  SleepFunc
	rng    *rand.Rand
	logger zerolog.Logger
}

func New(cfg Config, opts ...Option) (*Transport, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.CandidateID = strings.TrimSpace(cfg.CandidateID)
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if cfg.CandidateID == "" {
		return nil, ErrCandidateIDRequired
	}
	t := &Transport{
		cfg:    cfg.WithDefaults(),
		client: &http.Client{},
		sleep:  SleepContext,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "transport").Logger()
	return t, nil
}

func (t *Transport) CandidateID() string {
	return t.cfg.CandidateID
}

func (t *Transport) Config() Config {
	return t.cfg
}

// Execute sends one mutation. params is copied and the candidate identifier
// is attached before encoding.
func (t *Transport) Execute(ctx context.Context, method, endpoint string, params map[string]any) error {
	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body[candidateField] = t.cfg.CandidateID

	payload, err := json.Marshal(body)
	if err != nil {
		t.logger.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("encode payload")
		observability.RecordAPIOutcome(method, endpoint, false)
		return fmt.Errorf("%w: %s %s: payload not encodable", ErrRequestFailed, method, endpoint)
	}
	return t.do(ctx, method, endpoint, payload, nil)
}

// Fetch issues a GET and decodes the JSON body into out. A body that does not
// decode counts as a failed attempt.
func (t *Transport) Fetch(ctx context.Context, endpoint string, out any) error {
	decode := func(r io.Reader) error {
		return json.NewDecoder(r).Decode(out)
	}
	return t.do(ctx, http.MethodGet, endpoint, nil, decode)
}

func (t *Transport) do(
	ctx context.Context,
	method string,
	endpoint string,
	payload []byte,
	decode func(io.Reader) error,
) error {
	url := t.cfg.BaseURL + endpoint
	attempts := 0
	for attempts < t.cfg.MaxRetries {
		attempts++
		err := t.attempt(ctx, method, url, endpoint, payload, decode)
		if err == nil {
			observability.RecordAPIOutcome(method, endpoint, true)
			return nil
		}
		t.logger.Warn().
			Err(err).
			Str("method", method).
			Str("endpoint", endpoint).
			Int("attempt", attempts).
			Int("max_attempts", t.cfg.MaxRetries).
			Msg("request failed")
		if attempts >= t.cfg.MaxRetries {
			break
		}
		delay := NextBackoffDelay(t.cfg.Backoff, attempts, t.rng)
		if err := t.sleep(ctx, delay); err != nil {
			t.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("retry wait interrupted")
			break
		}
	}
	observability.RecordAPIOutcome(method, endpoint, false)
	return fmt.Errorf("%w: %s %s after %d attempts", ErrRequestFailed, method, endpoint, attempts)
}

func (t *Transport) attempt(
	ctx context.Context,
	method string,
	url string,
	endpoint string,
	payload []byte,
	decode func(io.Reader) error,
) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.cfg.AttemptTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status := 0
	defer func() {
		observability.RecordAPIAttempt(method, endpoint, status, time.Since(start))
	}()

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if decode == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SleepContext waits for d unless ctx finishes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
