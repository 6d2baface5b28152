// Package fredclient implements the single chokepoint for outbound HTTP to
// the FRED API. Every tool goes through GetJSON, which consults the cache,
// waits on the shared limiter, retries transient failures, and emits one
// structured log record and one set of metrics per call.
package fredclient

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/limiter"
	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

const (
	apiPrefix   = "/fred/"
	maxAttempts = 3

	backoffBase   = time.Second
	backoffFactor = 2
	backoffCap    = 5 * time.Second
	backoffJitter = 0.2

	// maxConnsPerHost bounds the shared pool so workflow fanout cannot
	// destabilise FRED.
	maxConnsPerHost = 20
)

// Client is the FRED API HTTP client. Safe for concurrent use; the underlying
// connection pool is shared across all callers.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *limiter.Limiter
	tel        *telemetry.Registry
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// CallMeta describes how a call was served.
type CallMeta struct {
	CacheHit   bool
	RetryCount int
	DurationMS int64
	RequestID  string
}

// New builds a Client from resolved configuration and shared subsystems.
func New(cfg *config.Config, c *cache.Cache, l *limiter.Limiter, tel *telemetry.Registry, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     maxConnsPerHost,
				MaxIdleConnsPerHost: maxConnsPerHost,
			},
		},
		cache:   c,
		limiter: l,
		tel:     tel,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// CacheKey computes the stable cache key for (endpoint, params): a SHA-256
// over the endpoint and the sorted canonical query string, so permutations of
// the same arguments collapse to the same key across processes. The API key
// and file_type are appended at request time and never enter the key.
func CacheKey(endpoint string, params url.Values) string {
	canon := canonicalize(params)
	h := sha256.Sum256([]byte(endpoint + "?" + canon.Encode()))
	return hex.EncodeToString(h[:])
}

// canonicalize copies params dropping empty values. url.Values.Encode sorts
// by key, which gives the canonical ordering.
func canonicalize(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}

// GetJSON performs a cached, rate-limited, retried GET against the FRED API
// and returns the raw JSON payload. tool labels telemetry and logs; namespace
// selects the cache partition; a zero ttlOverride applies the namespace
// default TTL.
func (c *Client) GetJSON(ctx context.Context, tool, endpoint string, params url.Values, namespace string, ttlOverride time.Duration) ([]byte, CallMeta, error) {
	start := time.Now()
	meta := CallMeta{RequestID: newRequestID()}
	canon := canonicalize(params)
	key := CacheKey(endpoint, canon)

	if payload, ok := c.cache.Get(ctx, namespace, key); ok {
		meta.CacheHit = true
		meta.DurationMS = time.Since(start).Milliseconds()
		if c.tel != nil {
			c.tel.RecordRequest(tool, "cached")
		}
		telemetry.LogRequest(c.logger, telemetry.RequestLog{
			Tool: tool, RequestID: meta.RequestID, DurationMS: meta.DurationMS,
			Status: http.StatusOK, CacheHit: true,
		})
		return payload, meta, nil
	}

	ticket, err := c.limiter.Acquire(ctx, namespace)
	if err != nil {
		return nil, meta, c.finish(tool, start, &meta, 0, &Error{
			Kind: KindCancelled, Message: "cancelled while waiting for a rate limit slot", Err: err,
		})
	}

	var (
		lastStatus int
		lastErr    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if c.tel != nil {
				c.tel.Retry(tool)
			}
			meta.RetryCount = attempt - 1
			if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
				return nil, meta, c.finish(tool, start, &meta, lastStatus, &Error{
					Kind: KindCancelled, Message: "cancelled during retry backoff", Err: err,
				})
			}
		}

		status, body, err := c.attempt(ctx, endpoint, canon)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, meta, c.finish(tool, start, &meta, lastStatus, &Error{
					Kind: KindCancelled, Message: "request cancelled", Err: err,
				})
			}
			lastErr = err
			lastStatus = 0
			continue
		}
		ticket.Observe(status)
		lastStatus = status

		switch {
		case status >= 200 && status < 300:
			if !json.Valid(body) {
				lastErr = fmt.Errorf("unparseable JSON response (%d bytes)", len(body))
				continue
			}
			c.cache.Set(ctx, namespace, key, body, ttlOverride)
			meta.DurationMS = time.Since(start).Milliseconds()
			if c.tel != nil {
				c.tel.RecordRequest(tool, "ok")
				c.tel.ObserveRequestDuration(tool, float64(meta.DurationMS))
			}
			telemetry.LogRequest(c.logger, telemetry.RequestLog{
				Tool: tool, RequestID: meta.RequestID, DurationMS: meta.DurationMS,
				Status: status, RetryCount: meta.RetryCount,
			})
			return body, meta, nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("HTTP 429: %s", strings.TrimSpace(string(body)))
			continue
		case status >= 500:
			lastErr = fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
			continue
		default:
			// Other 4xx: FRED rejected the request; do not retry.
			msg := fredErrorMessage(body)
			if msg == "" {
				msg = strings.TrimSpace(string(body))
			}
			return nil, meta, c.finish(tool, start, &meta, status, &Error{
				Kind: KindUpstream4xx, Message: msg, Status: status, RetryCount: meta.RetryCount,
			})
		}
	}

	meta.RetryCount = maxAttempts
	err = c.exhausted(lastStatus, lastErr)
	return nil, meta, c.finish(tool, start, &meta, lastStatus, err)
}

// GetDecoded is GetJSON plus a decode into out.
func (c *Client) GetDecoded(ctx context.Context, tool, endpoint string, params url.Values, namespace string, out any) (CallMeta, error) {
	payload, meta, err := c.GetJSON(ctx, tool, endpoint, params, namespace, 0)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return meta, &Error{Kind: KindTransport, Message: "decoding response: " + err.Error(), Err: err}
	}
	return meta, nil
}

// ─── Internals ────────────────────────────────────────────────────────────────

// attempt performs a single HTTP GET. The API key and file_type are appended
// here so they never reach cache keys or logs.
func (c *Client) attempt(ctx context.Context, endpoint string, canon url.Values) (int, []byte, error) {
	q := url.Values{}
	for k, vs := range canon {
		q[k] = vs
	}
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")

	reqURL := c.baseURL + apiPrefix + endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug("fred request", "endpoint", endpoint, "params", canon.Encode())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, fmt.Errorf("http: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return 0, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// exhausted classifies the terminal error after maxAttempts failures.
func (c *Client) exhausted(lastStatus int, lastErr error) error {
	msg := "unknown failure"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	e := &Error{Message: fmt.Sprintf("after %d attempts: %s", maxAttempts, msg),
		Status: lastStatus, RetryCount: maxAttempts, Err: lastErr}
	switch {
	case lastStatus == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfterMS = c.limiter.PenaltyMS()
	case lastStatus >= 500:
		e.Kind = KindUpstream5xx
	default:
		e.Kind = KindTransport
	}
	return e
}

// finish stamps duration, emits terminal telemetry and the log record, and
// passes err through.
func (c *Client) finish(tool string, start time.Time, meta *CallMeta, status int, err error) error {
	meta.DurationMS = time.Since(start).Milliseconds()
	outcome := "error"
	if KindOf(err) == KindCancelled {
		outcome = "cancelled"
	}
	if c.tel != nil {
		c.tel.RecordRequest(tool, outcome)
		c.tel.ObserveRequestDuration(tool, float64(meta.DurationMS))
	}
	telemetry.LogRequest(c.logger, telemetry.RequestLog{
		Tool: tool, RequestID: meta.RequestID, DurationMS: meta.DurationMS,
		Status: status, RetryCount: meta.RetryCount, Err: err,
	})
	return err
}

// backoffDelay computes the sleep before attempt n (n >= 2):
// base * factor^(n-2) with ±20% jitter, capped.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase
	for i := 2; i < attempt; i++ {
		d *= backoffFactor
	}
	if d > backoffCap {
		d = backoffCap
	}
	jitter := 1 + backoffJitter*(2*mrand.Float64()-1)
	d = time.Duration(float64(d) * jitter)
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fredErrorMessage extracts FRED's error_message field, if present.
func fredErrorMessage(body []byte) string {
	var apiErr struct {
		Error string `json:"error_message"`
	}
	_ = json.Unmarshal(body, &apiErr)
	return apiErr.Error
}

// newRequestID returns a short random hex id for log correlation.
func newRequestID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
