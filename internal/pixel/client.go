package pixel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/SEMOSS/procode-training/internal/platform/retry"
)

const (
	runPath    = "/api/engine/runPixel"
	uploadPath = "/api/uploadFile/baseUpload"
	loginPath  = "/api/auth/login"
	userPath   = "/api/auth/userinfo"
	logoutPath = "/api/auth/logout/all"

	// NewInsight asks runPixel to open a fresh insight.
	NewInsight = "new"
	// BootstrapExpression is run once to open the insight all later pixels use.
	BootstrapExpression = "META | true"

	formContentType  = "application/x-www-form-urlencoded"
	maxResponseBytes = 32 << 20
)

// Operation types that mark a failed pixel.
const (
	OpError         = "ERROR"
	OpInvalidSyntax = "INVALID_SYNTAX"
)

// Response is the body of a runPixel call.
type Response struct {
	InsightID   string   `json:"insightID"`
	PixelReturn []Return `json:"pixelReturn"`
}

// Return is the outcome of one pixel.
type Return struct {
	PixelExpression string          `json:"pixelExpression"`
	Output          json.RawMessage `json:"output"`
	OperationType   []string        `json:"operationType"`
}

// Failed reports whether the backend rejected the pixel.
func (r Return) Failed() bool {
	return slices.Contains(r.OperationType, OpError) || slices.Contains(r.OperationType, OpInvalidSyntax)
}

// Options configures a Client. Zero values disable the matching feature.
type Options struct {
	Timeout       time.Duration
	Insight       string
	RetryAttempts int
	RetryBackoff  time.Duration
	RatePerSecond float64
	RateBurst     int
	Breaker       bool
	Logger        *zap.Logger
	// HTTPClient replaces the default client. Its Jar keeps the session.
	HTTPClient *http.Client
}

// Client talks to a pixel backend over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	log     *zap.Logger
	limiter *rate.Limiter
	breaker circuitbreaker.CircuitBreaker[any]
	policy  retry.Policy

	group   singleflight.Group
	mu      sync.RWMutex
	insight string
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: opts.Timeout, Jar: jar}
	}

	c := &Client{
		base:    base,
		http:    hc,
		log:     log,
		insight: opts.Insight,
		policy: retry.Policy{
			Attempts:        opts.RetryAttempts,
			Backoff:         opts.RetryBackoff,
			MaxBackoff:      10 * time.Second,
			ThrottleBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				log.Warn("retrying backend request", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			},
		},
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), max(opts.RateBurst, 1))
	}
	if opts.Breaker {
		c.breaker = circuitbreaker.NewBuilder[any]().
			WithFailureRateThreshold(0.6, 5, 30*time.Second).
			WithDelay(15 * time.Second).
			WithSuccessThreshold(1).
			OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
				log.Warn("backend circuit breaker state changed",
					zap.String("from", e.OldState.String()),
					zap.String("to", e.NewState.String()))
			}).
			Build()
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Insight returns the insight id in use, or "" before Open.
func (c *Client) Insight() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.insight
}

// Open makes sure an insight exists and returns its id. Concurrent callers
// share one bootstrap request.
func (c *Client) Open(ctx context.Context) (string, error) {
	if id := c.Insight(); id != "" {
		return id, nil
	}
	v, err, _ := c.group.Do("insight", func() (any, error) {
		if id := c.Insight(); id != "" {
			return id, nil
		}
		resp, err := c.runPixel(ctx, NewInsight, BootstrapExpression)
		if err != nil {
			return "", fmt.Errorf("open insight: %w", err)
		}
		if resp.InsightID == "" {
			return "", errors.New("open insight: backend returned no insight id")
		}
		c.mu.Lock()
		c.insight = resp.InsightID
		c.mu.Unlock()
		c.log.Debug("opened insight", zap.String("insight", resp.InsightID))
		return resp.InsightID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Run executes one pixel and returns its raw output. A rejected pixel comes
// back as *Error.
func (c *Client) Run(ctx context.Context, expression string) (json.RawMessage, error) {
	insight, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.runPixel(ctx, insight, expression)
	if err != nil {
		return nil, err
	}
	if len(resp.PixelReturn) == 0 {
		return nil, fmt.Errorf("run pixel: empty response for %q", expression)
	}
	ret := resp.PixelReturn[0]
	c.log.Debug("ran pixel",
		zap.String("expression", expression),
		zap.Strings("operation", ret.OperationType),
		zap.Duration("took", time.Since(start)))
	if ret.Failed() {
		return nil, rejection(expression, ret.Output)
	}
	return ret.Output, nil
}

// RunCommand encodes cmd and runs it.
func (c *Client) RunCommand(ctx context.Context, cmd Command) (json.RawMessage, error) {
	expression, err := Encode(cmd)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, expression)
}

func (c *Client) runPixel(ctx context.Context, insight, expression string) (Response, error) {
	form := url.Values{"expression": {expression}, "insightId": {insight}}
	body, err := c.send(ctx, http.MethodPost, runPath, nil, formContentType, []byte(form.Encode()))
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode runPixel response: %w", err)
	}
	return resp, nil
}

// send performs one logical request, retrying transient failures. payload is
// replayed on every attempt.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, payload []byte) ([]byte, error) {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return retry.Do(ctx, c.policy, classify, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if c.breaker != nil && !c.breaker.TryAcquirePermit() {
			return nil, fmt.Errorf("backend unavailable: %w", circuitbreaker.ErrOpen)
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			c.record(err)
			return nil, err
		}
		defer res.Body.Close()
		data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
		if err != nil {
			c.record(err)
			return nil, fmt.Errorf("read %s response: %w", path, err)
		}

		switch {
		case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
			c.record(nil)
			return nil, ErrUnauthorized
		case res.StatusCode >= 500:
			err := &StatusError{StatusCode: res.StatusCode, Body: snippet(data)}
			c.record(err)
			return nil, err
		case res.StatusCode >= 300:
			c.record(nil)
			return nil, &StatusError{StatusCode: res.StatusCode, Body: snippet(data)}
		}
		c.record(nil)
		return data, nil
	})
}

func (c *Client) record(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil {
		c.breaker.RecordError(err)
		return
	}
	c.breaker.RecordSuccess()
}

func classify(err error) retry.Action {
	var status *StatusError
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, circuitbreaker.ErrOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return retry.Stop
	case errors.As(err, &status):
		switch status.StatusCode {
		case http.StatusTooManyRequests:
			return retry.After
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return retry.Retry
		}
		return retry.Stop
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return retry.Retry
	}
	return retry.Stop
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
