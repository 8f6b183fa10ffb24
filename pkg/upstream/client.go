// Package upstream is the HTTP client for the career appointment backend.
// It carries the talent's bearer token and performs the refresh-once-on-401 protocol.
package upstream

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

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/middleware/requestid"
)

// Observer receives one call per upstream round trip. Status is 0 for transport failures.
type Observer func(label string, status int, duration time.Duration)

// Config configures the client.
type Config struct {
	BaseURL        string
	AuthURL        string
	Timeout        time.Duration
	RateLimitQPS   float64
	RateLimitBurst int
	HTTPClient     *http.Client
	Logger         *zap.Logger
	Observer       Observer
}

// Client talks to the appointment backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authURL    string
	limiter    *rate.Limiter
	refreshes  singleflight.Group
	logger     *zap.Logger
	observer   Observer
	now        func() time.Time
}

// Request describes one backend call. Absolute paths are used verbatim.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Label  string
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = strings.TrimRight(cfg.BaseURL, "/") + "/auth/jwt"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitQPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authURL:    strings.TrimRight(cfg.AuthURL, "/"),
		limiter:    limiter,
		logger:     cfg.Logger,
		observer:   cfg.Observer,
		now:        time.Now,
	}, nil
}

// Do executes req on behalf of creds and decodes a successful body into out.
// A 401 triggers exactly one token refresh and one retry. No other status is retried.
func (c *Client) Do(ctx context.Context, creds *Credentials, req Request, out interface{}) error {
	if creds != nil && creds.Revoked() {
		return ErrReauthRequired
	}

	var access string
	var generation uint64
	if creds != nil {
		access, generation = creds.Access()
	}

	status, body, err := c.send(ctx, access, req)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && creds != nil {
		if err := c.refresh(ctx, creds, generation); err != nil {
			return err
		}
		access, _ = creds.Access()
		status, body, err = c.send(ctx, access, req)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.logger.Info("upstream rejected refreshed token", zap.String("label", labelOf(req)))
			creds.Revoke()
			return ErrReauthRequired
		}
	}

	if status < 200 || status >= 300 {
		return parseAPIError(status, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode " + labelOf(req), Err: err}
	}
	return nil
}

// Login exchanges email and password for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	err := c.Do(ctx, nil, Request{
		Method: http.MethodPost,
		Path:   c.authURL + "/create/",
		Body:   map[string]string{"email": email, "password": password},
		Label:  "auth.login",
	}, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	if pair.Access == "" {
		return TokenPair{}, &TransportError{Op: "auth.login", Err: errors.New("response carried no access token")}
	}
	return pair, nil
}

// refresh rotates the access token. Concurrent callers holding the same credentials
// share one backend call; a caller whose generation is already stale skips it.
func (c *Client) refresh(ctx context.Context, creds *Credentials, seen uint64) error {
	key := fmt.Sprintf("%p", creds)
	_, err, _ := c.refreshes.Do(key, func() (interface{}, error) {
		if creds.Generation() != seen {
			return nil, nil
		}
		refreshToken := creds.RefreshToken()
		if refreshToken == "" {
			creds.Revoke()
			return nil, ErrReauthRequired
		}

		var pair TokenPair
		status, body, err := c.send(ctx, "", Request{
			Method: http.MethodPost,
			Path:   c.authURL + "/refresh/",
			Body:   map[string]string{"refresh": refreshToken},
			Label:  "auth.refresh",
		})
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			c.logger.Info("token refresh rejected", zap.Int("status", status))
			creds.Revoke()
			return nil, ErrReauthRequired
		}
		if err := json.Unmarshal(body, &pair); err != nil || pair.Access == "" {
			creds.Revoke()
			return nil, ErrReauthRequired
		}
		creds.rotate(pair)
		return nil, nil
	})
	return err
}

func (c *Client) send(ctx context.Context, access string, req Request) (int, []byte, error) {
	label := labelOf(req)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, &TransportError{Op: label, Err: err}
		}
	}

	target, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return 0, nil, &TransportError{Op: label, Err: err}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s body: %w", label, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return 0, nil, &TransportError{Op: label, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.Header(), id)
	}
	if TokenUsable(access, c.now()) {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.observe(label, 0, duration)
		c.logger.Warn("upstream request failed", zap.String("label", label), zap.Error(err))
		return 0, nil, &TransportError{Op: label, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(label, resp.StatusCode, duration)
	if err != nil {
		return 0, nil, &TransportError{Op: label, Err: err}
	}

	c.logger.Debug("upstream request",
		zap.String("label", label),
		zap.String("method", req.Method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, values := range query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) observe(label string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer(label, status, d)
	}
}

func labelOf(req Request) string {
	if req.Label != "" {
		return req.Label
	}
	return req.Method + " " + req.Path
}
