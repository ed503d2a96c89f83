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

	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// Observer records timing for outbound calls.
type Observer interface {
	ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Credentials CredentialProvider
	Observer    Observer
	Logger      *zap.Logger
}

// Client performs authenticated JSON reads against the asset service.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	creds    CredentialProvider
	observer Observer
	logger   *zap.Logger
}

// StatusError describes a non-2xx upstream response.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d", e.Method, e.Endpoint, e.StatusCode)
}

// NewClient validates options and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("upstream base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base URL %q must be absolute", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	creds := opts.Credentials
	if creds == nil {
		creds = ForwardedToken{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  base,
		http:     httpClient,
		creds:    creds,
		observer: opts.Observer,
		logger:   logger,
	}, nil
}

// GetJSON issues GET {base}{endpoint}?query and decodes the payload into dest.
// Both bare payloads and {"data": ...} envelopes are accepted.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}

	target := c.resolve(endpoint, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(endpoint, 0, duration)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, duration)

	c.logger.Debug("upstream request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return mapStatus(&StatusError{
			Method:     http.MethodGet,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read asset service response")
	}
	if err := decodePayload(payload, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "asset service returned an unexpected payload")
	}
	return nil
}

// resolve joins endpoint onto the base path. endpoint is taken as already
// escaped so path parameters may carry reserved characters.
func (c *Client) resolve(endpoint string, query url.Values) string {
	u := c.baseURL.JoinPath(strings.TrimLeft(endpoint, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstreamRequest(http.MethodGet, endpoint, status, duration)
}

func decodePayload(payload []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return errors.New("empty body")
	}
	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if data, ok := envelope["data"]; ok {
				return json.Unmarshal(data, dest)
			}
		}
	}
	return json.Unmarshal(trimmed, dest)
}

func mapStatus(statusErr *StatusError) error {
	switch statusErr.StatusCode {
	case http.StatusUnauthorized:
		return appErrors.Wrap(statusErr, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "asset service rejected the access token")
	case http.StatusForbidden:
		return appErrors.Wrap(statusErr, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "asset service denied access")
	case http.StatusNotFound:
		return appErrors.Wrap(statusErr, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "asset service resource not found")
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return appErrors.Wrap(statusErr, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	default:
		return appErrors.Wrap(statusErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}
