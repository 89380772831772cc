// Package api is the request layer for the survey backend.
//
// Every call attaches the current bearer token. A 401 on an authenticated
// call is reported as ErrSessionExpired; reacting to it (expiring the session
// and navigating to login) is left to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/qsurvey/internal/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "qsurvey"
	maxErrorBody     = 4 << 10
)

var (
	// ErrSessionExpired reports that the backend rejected the bearer token.
	ErrSessionExpired = errors.New("session expired")
	// ErrLoginRejected reports a non-2xx answer to a login request.
	ErrLoginRejected = errors.New("login rejected")
	// ErrTransport reports a request that could not complete.
	ErrTransport = errors.New("request failed")
)

// TokenSource provides the bearer token for outgoing requests.
type TokenSource interface {
	Token() string
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: server returned %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	Logger     *logger.Logger
	HTTPClient *http.Client
	UserAgent  string
}

// Client talks to the survey backend.
type Client struct {
	baseURL    string
	tokens     TokenSource
	log        *logger.Logger
	httpClient *http.Client
	userAgent  string
}

// Download is a binary artifact returned by the export and image endpoints.
type Download struct {
	Body        []byte
	ContentType string
	// Filename is the name suggested by Content-Disposition, if any.
	Filename string
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", base)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    base,
		tokens:     opts.Tokens,
		log:        log,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/octet-stream")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	c.log.Debugw("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started),
	)
	return resp, nil
}

// check turns non-2xx responses into errors and closes their body.
func (c *Client) check(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{
		Method: method,
		Path:   path,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Infow("session rejected by server", "method", method, "path", path)
		return fmt.Errorf("%w: %w", ErrSessionExpired, statusErr)
	}
	c.log.Warnw("unexpected status", "method", method, "path", path, "status", resp.StatusCode)
	return statusErr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := c.check(resp, http.MethodGet, path); err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, method, path string, query url.Values, body any) (Download, error) {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return Download{}, err
	}
	if err := c.check(resp, method, path); err != nil {
		return Download{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Download{}, fmt.Errorf("%w: reading %s: %w", ErrTransport, path, err)
	}
	return Download{
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func decodeBody(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
