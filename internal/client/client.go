// Package client is the Go counterpart of the portal's browser client: a
// credential cache, an advisory navigation guard and a fetch wrapper that
// attaches the bearer token and reacts to expired sessions.
package client

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
)

var ErrSessionExpired = errors.New("session expired, please log in again")

const defaultErrorMessage = "API request failed"

// HTTPError is a non-2xx response other than an expired session.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type BodyKind int

const (
	BodyAuto BodyKind = iota
	BodyJSON
	BodyText
	BodyBinary
	BodyNone
)

// Body is a parsed success response.
type Body struct {
	Status int
	Kind   BodyKind
	JSON   json.RawMessage
	Text   string
	Bytes  []byte
}

// Decode unmarshals a JSON body into v.
func (b *Body) Decode(v any) error {
	if b == nil || b.Kind != BodyJSON {
		return fmt.Errorf("response body is not JSON")
	}
	return json.Unmarshal(b.JSON, v)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	redirects  *RedirectGuard
	navigator  Navigator
	location   func() string
	loginPath  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNavigator wires the login redirect. location reports the current
// place so it can be restored after login.
func WithNavigator(nav Navigator, location func() string) Option {
	return func(c *Client) {
		c.navigator = nav
		c.location = location
	}
}

func WithRedirectGuard(g *RedirectGuard) Option {
	return func(c *Client) {
		c.redirects = g
	}
}

func WithLoginPath(path string) Option {
	return func(c *Client) {
		c.loginPath = path
	}
}

func New(baseURL string, cache Cache, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		redirects:  NewRedirectGuard(),
		loginPath:  "/",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Cache() Cache {
	return c.cache
}

func (c *Client) Redirects() *RedirectGuard {
	return c.redirects
}

type requestConfig struct {
	skipAuth      bool
	parseAs       BodyKind
	body          io.Reader
	jsonBody      any
	hasJSON       bool
	contentType   string
	headers       http.Header
	redirectOn401 bool
}

type RequestOption func(*requestConfig)

// SkipAuth sends the request without the bearer token. A 401 on such a
// request is an ordinary HTTPError, not an expired session.
func SkipAuth() RequestOption {
	return func(r *requestConfig) {
		r.skipAuth = true
	}
}

func ParseAs(kind BodyKind) RequestOption {
	return func(r *requestConfig) {
		r.parseAs = kind
	}
}

func WithJSONBody(v any) RequestOption {
	return func(r *requestConfig) {
		r.jsonBody = v
		r.hasJSON = true
	}
}

// WithRawBody sends body as is. No Content-Type is added unless given.
func WithRawBody(body io.Reader, contentType string) RequestOption {
	return func(r *requestConfig) {
		r.body = body
		r.contentType = contentType
	}
}

func WithForm(values url.Values) RequestOption {
	return func(r *requestConfig) {
		r.body = strings.NewReader(values.Encode())
		r.contentType = "application/x-www-form-urlencoded"
	}
}

func WithHeader(key string, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// RedirectOnUnauthorized controls the login redirect on 401; on by default.
func RedirectOnUnauthorized(enabled bool) RequestOption {
	return func(r *requestConfig) {
		r.redirectOn401 = enabled
	}
}

// Request performs method on path (relative to the base URL, or absolute).
func (c *Client) Request(ctx context.Context, method string, path string, opts ...RequestOption) (*Body, error) {
	cfg := requestConfig{headers: http.Header{}, redirectOn401: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	body := cfg.body
	if cfg.hasJSON {
		raw, err := json.Marshal(cfg.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range cfg.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		switch {
		case cfg.hasJSON:
			req.Header.Set("Content-Type", "application/json")
		case cfg.contentType != "":
			req.Header.Set("Content-Type", cfg.contentType)
		}
	}

	if !cfg.skipAuth {
		if token, ok := c.cache.Get(KeyToken); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !cfg.skipAuth {
		c.expireSession(cfg.redirectOn401)
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Header.Get("Content-Type"), raw),
			Body:    raw,
		}
	}

	return parseBody(resp, raw, cfg.parseAs), nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) expireSession(redirect bool) {
	_ = c.cache.Delete(KeyToken)

	if !redirect || c.navigator == nil {
		return
	}
	if !c.redirects.Begin() {
		return
	}
	if c.location != nil {
		if here := c.location(); here != "" {
			_ = c.cache.Set(KeyRedirect, here)
		}
	}
	c.navigator.Navigate(c.loginPath)
}

func parseBody(resp *http.Response, raw []byte, kind BodyKind) *Body {
	out := &Body{Status: resp.StatusCode}
	if kind == BodyNone || resp.StatusCode == http.StatusNoContent {
		out.Kind = BodyNone
		return out
	}

	if kind == BodyAuto {
		mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		switch {
		case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
			kind = BodyJSON
		case strings.HasPrefix(mediaType, "text/"):
			kind = BodyText
		default:
			kind = BodyBinary
		}
	}

	out.Kind = kind
	switch kind {
	case BodyJSON:
		out.JSON = json.RawMessage(raw)
	case BodyText:
		out.Text = string(raw)
	default:
		out.Bytes = raw
	}
	return out
}

// errorMessage prefers a JSON "error" (string or object with "message"),
// then a top-level "message", then the raw text.
func errorMessage(contentType string, raw []byte) string {
	if strings.Contains(contentType, "application/json") {
		var payload struct {
			Error   json.RawMessage `json:"error"`
			Message string          `json:"message"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			if len(payload.Error) > 0 {
				var text string
				if json.Unmarshal(payload.Error, &text) == nil && text != "" {
					return text
				}
				var obj struct {
					Message string `json:"message"`
				}
				if json.Unmarshal(payload.Error, &obj) == nil && obj.Message != "" {
					return obj.Message
				}
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
		return defaultErrorMessage
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return defaultErrorMessage
}
