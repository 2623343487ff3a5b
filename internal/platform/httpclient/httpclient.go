package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second

	HeaderRequestID = "X-Request-ID"
)

// Client envuelve un resty.Client para los adapters que hablan JSON con
// servicios externos (hoy: el proveedor de identidad).
type Client struct {
	rc      *resty.Client
	baseURL string
}

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(rc *resty.Client) {
		if d > 0 {
			rc.SetTimeout(d)
		}
	}
}

// WithHeader fija un header en todos los requests (p.ej. la API key).
func WithHeader(key, value string) Option {
	return func(rc *resty.Client) {
		if strings.TrimSpace(key) != "" {
			rc.SetHeader(key, value)
		}
	}
}

// WithTransport permite inyectar un RoundTripper en tests.
func WithTransport(tr http.RoundTripper) Option {
	return func(rc *resty.Client) {
		if tr != nil {
			rc.SetTransport(tr)
		}
	}
}

// New valida baseURL (vacía se acepta: el cliente queda sin configurar).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" {
		if _, err := url.ParseRequestURI(baseURL); err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
	}

	rc := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	if baseURL != "" {
		rc.SetBaseURL(baseURL)
	}
	for _, opt := range opts {
		opt(rc)
	}

	return &Client{rc: rc, baseURL: baseURL}, nil
}

func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// PostJSON manda in como JSON y decodifica la respuesta 2xx en out.
// El request id de chi, si hay uno en ctx, viaja como X-Request-ID.
func (c *Client) PostJSON(ctx context.Context, path string, headers map[string]string, in, out any) error {
	if c == nil || c.rc == nil {
		return fmt.Errorf("httpclient: nil client")
	}
	if c.baseURL == "" {
		return fmt.Errorf("httpclient: base url not set")
	}

	req := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in)
	for k, v := range headers {
		if strings.TrimSpace(k) != "" {
			req.SetHeader(k, v)
		}
	}
	if reqID := chimw.GetReqID(ctx); reqID != "" {
		req.SetHeader(HeaderRequestID, reqID)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post("/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return fmt.Errorf("httpclient: post %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(resp.String()),
		}
	}
	return nil
}
