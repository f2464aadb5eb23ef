package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/app-sre/awquery/pkg/version"
)

type Poster interface {
	Post(context.Context, *Request) (*Response, error)
}

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Text returns the body as the server sent it.
func (r *Response) Text() string {
	return string(r.Body)
}

// Indent re-indents the JSON body by two spaces. String contents, key order
// and number text are kept as sent; anything after the first value is an
// error.
func (r *Response) Indent() (string, error) {
	var b bytes.Buffer

	if err := json.Indent(&b, r.Body, "", "  "); err != nil {
		return "", fmt.Errorf("unable to decode query response: %w", err)
	}

	return string(bytes.TrimRight(b.Bytes(), " \t\r\n")), nil
}

type Client struct {
	URL string

	client  *http.Client
	timeout time.Duration
}

var _ Poster = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.SetHTTPClient(client)
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(url string, options ...Option) *Client {
	c := &Client{URL: url}

	c.client = &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

func (c *Client) Post(ctx context.Context, q *Request) (*Response, error) {
	content, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal query: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(content))
	if err != nil {
		return nil, fmt.Errorf("unable to create query request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", fmt.Sprintf("awquery/%s", version.Version()))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to send query request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read query response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
