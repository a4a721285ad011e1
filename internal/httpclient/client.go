// Package httpclient implements the client-side request/websocket adapter
// named in spec §6: request(method, url, params, data, headers, cookies,
// timeout, …) and websocket(url, …), wired through rider.ClientRider.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/launchkit/launchkit/internal/httputil"
	"github.com/launchkit/launchkit/internal/ioc"
)

// RequestOptions mirrors the source's request(...) keyword arguments.
type RequestOptions struct {
	Params  url.Values
	JSON    any
	Data    []byte
	Headers map[string]string
	Cookies map[string]string
	Timeout time.Duration
}

// Client is a thin net/http wrapper giving every outbound call a shared,
// timeout-overridable *http.Client and a TLS-1.2-floor transport, grounded
// on the teacher's ClientConfig/NewClient helpers.
type Client struct {
	base *http.Client
}

// NewClient builds a Client; timeout is the default applied to requests
// that don't set RequestOptions.Timeout.
func NewClient(timeout time.Duration) *Client {
	base := &http.Client{
		Timeout:   timeout,
		Transport: httputil.DefaultTransportWithMinTLS12(),
	}
	return &Client{base: base}
}

// Request performs one HTTP round trip, applying query params, an optional
// JSON or raw body, extra headers/cookies, and a per-call timeout override.
func (c *Client) Request(ctx context.Context, method, rawURL string, opts RequestOptions) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: parse url: %w", err)
	}
	if len(opts.Params) > 0 {
		q := u.Query()
		for k, vs := range opts.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.JSON != nil:
		encoded, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode json body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case opts.Data != nil:
		body = bytes.NewReader(opts.Data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	for name, value := range opts.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	client := c.base
	if opts.Timeout > 0 {
		client = httputil.CopyHTTPClientWithTimeout(c.base, opts.Timeout, true)
	}
	return client.Do(req)
}

// ReadResponse reads resp.Body in full and closes it.
func ReadResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// DialerOptions configures the outbound WebSocket dial.
type DialerOptions struct {
	Headers         http.Header
	HandshakeTimeout time.Duration
}

// Dial opens a client WebSocket connection, returning an ioc.PacketIO. This
// is the ConnectFactory rider.ClientRider expects for WebSocket transports.
func Dial(ctx context.Context, rawURL string, opts DialerOptions) (ioc.PacketIO, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, opts.Headers)
	if err != nil {
		return nil, fmt.Errorf("httpclient: dial %s: %w", rawURL, err)
	}
	return newClientSocket(conn), nil
}
