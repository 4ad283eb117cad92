// Package client is a typed client for the org chart server API.
//
// The client keeps the server session in a cookie jar, retries transient
// failures and discards stale responses: requests on the same channel (tree,
// settings, search) are fenced, so only the response to the newest request
// is delivered and older ones fail with [orgerr.ErrCodeStaleResponse].
//
//	c, err := client.New("http://localhost:5000")
//	root, err := c.Employees(ctx)
//	hits, err := c.Search(ctx, "eng")
//
// A 401 from a mutating call is reported as [orgerr.ErrCodeSessionExpired].
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/observability"
)

const httpTimeout = 30 * time.Second

// Fence channels.
const (
	ChannelTree     = "tree"
	ChannelSettings = "settings"
	ChannelSearch   = "search"
)

// Client talks to one org chart server.
type Client struct {
	base    *url.URL
	http    *http.Client
	fence   *Fence
	headers map[string]string
	backoff cache.Backoff
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its jar, when set, holds the
// session cookie.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithHeaders sets headers sent on every request.
func WithHeaders(h map[string]string) Option { return func(c *Client) { c.headers = h } }

// WithBackoff sets the retry schedule for transient failures.
func WithBackoff(b cache.Backoff) Option { return func(c *Client) { c.backoff = b } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := orgerr.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "parse server URL")
	}
	jar, _ := cookiejar.New(nil)
	c := &Client{
		base:    u,
		http:    &http.Client{Timeout: httpTimeout, Jar: jar},
		fence:   NewFence(),
		backoff: cache.DefaultBackoff,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Fence returns the client's request fence.
func (c *Client) Fence() *Fence { return c.fence }

// request describes one API call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	channel string

	// auth marks calls where 401 means the session expired.
	auth bool
}

// response is a completed call.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req, retrying transient failures, and checks the fence once the
// final response is in.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "encode request")
		}
	}

	var ticket Ticket
	if req.channel != "" {
		ticket = c.fence.Begin(req.channel)
	}

	var resp *response
	err := c.backoff.Retry(ctx, func() error {
		var err error
		resp, err = c.send(ctx, req, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	if req.channel != "" && !c.fence.Current(ticket) {
		c.logger.Debug("discarded stale response", "channel", req.channel, "ticket", ticket.ID)
		return nil, orgerr.New(orgerr.ErrCodeStaleResponse, "stale %s response", req.channel)
	}
	if err := checkStatus(resp, req.auth); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req request, payload []byte) (*response, error) {
	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		hreq.Header.Set(k, v)
	}
	if payload != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.method, u.Host, req.path)
	start := time.Now()

	hresp, err := c.http.Do(hreq)
	if err != nil {
		hooks.OnError(ctx, req.method, u.Host, req.path, err)
		if ctx.Err() != nil {
			return nil, orgerr.Wrap(orgerr.ErrCodeTimeout, err, "%s %s", req.method, req.path)
		}
		return nil, cache.Retryable(orgerr.Wrap(orgerr.ErrCodeNetwork, err, "%s %s", req.method, req.path))
	}
	defer hresp.Body.Close()
	data, err := io.ReadAll(hresp.Body)
	hooks.OnResponse(ctx, req.method, u.Host, req.path, hresp.StatusCode, time.Since(start))
	if err != nil {
		return nil, cache.Retryable(orgerr.Wrap(orgerr.ErrCodeNetwork, err, "read %s", req.path))
	}
	if hresp.StatusCode >= http.StatusInternalServerError {
		msg, _ := serverError(hresp.StatusCode, data)
		return nil, cache.Retryable(orgerr.New(orgerr.ErrCodeNetwork, "%s %s: %s", req.method, req.path, msg))
	}
	return &response{status: hresp.StatusCode, header: hresp.Header, body: data}, nil
}

// checkStatus maps non-2xx responses to coded errors. With auth, a 401
// means the session expired.
func checkStatus(resp *response, auth bool) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}
	msg, code := serverError(resp.status, resp.body)
	if resp.status == http.StatusUnauthorized && auth {
		return orgerr.New(orgerr.ErrCodeSessionExpired, "session expired: %s", msg)
	}
	return orgerr.FromStatus(resp.status, code, msg)
}

// serverError extracts {"error", "code"} from a response body.
func serverError(status int, body []byte) (string, orgerr.Code) {
	var e struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error, orgerr.Code(e.Code)
	}
	return fmt.Sprintf("status %d", status), ""
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return orgerr.Wrap(orgerr.ErrCodeNetwork, err, "decode response")
	}
	return nil
}
