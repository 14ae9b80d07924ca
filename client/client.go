// Package client executes HTTP and WebDAV operations against an
// ownCloud-compatible server and classifies every outcome into a [Result].
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/net/publicsuffix"

	"github.com/adamwoolhether/cloudsync/client/throttle"
)

// Client builds [Exchange] values that share a transport pool, cookie jar,
// rate limiter, credentials and logger.
type Client struct {
	base              http.RoundTripper
	transports        sync.Map // transportKey -> *http.Transport
	jar               http.CookieJar
	timeout           time.Duration
	noFollowRedirects bool
	maxRedirects      int
	userAgent         string
	limiter           *throttle.Limiter
	tracer            trace.Tracer
	logger            *slog.Logger
	baseURL           *url.URL
	creds             Credentials
	userID            string
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("cloudsync"),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.client != nil {
		client.timeout = opts.client.Timeout
		client.jar = opts.client.Jar
	}

	if opts.timeout != nil {
		client.timeout = *opts.timeout
	}

	switch {
	case opts.jar != nil:
		client.jar = opts.jar
	case client.jar == nil:
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		client.jar = jar
	}

	client.noFollowRedirects = opts.noFollowRedirects
	client.maxRedirects = maxAutoRedirects
	if opts.maxRedirects > 0 {
		client.maxRedirects = opts.maxRedirects
	}
	client.userAgent = opts.userAgent
	client.baseURL = opts.baseURL
	client.creds = opts.creds
	client.userID = opts.userID
	if client.userID == "" && client.creds != nil {
		client.userID = client.creds.Username()
	}

	switch {
	case opts.rt != nil:
		client.base = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		client.base = opts.client.Transport
	default:
		client.base = http.DefaultTransport.(*http.Transport).Clone()
	}

	if opts.throttle != nil {
		l, err := throttle.New(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		client.limiter = l
	}

	return client, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Credentials returns the configured credentials, or nil for anonymous access.
func (c *Client) Credentials() Credentials { return c.creds }

// UserID returns the account id used in WebDAV file URLs.
func (c *Client) UserID() string { return c.userID }

// BaseURL returns a copy of the configured server root, or nil.
func (c *Client) BaseURL() *url.URL {
	if c.baseURL == nil {
		return nil
	}
	u := *c.baseURL
	return &u
}

// Endpoint resolves path against the base URL.
func (c *Client) Endpoint(path string, opts ...URLOption) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, ErrNoBaseURL
	}

	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + "/" + strings.TrimPrefix(path, "/")

	if settings.queryStrings != nil {
		queryParams := url.Values{}
		for k, v := range settings.queryStrings {
			queryParams.Add(k, v)
		}

		endpoint.RawQuery = queryParams.Encode()
	}

	return &endpoint, nil
}

// FilesWebDAVURL returns the WebDAV root of the configured user's files,
// e.g. "https://host/remote.php/dav/files/alice". Anonymous clients get
// the bare files root.
func (c *Client) FilesWebDAVURL() (*url.URL, error) {
	return c.Endpoint(WebDAVFilesPath + c.userID)
}

// Cookies returns the cookies the jar holds for the base URL.
func (c *Client) Cookies() []*http.Cookie {
	if c.baseURL == nil || c.jar == nil {
		return nil
	}
	return c.jar.Cookies(c.baseURL)
}

// CloseIdleConnections closes idle connections on every cached transport.
func (c *Client) CloseIdleConnections() {
	c.transports.Range(func(_, v any) bool {
		v.(*http.Transport).CloseIdleConnections()
		return true
	})
	if t, ok := c.base.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// prepare stamps the per-dispatch headers onto a request snapshot.
func (c *Client) prepare(req *Request) *Request {
	req = req.WithHeader(HeaderRequestID, uuid.NewString()).
		WithHeader(HeaderAcceptEncoding, "identity")

	if c.creds != nil && req.Header(HeaderAuthorization) == "" {
		if auth := c.creds.Authorization(); auth != "" {
			req = req.WithHeader(HeaderAuthorization, auth)
		}
	}

	return req
}

// Do executes req and decodes a JSON response into T when the status
// equals expCode. Any other outcome is classified into the result code.
func Do[T any](ctx context.Context, c *Client, req *Request, expCode int, opts ...DoOption) Result[T] {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return ResultFromError[T](err)
		}
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		return ResultFromError[T](err)
	}

	if status != expCode {
		return ResultFromExchange[T](ex)
	}

	var data T
	d := json.NewDecoder(ex.Body())
	if settings.useJSONNum {
		d.UseNumber()
	}

	if err := d.Decode(&data); err != nil {
		r := NewResult[T](CodeWrongServerResponse)
		r.HTTPCode = status
		r.Err = fmt.Errorf("decoding body: %w", err)
		return r
	}

	r := NewResult[T](CodeOK).WithData(data)
	r.HTTPCode = status
	r.HTTPPhrase = ex.Status()
	return r
}
