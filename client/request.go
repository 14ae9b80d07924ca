package client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultConnectTimeout bounds connection establishment for every request.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultReadTimeout bounds the wait for response headers.
	DefaultReadTimeout = 60 * time.Second
)

// BodyFunc opens a fresh reader over a request body. It is invoked once
// per physical dispatch so that redirected or retried requests can
// replay the payload.
type BodyFunc func() (io.ReadCloser, error)

// Request is an immutable description of an outgoing HTTP call.
//
// Every mutator returns a new *Request and leaves the receiver untouched,
// so a snapshot handed to an [Exchange] never changes underneath it.
type Request struct {
	method         string
	target         *url.URL
	header         http.Header
	body           []byte
	open           BodyFunc
	size           int64
	connectTimeout time.Duration
	readTimeout    time.Duration
	follow         bool
	retryOnFailure bool
}

// NewRequest builds a Request for method and target. An empty method
// defaults to GET. Redirects are followed by the transport unless
// disabled with [Request.WithFollowRedirects].
func NewRequest(method, target string, opts ...RequestOption) (*Request, error) {
	u, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	if method == "" {
		method = http.MethodGet
	}

	r := &Request{
		method:         strings.ToUpper(method),
		target:         u,
		header:         make(http.Header),
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		follow:         true,
	}

	var contentType string
	switch {
	case settings.payload != nil:
		var payload bytes.Buffer
		if err := json.NewEncoder(&payload).Encode(settings.payload); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		r.body = payload.Bytes()
		contentType = "application/json"
	case settings.xmlPayload != nil:
		b, err := xml.Marshal(settings.xmlPayload)
		if err != nil {
			return nil, fmt.Errorf("encoding xml payload: %w", err)
		}
		r.body = append([]byte(xml.Header), b...)
		contentType = "application/xml; charset=utf-8"
	case settings.form != nil:
		r.body = []byte(settings.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}
	if settings.contentType != nil {
		contentType = *settings.contentType
	}
	if contentType != "" {
		r.header.Set("Content-Type", contentType)
	}

	if len(settings.cookies) > 0 {
		pairs := make([]string, 0, len(settings.cookies))
		for _, c := range settings.cookies {
			pairs = append(pairs, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
		}
		r.header.Set("Cookie", strings.Join(pairs, "; "))
	}

	for k, v := range settings.headers {
		for _, element := range v {
			r.header.Add(k, element)
		}
	}

	return r, nil
}

// parseTarget accepts only absolute http and https URLs.
func parseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTarget, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedTarget, target)
	}

	return u, nil
}

func (r *Request) clone() *Request {
	cpy := *r
	cpy.header = r.header.Clone()
	if cpy.header == nil {
		cpy.header = make(http.Header)
	}
	u := *r.target
	cpy.target = &u

	return &cpy
}

// /////////////////////////////////////////////////////////////////
// Copy-on-write mutators

// WithHeader returns a copy with name set to value, replacing existing values.
func (r *Request) WithHeader(name, value string) *Request {
	cpy := r.clone()
	cpy.header.Set(name, value)
	return cpy
}

// AddHeader returns a copy with value appended to name.
func (r *Request) AddHeader(name, value string) *Request {
	cpy := r.clone()
	cpy.header.Add(name, value)
	return cpy
}

// WithoutHeader returns a copy with name removed.
func (r *Request) WithoutHeader(name string) *Request {
	cpy := r.clone()
	cpy.header.Del(name)
	return cpy
}

// WithURL returns a copy targeting u.
func (r *Request) WithURL(u *url.URL) *Request {
	cpy := r.clone()
	target := *u
	cpy.target = &target
	return cpy
}

// WithMethod returns a copy using method.
func (r *Request) WithMethod(method string) *Request {
	cpy := r.clone()
	cpy.method = strings.ToUpper(method)
	return cpy
}

// WithBody returns a copy carrying content. An empty contentType leaves
// the Content-Type header as it is.
func (r *Request) WithBody(content []byte, contentType string) *Request {
	cpy := r.clone()
	cpy.body = bytes.Clone(content)
	cpy.open = nil
	cpy.size = 0
	if contentType != "" {
		cpy.header.Set("Content-Type", contentType)
	}
	return cpy
}

// WithBodyFunc returns a copy whose body is produced by open on every
// dispatch. size is the exact number of bytes open yields.
func (r *Request) WithBodyFunc(open BodyFunc, size int64, contentType string) *Request {
	cpy := r.clone()
	cpy.body = nil
	cpy.open = open
	cpy.size = size
	if contentType != "" {
		cpy.header.Set("Content-Type", contentType)
	}
	return cpy
}

// WithConnectTimeout returns a copy with connection establishment bounded by d.
func (r *Request) WithConnectTimeout(d time.Duration) *Request {
	cpy := r.clone()
	cpy.connectTimeout = d
	return cpy
}

// WithReadTimeout returns a copy with the wait for response headers bounded by d.
func (r *Request) WithReadTimeout(d time.Duration) *Request {
	cpy := r.clone()
	cpy.readTimeout = d
	return cpy
}

// WithFollowRedirects returns a copy that does or does not let the
// transport follow redirects on its own.
func (r *Request) WithFollowRedirects(follow bool) *Request {
	cpy := r.clone()
	cpy.follow = follow
	return cpy
}

// WithRetryOnConnectionFailure returns a copy that is dispatched a second
// time when the first attempt fails to connect.
func (r *Request) WithRetryOnConnectionFailure(retry bool) *Request {
	cpy := r.clone()
	cpy.retryOnFailure = retry
	return cpy
}

// /////////////////////////////////////////////////////////////////
// Accessors

// Method reports the HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns a copy of the target URL.
func (r *Request) URL() *url.URL {
	u := *r.target
	return &u
}

// Header returns the first value stored for name.
func (r *Request) Header(name string) string { return r.header.Get(name) }

// Headers returns a copy of all request headers.
func (r *Request) Headers() http.Header { return r.header.Clone() }

// ConnectTimeout reports the connection timeout.
func (r *Request) ConnectTimeout() time.Duration { return r.connectTimeout }

// ReadTimeout reports the response header timeout.
func (r *Request) ReadTimeout() time.Duration { return r.readTimeout }

// FollowRedirects reports whether the transport follows redirects on its own.
func (r *Request) FollowRedirects() bool { return r.follow }

// RetryOnConnectionFailure reports whether connection failures are retried.
func (r *Request) RetryOnConnectionFailure() bool { return r.retryOnFailure }

// httpRequest materialises the snapshot as an *http.Request bound to ctx.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	switch {
	case r.open != nil && r.size != 0:
		rc, err := r.open()
		if err != nil {
			return nil, fmt.Errorf("opening request body: %w", err)
		}
		body = rc
	case r.open != nil:
		body = http.NoBody
	case r.body != nil:
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.target.String(), body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			_ = rc.Close()
		}
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if r.open != nil && r.size != 0 {
		req.ContentLength = r.size
		req.GetBody = func() (io.ReadCloser, error) {
			return r.open()
		}
	}

	req.Header = r.header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	return req, nil
}
