package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ExchangeOption is a functional option for [Client.NewExchange].
type ExchangeOption func(*Exchange)

// WithRecorder attaches a [ChainRecorder] that sees every physical hop.
func WithRecorder(rec ChainRecorder) ExchangeOption {
	return func(e *Exchange) {
		e.recorder = rec
	}
}

// Exchange pairs one logical request with the response it produced.
//
// Execute may be called again after [Exchange.Retarget] or when following
// redirects by hand; each call releases the previous response. Abort is
// safe to call from any goroutine.
type Exchange struct {
	client   *Client
	recorder ChainRecorder
	aborted  atomic.Bool

	mu       sync.Mutex
	req      *Request
	sent     *Request
	resp     *http.Response
	cancel   context.CancelFunc
	body     []byte
	bodyRead bool
	released bool
}

// NewExchange prepares req for execution. Nothing is sent until Execute.
func (c *Client) NewExchange(req *Request, opts ...ExchangeOption) *Exchange {
	e := &Exchange{client: c, req: req}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute dispatches the current request and blocks until the status line
// and headers arrive. Transport failures are returned as errors; every
// HTTP status, including 4xx and 5xx, is a successful return.
func (e *Exchange) Execute(ctx context.Context) (int, error) {
	if e.aborted.Load() {
		return 0, ErrAborted
	}

	e.release()

	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	sent := e.client.prepare(e.req)
	e.sent = sent
	e.cancel = cancel
	e.resp = nil
	e.body = nil
	e.bodyRead = false
	e.released = false
	e.mu.Unlock()

	if e.aborted.Load() {
		cancel()
		return 0, ErrAborted
	}

	httpReq, err := sent.httpRequest(ctx)
	if err != nil {
		cancel()
		return 0, fmt.Errorf("building request: %w", err)
	}

	e.client.logger.Debug("dispatching request",
		"method", sent.method,
		"url", sent.target.Redacted(),
		"request_id", sent.Header(HeaderRequestID),
	)

	resp, err := e.client.httpClientFor(sent, e.recorder).Do(httpReq)
	if err != nil {
		cancel()
		if e.aborted.Load() {
			return 0, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		return 0, fmt.Errorf("exec http do: %w", err)
	}

	e.mu.Lock()
	e.resp = resp
	e.mu.Unlock()

	e.client.logger.Debug("received response",
		"status", resp.StatusCode,
		"url", sent.target.Redacted(),
		"request_id", sent.Header(HeaderRequestID),
	)

	return resp.StatusCode, nil
}

// Abort cancels the exchange. A blocked Execute or body read returns
// promptly and later Execute calls fail with [ErrAborted].
func (e *Exchange) Abort() {
	e.aborted.Store(true)

	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsAborted reports whether Abort has been called.
func (e *Exchange) IsAborted() bool { return e.aborted.Load() }

// Request returns the request the next Execute will send.
func (e *Exchange) Request() *Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.req
}

// Sent returns the snapshot of the last dispatch, including the
// generated request id, or nil before the first Execute.
func (e *Exchange) Sent() *Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent
}

// Retarget releases the current response and points the exchange at req
// for the next Execute.
func (e *Exchange) Retarget(req *Request) {
	e.release()

	e.mu.Lock()
	e.req = req
	e.mu.Unlock()
}

// /////////////////////////////////////////////////////////////////
// Response accessors

// HasStatus reports whether a response has been received.
func (e *Exchange) HasStatus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resp != nil
}

// StatusCode returns the last status code, or 0 before any response.
func (e *Exchange) StatusCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil {
		return 0
	}
	return e.resp.StatusCode
}

// Status returns the reason phrase of the last status line.
func (e *Exchange) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil {
		return ""
	}

	phrase := strings.TrimSpace(strings.TrimPrefix(e.resp.Status, strconv.Itoa(e.resp.StatusCode)))
	if phrase == "" {
		phrase = http.StatusText(e.resp.StatusCode)
	}
	return phrase
}

// ResponseHeader returns the first value of the named response header,
// matched case-insensitively.
func (e *Exchange) ResponseHeader(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil {
		return ""
	}

	if v := e.resp.Header.Get(name); v != "" {
		return v
	}
	for k, v := range e.resp.Header {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// ResponseHeaders returns a copy of all response headers.
func (e *Exchange) ResponseHeaders() http.Header {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil {
		return http.Header{}
	}
	return e.resp.Header.Clone()
}

// ContentLength returns the declared body length, or -1 when unknown.
func (e *Exchange) ContentLength() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil {
		return -1
	}
	return e.resp.ContentLength
}

// Body returns the response body stream. It is empty once the body was
// read through BodyString or released.
func (e *Exchange) Body() io.Reader {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resp == nil || e.bodyRead || e.released {
		return http.NoBody
	}
	return e.resp.Body
}

// BodyString reads and caches the whole response body.
func (e *Exchange) BodyString() (string, error) {
	b, err := e.readBody(maxBodySize)
	return string(b), err
}

// readBody reads at most limit bytes of the body once and caches them.
func (e *Exchange) readBody(limit int64) ([]byte, error) {
	e.mu.Lock()
	if e.bodyRead {
		b := e.body
		e.mu.Unlock()
		return b, nil
	}
	resp, released := e.resp, e.released
	e.mu.Unlock()

	if resp == nil {
		return nil, ErrNotExecuted
	}
	if released {
		return nil, nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	e.mu.Lock()
	e.body = b
	e.bodyRead = true
	e.mu.Unlock()

	return b, nil
}

// Discard drains whatever remains of the body and closes it so the
// connection can be reused.
func (e *Exchange) Discard() {
	e.release()
}

// Close releases the response. It is safe to call more than once.
func (e *Exchange) Close() {
	e.release()
}

func (e *Exchange) release() {
	e.mu.Lock()
	resp := e.resp
	cancel := e.cancel
	already := e.released
	e.released = true
	e.mu.Unlock()

	if already {
		return
	}

	if resp != nil && resp.Body != nil {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil && !e.aborted.Load() && !errors.Is(err, context.Canceled) {
			e.client.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			e.client.logger.Error("failed to close response body", "error", err)
		}
	}

	if cancel != nil {
		cancel()
	}
}
