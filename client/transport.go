package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

// transportKey identifies a cached transport by its timeouts.
type transportKey struct {
	connect time.Duration
	read    time.Duration
}

// transportFor returns the base transport tuned to the given timeouts.
// Transports are cloned once per distinct pair and reused so that
// connection pools survive across exchanges. Non-*http.Transport bases
// are returned untouched.
func (c *Client) transportFor(connect, read time.Duration) http.RoundTripper {
	base, ok := c.base.(*http.Transport)
	if !ok {
		return c.base
	}

	key := transportKey{connect: connect, read: read}
	if rt, ok := c.transports.Load(key); ok {
		return rt.(*http.Transport)
	}

	t := base.Clone()
	dial := base.DialContext
	if dial == nil {
		dial = (&net.Dialer{KeepAlive: 30 * time.Second}).DialContext
	}
	if connect > 0 {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			ctx, cancel := context.WithTimeout(ctx, connect)
			defer cancel()
			return dial(ctx, network, addr)
		}
		t.TLSHandshakeTimeout = connect
	}
	if read > 0 {
		t.ResponseHeaderTimeout = read
	}

	actual, _ := c.transports.LoadOrStore(key, t)
	return actual.(*http.Transport)
}

// httpClientFor assembles the *http.Client for a single dispatch of req.
// rec, when non-nil, observes every physical dispatch: redirects the
// transport follows on its own and connection retries alike.
func (c *Client) httpClientFor(req *Request, rec ChainRecorder) *http.Client {
	rt := c.transportFor(req.connectTimeout, req.readTimeout)
	rt = c.wrap(rt)
	if rec != nil {
		rt = recordingTransport{rec: rec, next: rt}
	}
	if req.retryOnFailure {
		rt = retryTransport{next: rt, logger: c.logger}
	}

	hc := &http.Client{
		Transport: rt,
		Jar:       c.jar,
		Timeout:   c.timeout,
	}

	switch {
	case !req.follow || c.noFollowRedirects:
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	default:
		hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > c.maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		}
	}

	return hc
}

// wrap layers the client-wide middleware over a base transport.
func (c *Client) wrap(rt http.RoundTripper) http.RoundTripper {
	if c.userAgent != "" {
		rt = userAgent{value: c.userAgent, base: rt}
	}
	rt = tracingTransport{tracer: c.tracer, next: rt}
	if c.limiter != nil {
		rt = c.limiter.Wrap(rt)
	}

	return rt
}

// recordingTransport reports every URL it dispatches to a ChainRecorder.
type recordingTransport struct {
	rec  ChainRecorder
	next http.RoundTripper
}

func (t recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.rec.Record(r.URL.String())
	return t.next.RoundTrip(r)
}

// maxConnectionRetries bounds extra attempts after a connection failure.
const maxConnectionRetries = 1

// retryTransport replays a request whose connection could not be
// established or was reset before a response arrived.
type retryTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t retryTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(r)
	for attempt := 1; attempt <= maxConnectionRetries; attempt++ {
		if err == nil || !isConnectionFailure(err) || r.Context().Err() != nil {
			return resp, err
		}

		next := r.Clone(r.Context())
		if r.Body != nil && r.Body != http.NoBody {
			if r.GetBody == nil {
				return resp, err
			}
			body, gerr := r.GetBody()
			if gerr != nil {
				return resp, err
			}
			next.Body = body
		}

		t.logger.Warn("retrying after connection failure", "url", r.URL.Redacted(), "attempt", attempt, "error", err)
		resp, err = t.next.RoundTrip(next)
	}

	return resp, err
}

func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
