package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/cloudsync/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	maxRedirects      int
	logger            *slog.Logger
	baseURL           *url.URL
	creds             Credentials
	userID            string
	tracer            trace.Tracer
	jar               http.CookieJar
}

// WithClient replaces the default [http.Client] used by the [Client].
// Its transport becomes the base transport and its cookie jar, when set,
// is shared by every exchange.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Per-request timeouts are only applied when rt is an [*http.Transport].
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets an overall deadline covering an exchange from dispatch
// until its body is fully read.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent on every dispatch.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
// The limiter is shared by every exchange the [Client] creates.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the transport from following redirects
// regardless of the per-request setting.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithRedirectLimit caps the redirects the transport follows on its own.
// It does not affect [Exchange.Follow], which takes its own cap.
func WithRedirectLimit(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return fmt.Errorf("redirect limit[%d] must be positive", n)
		}
		c.maxRedirects = n
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithBaseURL sets the server root every resource operation is resolved
// against, e.g. "https://cloud.example.com/owncloud".
func WithBaseURL(raw string) Option {
	return func(c *options) error {
		u, err := parseTarget(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
		u.RawQuery = ""
		u.Fragment = ""
		c.baseURL = u
		return nil
	}
}

// WithCredentials authenticates every dispatch with creds.
func WithCredentials(creds Credentials) Option {
	return func(c *options) error {
		if creds == nil {
			return errors.New("credentials must not be nil")
		}
		c.creds = creds
		return nil
	}
}

// WithUserID sets the account id used in WebDAV file URLs. It defaults
// to the credentials' username.
func WithUserID(id string) Option {
	return func(c *options) error {
		if id == "" {
			return errors.New("user id must not be empty")
		}
		c.userID = id
		return nil
	}
}

// WithTracer records a client span around every physical dispatch.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithCookieJar replaces the default public-suffix aware cookie jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *options) error {
		if jar == nil {
			return errors.New("cookie jar must not be nil")
		}
		c.jar = jar
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// DoOption is a functional option for [Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	useJSONNum bool
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// RequestOption is a functional option for [NewRequest].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	payload     any
	xmlPayload  any
	form        url.Values
	contentType *string
	cookies     []*http.Cookie
	headers     map[string][]string
}

// WithPayload sets a JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.payload = body

		return nil
	}
}

// WithXML sets an XML-encoded request body.
func WithXML(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.xmlPayload = body

		return nil
	}
}

// WithForm sets a form-urlencoded request body.
func WithForm(values url.Values) RequestOption {
	return func(opts *requestOpts) error {
		if values == nil {
			return errors.New("form values must not be nil")
		}
		opts.form = values

		return nil
	}
}

// WithContentType overrides the Content-Type derived from the body option.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies

		return nil
	}
}

// URLOption is a functional option for [Client.Endpoint].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}
