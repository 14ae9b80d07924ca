package client

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// DefaultMaxRedirects caps hops followed by [Exchange.Follow].
const DefaultMaxRedirects = 10

// followState is a step of the redirect-following loop.
type followState int

const (
	stateRequesting followState = iota
	stateFollowing
	stateSuccess
)

// FollowOption is a functional option for [Exchange.Follow].
type FollowOption func(*followOpts) error

type followOpts struct {
	maxRedirects int
	statuses     []int
	success      func(status int) bool
}

// WithMaxRedirects caps the number of hops before [ErrTooManyRedirects].
func WithMaxRedirects(n int) FollowOption {
	return func(o *followOpts) error {
		if n < 0 {
			return fmt.Errorf("max redirects[%d] must not be negative", n)
		}
		o.maxRedirects = n
		return nil
	}
}

// WithRedirectStatuses limits which statuses are treated as redirects.
// By default every 3xx carrying a Location header is followed.
func WithRedirectStatuses(statuses ...int) FollowOption {
	return func(o *followOpts) error {
		o.statuses = statuses
		return nil
	}
}

// WithSuccess sets the predicate for statuses that end the loop even
// when a Location header is present. The default accepts any 2xx.
func WithSuccess(fn func(status int) bool) FollowOption {
	return func(o *followOpts) error {
		if fn == nil {
			return fmt.Errorf("success predicate must not be nil")
		}
		o.success = fn
		return nil
	}
}

// RedirectionPath summarises a chain walked by [Exchange.Follow].
// statuses[i] is the status that produced locations[i]; the final status
// has no location.
type RedirectionPath struct {
	statuses  []int
	locations []string
	insecure  bool
}

// Statuses returns every status seen, in order.
func (p *RedirectionPath) Statuses() []int { return slices.Clone(p.statuses) }

// Locations returns every resolved redirect target, in order.
func (p *RedirectionPath) Locations() []string { return slices.Clone(p.locations) }

// Hops reports how many redirects were followed.
func (p *RedirectionPath) Hops() int { return len(p.locations) }

// LastStatus returns the final status, or 0 if nothing was received.
func (p *RedirectionPath) LastStatus() int {
	if len(p.statuses) == 0 {
		return 0
	}
	return p.statuses[len(p.statuses)-1]
}

// LastLocation returns the last redirect target followed.
func (p *RedirectionPath) LastLocation() string {
	if len(p.locations) == 0 {
		return ""
	}
	return p.locations[len(p.locations)-1]
}

// LastPermanentLocation returns the last target reached through a
// permanent redirect.
func (p *RedirectionPath) LastPermanentLocation() string {
	for i := len(p.locations) - 1; i >= 0; i-- {
		if s := p.statuses[i]; s == http.StatusMovedPermanently || s == http.StatusPermanentRedirect {
			return p.locations[i]
		}
	}
	return ""
}

// RedirectedToInsecureLocation reports whether any hop downgraded from
// https to http. Once set it stays set.
func (p *RedirectionPath) RedirectedToInsecureLocation() bool { return p.insecure }

// Follow executes the exchange and walks redirects by hand, one Execute
// per hop, until a success status, a status without a redirect target,
// or the hop cap. Transport-level redirect following is disabled for the
// duration. Relative targets are resolved with
// [UpdateLocationWithRedirectPath] and a Destination header is moved onto
// the redirected host.
func (e *Exchange) Follow(ctx context.Context, optFns ...FollowOption) (*RedirectionPath, error) {
	opts := followOpts{
		maxRedirects: DefaultMaxRedirects,
		success: func(status int) bool {
			return status >= http.StatusOK && status < http.StatusMultipleChoices
		},
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying follow option: %w", err)
		}
	}

	e.Retarget(e.Request().WithFollowRedirects(false))

	path := &RedirectionPath{}
	current := e.Request().URL().String()
	state := stateRequesting
	var target string

	for state != stateSuccess {
		switch state {
		case stateRequesting:
			status, err := e.Execute(ctx)
			if err != nil {
				return path, err
			}
			path.statuses = append(path.statuses, status)

			target = e.redirectTarget(status, opts.statuses)
			if target == "" || opts.success(status) {
				state = stateSuccess
				continue
			}
			state = stateFollowing

		case stateFollowing:
			if len(path.locations) >= opts.maxRedirects {
				return path, fmt.Errorf("%w: stopped after %d hops at %s", ErrTooManyRedirects, opts.maxRedirects, current)
			}

			next := UpdateLocationWithRedirectPath(current, target)
			nextURL, err := parseTarget(next)
			if err != nil {
				return path, err
			}

			if isSecure(current) && isInsecure(next) {
				path.insecure = true
			}
			path.locations = append(path.locations, next)

			e.client.logger.Debug("following redirect", "from", current, "to", next, "status", path.LastStatus())

			req := e.Request().WithURL(nextURL)
			if dest := req.Header(HeaderDestination); dest != "" {
				req = req.WithHeader(HeaderDestination, e.client.rebaseDestination(next, dest))
			}
			e.Retarget(req)

			current = next
			state = stateRequesting
		}
	}

	return path, nil
}

// redirectTarget returns the Location of a redirect response, or "".
func (e *Exchange) redirectTarget(status int, statuses []int) string {
	if statuses != nil {
		if !slices.Contains(statuses, status) {
			return ""
		}
	} else if status < http.StatusMultipleChoices || status >= http.StatusBadRequest {
		return ""
	}

	return e.ResponseHeader(HeaderLocation)
}

// rebaseDestination moves destination onto the server that location
// points to, keeping its path below the user's WebDAV files root.
// Destinations outside that root are returned unchanged.
func (c *Client) rebaseDestination(location, destination string) string {
	root, err := c.FilesWebDAVURL()
	if err != nil {
		return destination
	}
	davPath := strings.TrimSuffix(root.EscapedPath(), "/")

	locIdx := strings.LastIndex(location, davPath)
	destIdx := strings.Index(destination, davPath)
	if davPath == "" || locIdx < 0 || destIdx < 0 {
		return destination
	}

	return location[:locIdx] + destination[destIdx:]
}
