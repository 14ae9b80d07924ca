package client

import (
	"net/url"
	"slices"
	"strings"
	"sync"
)

// ChainRecorder observes every physical dispatch of an exchange, in
// order, with the fully resolved URL about to be sent.
type ChainRecorder interface {
	Record(target string)
}

// RecorderFunc adapts a function to a [ChainRecorder].
type RecorderFunc func(target string)

func (f RecorderFunc) Record(target string) { f(target) }

// RedirectChain is a [ChainRecorder] that keeps every URL it sees. The
// zero value is ready to use and safe for concurrent use.
type RedirectChain struct {
	mu   sync.Mutex
	urls []string
}

func (c *RedirectChain) Record(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, target)
}

// URLs returns the recorded URLs in dispatch order.
func (c *RedirectChain) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.urls)
}

// Len reports how many dispatches were recorded.
func (c *RedirectChain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.urls)
}

// HasBeenRedirectedToInsecureLocation reports whether the chain holds at
// least one https URL and at least one http URL, in any order. Use
// [RedirectionPath] for the order-sensitive downgrade latch.
func (c *RedirectChain) HasBeenRedirectedToInsecureLocation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sawSecure, sawInsecure bool
	for _, u := range c.urls {
		sawSecure = sawSecure || isSecure(u)
		sawInsecure = sawInsecure || isInsecure(u)
	}

	return sawSecure && sawInsecure
}

func isSecure(target string) bool {
	return hasSchemePrefix(target, "https://")
}

func isInsecure(target string) bool {
	return hasSchemePrefix(target, "http://")
}

func hasSchemePrefix(target, prefix string) bool {
	return len(target) >= len(prefix) && strings.EqualFold(target[:len(prefix)], prefix)
}

// UpdateLocationWithRedirectPath resolves a redirect target against the
// URL that produced it. Targets that do not start with "/" are returned
// verbatim. Anything starting with "/", including "//host/path", is taken
// as a path on the scheme, host and port of oldLocation.
func UpdateLocationWithRedirectPath(oldLocation, redirectedLocation string) string {
	if !strings.HasPrefix(redirectedLocation, "/") {
		return redirectedLocation
	}

	u, err := url.Parse(oldLocation)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return redirectedLocation
	}

	return u.Scheme + "://" + u.Host + redirectedLocation
}
