package throttle

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config carries the requests per second and burst of a Limiter.
type Config struct {
	RPS   int
	Burst int
}

// Limiter is one token bucket shared by every transport it wraps. A
// client caches a transport per timeout pair and wraps each with the
// same Limiter, so the rate applies to the client as a whole.
type Limiter struct {
	bucket *rate.Limiter
	rps    int
	burst  int
	logFn  func() *slog.Logger
}

type limitedTransport struct {
	limiter *Limiter
	next    http.RoundTripper
}
