// Package throttle rate-limits outbound HTTP dispatches with a token
// bucket from [golang.org/x/time/rate].
//
// A single [Limiter] wraps any number of transports:
//
//	l, err := throttle.New(10, 5, func() *slog.Logger { return slog.Default() })
//	fast := l.Wrap(shortTimeoutTransport)
//	slow := l.Wrap(longTimeoutTransport)
//
// Once the bucket is empty a dispatch blocks until a token frees up or
// its context ends, in which case it fails with [ErrWaitingFailed].
package throttle
