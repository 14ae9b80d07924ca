package throttle_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/cloudsync/client/throttle"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rps     int
		burst   int
		wantErr bool
	}{
		{name: "valid", rps: 10, burst: 5},
		{name: "burst of one", rps: 1, burst: 1},
		{name: "zero rps", rps: 0, burst: 5, wantErr: true},
		{name: "zero burst", rps: 10, burst: 0, wantErr: true},
		{name: "negative rps", rps: -1, burst: 5, wantErr: true},
		{name: "negative burst", rps: 10, burst: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := throttle.New(tt.rps, tt.burst, nil)
			if tt.wantErr {
				if !errors.Is(err, throttle.ErrMustNotBeZero) {
					t.Errorf("expected ErrMustNotBeZero, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l.Available() != float64(tt.burst) {
				t.Errorf("expected a full bucket of %d, got %v", tt.burst, l.Available())
			}
		})
	}
}

// countingServer counts the requests that make it past the limiter.
func countingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func get(ctx context.Context, c *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func TestLimiter_Wrap(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		requests int
		timeout  time.Duration
		cancel   bool
		wantOK   int
		wantErr  error
	}{
		{name: "within burst", burst: 3, requests: 3, timeout: time.Second, wantOK: 3},
		{name: "bucket drained", burst: 2, requests: 3, timeout: 50 * time.Millisecond, wantOK: 2, wantErr: throttle.ErrWaitingFailed},
		{name: "cancelled before dispatch", burst: 2, requests: 1, timeout: time.Second, cancel: true, wantErr: throttle.ErrContextEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := countingServer(t)

			l, err := throttle.New(1, tt.burst, nil)
			if err != nil {
				t.Fatal(err)
			}
			c := &http.Client{Transport: l.Wrap(http.DefaultTransport)}

			var lastErr error
			for range tt.requests {
				ctx, cancel := context.WithTimeout(t.Context(), tt.timeout)
				if tt.cancel {
					cancel()
				}
				lastErr = get(ctx, c, srv.URL)
				cancel()
			}

			if int(hits.Load()) != tt.wantOK {
				t.Errorf("expected %d requests to reach the server, got %d", tt.wantOK, hits.Load())
			}
			if tt.wantErr == nil && lastErr != nil {
				t.Errorf("expected no error, got %v", lastErr)
			}
			if tt.wantErr != nil && !errors.Is(lastErr, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, lastErr)
			}
		})
	}
}

func TestLimiter_SharedAcrossTransports(t *testing.T) {
	srv, hits := countingServer(t)

	l, err := throttle.New(1, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	short := &http.Client{Transport: l.Wrap(&http.Transport{ResponseHeaderTimeout: time.Second})}
	long := &http.Client{Transport: l.Wrap(&http.Transport{ResponseHeaderTimeout: time.Minute})}

	start := time.Now()
	if err := get(t.Context(), short, srv.URL); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := get(t.Context(), long, srv.URL); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if d := time.Since(start); d > 200*time.Millisecond {
		t.Errorf("expected burst requests to pass without waiting, took %v", d)
	}

	for name, c := range map[string]*http.Client{"short": short, "long": long} {
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		err := get(ctx, c, srv.URL)
		cancel()
		if !errors.Is(err, throttle.ErrWaitingFailed) {
			t.Errorf("%s: expected ErrWaitingFailed once the shared bucket is empty, got %v", name, err)
		}
	}

	if hits.Load() != 2 {
		t.Errorf("expected 2 requests to reach the server, got %d", hits.Load())
	}
}

// syncBuffer guards a bytes.Buffer written by concurrent dispatches.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLimiter_ExhaustionLogging(t *testing.T) {
	srv, _ := countingServer(t)

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	l, err := throttle.New(1, 2, func() *slog.Logger { return logger })
	if err != nil {
		t.Fatal(err)
	}
	c := &http.Client{Transport: l.Wrap(http.DefaultTransport)}

	// Logging must not take a token, so both burst requests fit well
	// inside a deadline far shorter than one refill.
	for i := range 2 {
		ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
		err := get(ctx, c, srv.URL)
		cancel()
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if strings.Contains(out.String(), "throttle tokens exhausted") {
		t.Errorf("expected no exhaustion log within the burst, got %q", out.String())
	}

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	if err := get(ctx, c, srv.URL); !errors.Is(err, throttle.ErrWaitingFailed) {
		t.Errorf("expected ErrWaitingFailed, got %v", err)
	}
	if !strings.Contains(out.String(), "throttle tokens exhausted") {
		t.Errorf("expected an exhaustion log entry, got %q", out.String())
	}
}
