package client_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/cloudsync/client"
)

func TestNewRequest_Target(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "https", target: "https://cloud.example.com/status.php"},
		{name: "http with port", target: "http://cloud.example.com:8080/"},
		{name: "surrounding space", target: "  https://cloud.example.com  "},
		{name: "relative", target: "/status.php", wantErr: true},
		{name: "no scheme", target: "cloud.example.com/status.php", wantErr: true},
		{name: "ftp", target: "ftp://cloud.example.com/", wantErr: true},
		{name: "no host", target: "https:///path", wantErr: true},
		{name: "bad escape", target: "https://cloud.example.com/%zz", wantErr: true},
		{name: "empty", target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.NewRequest(http.MethodGet, tt.target)
			if tt.wantErr {
				if !errors.Is(err, client.ErrMalformedTarget) {
					t.Fatalf("expected ErrMalformedTarget, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewRequest_Defaults(t *testing.T) {
	req, err := client.NewRequest("", "https://cloud.example.com/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if req.Method() != http.MethodGet {
		t.Errorf("method = %q, want GET", req.Method())
	}
	if !req.FollowRedirects() {
		t.Error("expected redirects followed by default")
	}
	if req.RetryOnConnectionFailure() {
		t.Error("expected no retry by default")
	}
	if req.ConnectTimeout() != client.DefaultConnectTimeout || req.ReadTimeout() != client.DefaultReadTimeout {
		t.Errorf("timeouts = %v/%v", req.ConnectTimeout(), req.ReadTimeout())
	}
}

func TestNewRequest_Options(t *testing.T) {
	tests := []struct {
		name   string
		opts   []client.RequestOption
		wantCT string
	}{
		{name: "json", opts: []client.RequestOption{client.WithPayload(map[string]string{"a": "b"})}, wantCT: "application/json"},
		{name: "xml", opts: []client.RequestOption{client.WithXML(struct {
			Name string `xml:"name"`
		}{"x"})}, wantCT: "application/xml; charset=utf-8"},
		{name: "form", opts: []client.RequestOption{client.WithForm(url.Values{"k": {"v"}})}, wantCT: "application/x-www-form-urlencoded"},
		{name: "override", opts: []client.RequestOption{client.WithForm(url.Values{"k": {"v"}}), client.WithContentType("text/plain")}, wantCT: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := client.NewRequest(http.MethodPost, "https://cloud.example.com/", tt.opts...)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if got := req.Header("Content-Type"); got != tt.wantCT {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantCT)
			}
		})
	}
}

func TestNewRequest_HeadersAndCookies(t *testing.T) {
	req, err := client.NewRequest(http.MethodGet, "https://cloud.example.com/",
		client.WithHeaders(map[string][]string{"X-Multi": {"a", "b"}}),
		client.WithCookies(&http.Cookie{Name: "oc_sessionPassphrase", Value: "abc"}, &http.Cookie{Name: "other", Value: "1"}),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, req.Headers().Values("X-Multi")); diff != "" {
		t.Errorf("X-Multi mismatch (-want +got):\n%s", diff)
	}
	if got := req.Header("Cookie"); got != "oc_sessionPassphrase=abc; other=1" {
		t.Errorf("Cookie = %q", got)
	}
}

func TestNewRequest_InvalidOptions(t *testing.T) {
	if _, err := client.NewRequest(http.MethodPost, "https://cloud.example.com/", client.WithForm(nil)); err == nil {
		t.Error("expected error for nil form")
	}
	if _, err := client.NewRequest(http.MethodPost, "https://cloud.example.com/", client.WithContentType("")); err == nil {
		t.Error("expected error for empty content type")
	}
}

func TestRequest_CopyOnWrite(t *testing.T) {
	orig, err := client.NewRequest(http.MethodGet, "https://cloud.example.com/a")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	orig = orig.WithHeader("X-Keep", "1")

	other, _ := url.Parse("https://other.example.com/b")
	mutated := orig.
		WithHeader("X-Keep", "2").
		AddHeader("X-New", "n").
		WithoutHeader("X-Keep").
		WithURL(other).
		WithMethod("propfind").
		WithBody([]byte("<x/>"), "application/xml").
		WithConnectTimeout(time.Second).
		WithReadTimeout(2 * time.Second).
		WithFollowRedirects(false).
		WithRetryOnConnectionFailure(true)

	if orig.Header("X-Keep") != "1" || orig.Header("X-New") != "" || orig.Header("Content-Type") != "" {
		t.Errorf("original headers changed: %v", orig.Headers())
	}
	if orig.URL().String() != "https://cloud.example.com/a" || orig.Method() != http.MethodGet {
		t.Errorf("original target changed: %s %s", orig.Method(), orig.URL())
	}
	if !orig.FollowRedirects() || orig.RetryOnConnectionFailure() {
		t.Error("original flags changed")
	}
	if orig.ConnectTimeout() != client.DefaultConnectTimeout || orig.ReadTimeout() != client.DefaultReadTimeout {
		t.Error("original timeouts changed")
	}

	if mutated.Method() != "PROPFIND" {
		t.Errorf("method = %q, want PROPFIND", mutated.Method())
	}
	if mutated.URL().Host != "other.example.com" {
		t.Errorf("host = %q", mutated.URL().Host)
	}
	if mutated.Header("X-Keep") != "" || mutated.Header("X-New") != "n" {
		t.Errorf("mutated headers = %v", mutated.Headers())
	}
	if mutated.FollowRedirects() || !mutated.RetryOnConnectionFailure() {
		t.Error("mutated flags not applied")
	}
}

func TestRequest_AccessorsReturnCopies(t *testing.T) {
	req, _ := client.NewRequest(http.MethodGet, "https://cloud.example.com/a")
	req = req.WithHeader("X-A", "1")

	req.URL().Path = "/changed"
	h := req.Headers()
	h.Set("X-A", "changed")

	if req.URL().Path != "/a" {
		t.Errorf("URL mutated through accessor: %s", req.URL())
	}
	if req.Header("X-A") != "1" {
		t.Errorf("header mutated through accessor: %s", req.Header("X-A"))
	}
}
