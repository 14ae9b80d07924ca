package client_test

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/adamwoolhether/cloudsync/client"
)

const sabreForbidden = `<?xml version="1.0" encoding="utf-8"?>
<d:error xmlns:d="DAV:" xmlns:s="http://sabredav.org/ns">
  <s:exception>Sabre\DAV\Exception\Forbidden</s:exception>
  <s:message>Access to this resource is blocked by the firewall</s:message>
</d:error>`

func TestResultFromExchange(t *testing.T) {
	tests := []struct {
		status      int
		body        string
		location    string
		wantCode    client.ResultCode
		wantMessage string
	}{
		{status: http.StatusOK, wantCode: client.CodeOK},
		{status: http.StatusCreated, wantCode: client.CodeOK},
		{status: http.StatusNoContent, wantCode: client.CodeOK},
		{status: http.StatusMultiStatus, wantCode: client.CodeOK},
		{status: http.StatusFound, location: "https://elsewhere/", wantCode: client.CodeUnhandledHTTPCode},
		{status: http.StatusBadRequest, wantCode: client.CodeBadRequest},
		{status: http.StatusUnauthorized, wantCode: client.CodeUnauthorized},
		{status: http.StatusForbidden, wantCode: client.CodeForbidden},
		{status: http.StatusForbidden, body: sabreForbidden, wantCode: client.CodeSpecificForbidden,
			wantMessage: "Access to this resource is blocked by the firewall"},
		{status: http.StatusNotFound, wantCode: client.CodeFileNotFound},
		{status: http.StatusConflict, wantCode: client.CodeConflict},
		{status: http.StatusPreconditionFailed, wantCode: client.CodePreconditionFailed},
		{status: http.StatusInternalServerError, wantCode: client.CodeInstanceNotConfigured},
		{status: http.StatusServiceUnavailable, wantCode: client.CodeServiceUnavailable},
		{status: http.StatusServiceUnavailable, body: sabreForbidden, wantCode: client.CodeSpecificServiceUnavailable,
			wantMessage: "Access to this resource is blocked by the firewall"},
		{status: http.StatusInsufficientStorage, wantCode: client.CodeQuotaExceeded},
		{status: http.StatusTeapot, wantCode: client.CodeUnhandledHTTPCode},
		{status: http.StatusForbidden, body: "not xml", wantCode: client.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.status, tt.wantCode), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.location != "" {
					w.Header().Set("Location", tt.location)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			c := newClient(t)
			ex := c.NewExchange(newRequest(t, http.MethodGet, ts.URL).WithFollowRedirects(false))
			defer ex.Close()

			if _, err := ex.Execute(t.Context()); err != nil {
				t.Fatalf("Execute: %v", err)
			}

			r := client.ResultFromExchange[string](ex)
			if r.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", r.Code, tt.wantCode)
			}
			if r.HTTPCode != tt.status {
				t.Errorf("http code = %d, want %d", r.HTTPCode, tt.status)
			}
			if r.ServerMessage != tt.wantMessage {
				t.Errorf("server message = %q, want %q", r.ServerMessage, tt.wantMessage)
			}
			if r.RedirectedLocation != tt.location {
				t.Errorf("redirected location = %q, want %q", r.RedirectedLocation, tt.location)
			}
			if r.Err != nil {
				t.Errorf("status results carry no fault, got %v", r.Err)
			}
		})
	}
}

func TestResultFromExchange_NotExecuted(t *testing.T) {
	c := newClient(t)
	ex := c.NewExchange(newRequest(t, http.MethodGet, "http://cloud.example.com/"))

	r := client.ResultFromExchange[string](ex)
	if r.Code != client.CodeUnknownError || !errors.Is(r.Err, client.ErrNotExecuted) {
		t.Errorf("got %s / %v", r.Code, r.Err)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestResultFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want client.ResultCode
	}{
		{name: "nil", err: nil, want: client.CodeOK},
		{name: "context cancelled", err: fmt.Errorf("exec http do: %w", context.Canceled), want: client.CodeCancelled},
		{name: "aborted", err: client.ErrAborted, want: client.CodeCancelled},
		{name: "transfer cancelled", err: client.ErrCancelled, want: client.CodeCancelled},
		{name: "malformed target", err: client.ErrMalformedTarget, want: client.CodeIncorrectAddress},
		{name: "redirect cap", err: fmt.Errorf("x: %w", client.ErrTooManyRedirects), want: client.CodeTooManyRedirects},
		{name: "length mismatch", err: &client.DownloadError{Err: client.ErrContentLengthMismatch}, want: client.CodeTransferIncomplete},
		{name: "checksum", err: &client.DownloadError{Err: client.ErrChecksumMismatch}, want: client.CodeChecksumMismatch},
		{name: "empty destination", err: client.ErrEmptyDestination, want: client.CodeInvalidLocalFileName},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, want: client.CodeHostNotAvailable},
		{name: "deadline", err: context.DeadlineExceeded, want: client.CodeTimeout},
		{name: "net timeout", err: timeoutErr{}, want: client.CodeTimeout},
		{name: "unknown authority", err: fmt.Errorf("tls: %w", x509.UnknownAuthorityError{}), want: client.CodeSSLRecoverablePeerUnverified},
		{name: "hostname mismatch", err: x509.HostnameError{Host: "x"}, want: client.CodeSSLRecoverablePeerUnverified},
		{name: "unreachable", err: &os.SyscallError{Syscall: "connect", Err: syscall.ENETUNREACH}, want: client.CodeNoNetworkConnection},
		{name: "refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: client.CodeWrongConnection},
		{name: "reset", err: syscall.ECONNRESET, want: client.CodeWrongConnection},
		{name: "missing local file", err: fmt.Errorf("stat: %w", os.ErrNotExist), want: client.CodeLocalFileNotFound},
		{name: "other", err: errors.New("boom"), want: client.CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := client.ResultFromError[int](tt.err)
			if r.Code != tt.want {
				t.Errorf("code = %s, want %s", r.Code, tt.want)
			}
			if !errors.Is(r.Err, tt.err) {
				t.Errorf("fault not kept: %v", r.Err)
			}
			if r.Success() != (tt.err == nil) {
				t.Errorf("Success = %v for %v", r.Success(), tt.err)
			}
		})
	}
}

func TestResultCode_String(t *testing.T) {
	tests := []struct {
		code client.ResultCode
		want string
	}{
		{client.CodeOK, "OK"},
		{client.CodeOKRedirectToNonSecureConnection, "OK_REDIRECT_TO_NON_SECURE_CONNECTION"},
		{client.CodeSSLRecoverablePeerUnverified, "SSL_RECOVERABLE_PEER_UNVERIFIED"},
		{client.CodeShareWrongParameter, "SHARE_WRONG_PARAMETER"},
		{client.ResultCode(999), "ResultCode(999)"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestResultCode_IsOK(t *testing.T) {
	ok := []client.ResultCode{client.CodeOK, client.CodeOKSSL, client.CodeOKNoSSL, client.CodeOKRedirectToNonSecureConnection}
	for _, c := range ok {
		if !c.IsOK() {
			t.Errorf("%s should be OK", c)
		}
	}

	for _, c := range []client.ResultCode{client.CodeUnknownError, client.CodeCancelled, client.CodeFileNotFound} {
		if c.IsOK() {
			t.Errorf("%s should not be OK", c)
		}
	}
}

func TestResult_Recast(t *testing.T) {
	src := client.Result[int]{
		Code:          client.CodeForbidden,
		Data:          42,
		HTTPCode:      403,
		HTTPPhrase:    "Forbidden",
		ServerMessage: "nope",
		Err:           errors.New("x"),
	}

	got := client.Recast[string](src)
	if got.Code != src.Code || got.HTTPCode != 403 || got.ServerMessage != "nope" || got.Err != src.Err {
		t.Errorf("recast lost fields: %+v", got)
	}
	if got.Data != "" {
		t.Errorf("data should not carry over, got %q", got.Data)
	}

	msg := src.LogMessage()
	if msg != "FORBIDDEN: http 403 Forbidden: nope: x" {
		t.Errorf("LogMessage = %q", msg)
	}
}
