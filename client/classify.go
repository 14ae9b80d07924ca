package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/xml"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/adamwoolhether/cloudsync/client/download"
)

// ResultFromError classifies a fault raised while building, sending or
// consuming a request. A nil err yields an OK result.
func ResultFromError[T any](err error) Result[T] {
	if err == nil {
		return NewResult[T](CodeOK)
	}

	return Result[T]{Code: classifyError(err), Err: err}
}

// ResultFromExchange classifies the response held by ex. The body is
// read, up to a small cap, when a server message may be present.
func ResultFromExchange[T any](ex *Exchange) Result[T] {
	if !ex.HasStatus() {
		return Result[T]{Code: CodeUnknownError, Err: ErrNotExecuted}
	}

	status := ex.StatusCode()
	r := Result[T]{
		Code:       classifyStatus(status),
		HTTPCode:   status,
		HTTPPhrase: ex.Status(),
	}

	if status >= http.StatusMultipleChoices && status < http.StatusBadRequest {
		r.RedirectedLocation = ex.ResponseHeader(HeaderLocation)
	}

	if status >= http.StatusBadRequest {
		if body, err := ex.readBody(maxErrBodySize); err == nil {
			r.ServerMessage = serverMessage(body)
		}
	}

	switch {
	case status == http.StatusForbidden && r.ServerMessage != "":
		r.Code = CodeSpecificForbidden
	case status == http.StatusServiceUnavailable && r.ServerMessage != "":
		r.Code = CodeSpecificServiceUnavailable
	}

	return r
}

func classifyStatus(status int) ResultCode {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusMultiStatus:
		return CodeOK
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeFileNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusPreconditionFailed:
		return CodePreconditionFailed
	case http.StatusInternalServerError:
		return CodeInstanceNotConfigured
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	case http.StatusInsufficientStorage:
		return CodeQuotaExceeded
	}

	return CodeUnhandledHTTPCode
}

func classifyError(err error) ResultCode {
	switch {
	case errors.Is(err, download.ErrCancelled),
		errors.Is(err, ErrAborted),
		errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, ErrMalformedTarget):
		return CodeIncorrectAddress
	case errors.Is(err, ErrTooManyRedirects):
		return CodeTooManyRedirects
	case errors.Is(err, download.ErrContentLengthMismatch):
		return CodeTransferIncomplete
	case errors.Is(err, download.ErrChecksumMismatch):
		return CodeChecksumMismatch
	case errors.Is(err, ErrEmptyDestination), errors.Is(err, ErrInvalidLocalFile):
		return CodeInvalidLocalFileName
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeHostNotAvailable
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CodeTimeout
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostname) || errors.As(err, &invalid) {
		return CodeSSLRecoverablePeerUnverified
	}

	var (
		recordErr tls.RecordHeaderError
		alertErr  tls.AlertError
		verifyErr *tls.CertificateVerificationError
	)
	if errors.As(err, &recordErr) || errors.As(err, &alertErr) || errors.As(err, &verifyErr) {
		return CodeSSLError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	if errors.Is(err, syscall.ENETUNREACH) {
		return CodeNoNetworkConnection
	}

	var opErr *net.OpError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.As(err, &opErr) {
		return CodeWrongConnection
	}

	if errors.Is(err, os.ErrNotExist) {
		return CodeLocalFileNotFound
	}

	return CodeUnknownError
}

// sabreError is the error document returned by the WebDAV server.
type sabreError struct {
	XMLName   xml.Name `xml:"error"`
	Exception string   `xml:"exception"`
	Message   string   `xml:"message"`
}

// serverMessage extracts a human readable message from an error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var e sabreError
	if err := xml.Unmarshal(body, &e); err != nil {
		return ""
	}

	return strings.TrimSpace(e.Message)
}
