package client

import (
	"fmt"
)

// ResultCode is the closed set of outcomes an operation can report.
type ResultCode int

const (
	CodeUnknownError ResultCode = iota
	CodeOK
	CodeOKSSL
	CodeOKNoSSL
	CodeOKRedirectToNonSecureConnection
	CodeCancelled
	CodeTimeout
	CodeHostNotAvailable
	CodeWrongConnection
	CodeIncorrectAddress
	CodeNoNetworkConnection
	CodeSSLError
	CodeSSLRecoverablePeerUnverified
	CodeBadRequest
	CodeUnauthorized
	CodeForbidden
	CodeSpecificForbidden
	CodeFileNotFound
	CodeConflict
	CodePreconditionFailed
	CodeInstanceNotConfigured
	CodeServiceUnavailable
	CodeSpecificServiceUnavailable
	CodeQuotaExceeded
	CodeUnhandledHTTPCode
	CodeWrongServerResponse
	CodeTooManyRedirects
	CodeTransferIncomplete
	CodeChecksumMismatch
	CodeInvalidLocalFileName
	CodeLocalFileNotFound
	CodeInvalidCharacterInName
	CodeInvalidCopyIntoDescendant
	CodeInvalidMoveIntoDescendant
	CodeInvalidOverwrite
	CodeShareNotFound
	CodeShareForbidden
	CodeShareWrongParameter
)

var codeNames = [...]string{
	CodeUnknownError:                    "UNKNOWN_ERROR",
	CodeOK:                              "OK",
	CodeOKSSL:                           "OK_SSL",
	CodeOKNoSSL:                         "OK_NO_SSL",
	CodeOKRedirectToNonSecureConnection: "OK_REDIRECT_TO_NON_SECURE_CONNECTION",
	CodeCancelled:                       "CANCELLED",
	CodeTimeout:                         "TIMEOUT",
	CodeHostNotAvailable:                "HOST_NOT_AVAILABLE",
	CodeWrongConnection:                 "WRONG_CONNECTION",
	CodeIncorrectAddress:                "INCORRECT_ADDRESS",
	CodeNoNetworkConnection:             "NO_NETWORK_CONNECTION",
	CodeSSLError:                        "SSL_ERROR",
	CodeSSLRecoverablePeerUnverified:    "SSL_RECOVERABLE_PEER_UNVERIFIED",
	CodeBadRequest:                      "BAD_REQUEST",
	CodeUnauthorized:                    "UNAUTHORIZED",
	CodeForbidden:                       "FORBIDDEN",
	CodeSpecificForbidden:               "SPECIFIC_FORBIDDEN",
	CodeFileNotFound:                    "FILE_NOT_FOUND",
	CodeConflict:                        "CONFLICT",
	CodePreconditionFailed:              "PRECONDITION_FAILED",
	CodeInstanceNotConfigured:           "INSTANCE_NOT_CONFIGURED",
	CodeServiceUnavailable:              "SERVICE_UNAVAILABLE",
	CodeSpecificServiceUnavailable:      "SPECIFIC_SERVICE_UNAVAILABLE",
	CodeQuotaExceeded:                   "QUOTA_EXCEEDED",
	CodeUnhandledHTTPCode:               "UNHANDLED_HTTP_CODE",
	CodeWrongServerResponse:             "WRONG_SERVER_RESPONSE",
	CodeTooManyRedirects:                "TOO_MANY_REDIRECTS",
	CodeTransferIncomplete:              "TRANSFER_INCOMPLETE",
	CodeChecksumMismatch:                "CHECKSUM_MISMATCH",
	CodeInvalidLocalFileName:            "INVALID_LOCAL_FILE_NAME",
	CodeLocalFileNotFound:               "LOCAL_FILE_NOT_FOUND",
	CodeInvalidCharacterInName:          "INVALID_CHARACTER_IN_NAME",
	CodeInvalidCopyIntoDescendant:       "INVALID_COPY_INTO_DESCENDANT",
	CodeInvalidMoveIntoDescendant:       "INVALID_MOVE_INTO_DESCENDANT",
	CodeInvalidOverwrite:                "INVALID_OVERWRITE",
	CodeShareNotFound:                   "SHARE_NOT_FOUND",
	CodeShareForbidden:                  "SHARE_FORBIDDEN",
	CodeShareWrongParameter:             "SHARE_WRONG_PARAMETER",
}

func (c ResultCode) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("ResultCode(%d)", int(c))
	}
	return codeNames[c]
}

// IsOK reports whether c is one of the success codes.
func (c ResultCode) IsOK() bool {
	switch c {
	case CodeOK, CodeOKSSL, CodeOKNoSSL, CodeOKRedirectToNonSecureConnection:
		return true
	}
	return false
}

// Result is the uniform outcome of a remote operation. Success results
// never carry Err; failures keep whichever fault, HTTP status and server
// message led to them.
type Result[T any] struct {
	Code               ResultCode
	Data               T
	HTTPCode           int
	HTTPPhrase         string
	RedirectedLocation string
	ServerMessage      string
	Err                error
}

// NewResult returns a Result carrying only code.
func NewResult[T any](code ResultCode) Result[T] {
	return Result[T]{Code: code}
}

// Success reports whether the operation succeeded.
func (r Result[T]) Success() bool { return r.Code.IsOK() }

// WithData returns a copy of r carrying data.
func (r Result[T]) WithData(data T) Result[T] {
	r.Data = data
	return r
}

// LogMessage renders the result for logs.
func (r Result[T]) LogMessage() string {
	msg := r.Code.String()
	if r.HTTPCode != 0 {
		msg = fmt.Sprintf("%s: http %d %s", msg, r.HTTPCode, r.HTTPPhrase)
	}
	if r.ServerMessage != "" {
		msg += ": " + r.ServerMessage
	}
	if r.Err != nil {
		msg += ": " + r.Err.Error()
	}
	return msg
}

// Recast carries everything but the payload of r into a Result[U].
func Recast[U, T any](r Result[T]) Result[U] {
	return Result[U]{
		Code:               r.Code,
		HTTPCode:           r.HTTPCode,
		HTTPPhrase:         r.HTTPPhrase,
		RedirectedLocation: r.RedirectedLocation,
		ServerMessage:      r.ServerMessage,
		Err:                r.Err,
	}
}
