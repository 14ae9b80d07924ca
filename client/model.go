package client

import (
	"errors"
)

// maxErrBodySize caps the amount of response body read when
// extracting a server message from an error response. This prevents
// unbounded memory usage when a large response arrives with a
// wrong status.
const maxErrBodySize = 4 << 10 // 4KB

// maxBodySize caps [Exchange.BodyString].
const maxBodySize = 32 << 20 // 32MB

// maxAutoRedirects is the default cap on redirects the transport follows.
const maxAutoRedirects = 10

// WebDAVFilesPath is the server path under which each user's files live.
const WebDAVFilesPath = "/remote.php/dav/files/"

// Headers set on every dispatch.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderAuthorization  = "Authorization"
	HeaderAcceptEncoding = "Accept-Encoding"
	HeaderLocation       = "Location"
	HeaderDestination    = "Destination"
	HeaderContentLength  = "Content-Length"
	HeaderETag           = "ETag"
	HeaderLastModified   = "Last-Modified"
	HeaderChecksum       = "OC-Checksum"
	HeaderFileID         = "OC-FileId"
)

var (
	// ErrMalformedTarget is returned for URLs that are not absolute http(s) URLs.
	ErrMalformedTarget = errors.New("malformed target url")
	// ErrTooManyRedirects is returned once a redirect chain exceeds its cap.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrAborted is returned by exchanges cancelled through [Exchange.Abort].
	ErrAborted = errors.New("exchange aborted")
	// ErrNoBaseURL is returned by resource helpers when the client lacks [WithBaseURL].
	ErrNoBaseURL = errors.New("client has no base url")
	// ErrEmptyDestination is returned when a download has nowhere to go.
	ErrEmptyDestination = errors.New("destPath must not be empty")
	// ErrInvalidLocalFile is returned when a local path cannot be uploaded.
	ErrInvalidLocalFile = errors.New("invalid local file")
	// ErrNotExecuted is returned when a response is requested before dispatch.
	ErrNotExecuted = errors.New("exchange has no response")
)
