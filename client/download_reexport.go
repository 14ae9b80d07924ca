package client

import (
	"hash"

	"github.com/adamwoolhether/cloudsync/client/download"
)

// ————————————————————————————————————————————————————————————————————
// Type aliases – re-export user-facing types from [download].
// ————————————————————————————————————————————————————————————————————

type (
	// DownloadOption configures [Client.Download].
	DownloadOption = download.Option

	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error

	// Transfer carries the cancellation flag and progress listeners of one transfer.
	Transfer = download.Transfer

	// ProgressListener is told about every chunk a transfer moves.
	ProgressListener = download.ProgressListener
)

// ————————————————————————————————————————————————————————————————————
// Sentinel errors
// ————————————————————————————————————————————————————————————————————

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrCancelled indicates the transfer was cancelled.
	ErrCancelled = download.ErrCancelled

	// ErrGroupShutdown indicates the download queue was shut down.
	ErrGroupShutdown = download.ErrGroupShutdown
)

// ————————————————————————————————————————————————————————————————————
// Download option forwarding functions
// ————————————————————————————————————————————————————————————————————

// NewTransfer returns a Transfer notifying listeners.
func NewTransfer(listeners ...ProgressListener) *Transfer { return download.NewTransfer(listeners...) }

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting makes a download succeed without any request when
// the destination file already exists.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }
