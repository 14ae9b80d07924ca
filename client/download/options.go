package download

import (
	"errors"
	"hash"
	"log/slog"
	"os"
)

// Option defines optional settings for downloading files.
//
// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
//
// WithProgress enables periodic download progress logging via the
// logger supplied to Handle.
//
// WithSkipExisting causes Handle to return immediately when
// the destination file already exists, avoiding a redundant download.
type Option func(*options) error
type options struct {
	checksum     *checksumVerifier
	progress     bool
	skipExisting bool
}

func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}

		return nil
	}
}

func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

func applyOptions(optFns []Option) (options, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return opts, err
		}
	}

	return opts, nil
}

// Skip reports whether optFns ask to skip destPath because it already exists.
func Skip(destPath string, logger *slog.Logger, optFns ...Option) (bool, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return false, err
	}

	return opts.skip(destPath, logger), nil
}

func (o options) skip(destPath string, logger *slog.Logger) bool {
	if !o.skipExisting {
		return false
	}
	if _, err := os.Stat(destPath); err != nil {
		return false
	}

	logger.Info("skipping existing file", "path", destPath)
	return true
}
