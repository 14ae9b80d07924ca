package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Handle streams body to a temp file beside destPath in ChunkSize
// pieces and renames it to destPath once every declared byte arrived.
//
// Before each write the transfer's cancellation flag and ctx are checked;
// either ends the copy with [ErrCancelled]. Listeners on t are notified
// after every write. A declared length below zero is treated as zero, so
// a body of unknown length is never saved. On any error the temp file is
// removed and destPath is left untouched.
func Handle(ctx context.Context, body io.Reader, declared int64, destPath string, t *Transfer, logger *slog.Logger, optFns ...Option) (int64, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return 0, fmt.Errorf("applying option: %w", err)
	}

	if opts.skip(destPath, logger) {
		return 0, nil
	}

	if declared < 0 {
		declared = 0
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating destination dir: %w", err)
	}

	file, err := os.CreateTemp(dir, ".cloudsync-dl-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}

		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	if opts.progress {
		lp := NewLogProgress(logger)
		if t == nil {
			t = NewTransfer()
		}
		t.AddProgressListener(lp)
		defer t.RemoveProgressListener(lp)
	}

	n, err := copyChunks(ctx, writer, body, declared, filepath.Base(destPath), t)
	if err != nil {
		return n, err
	}

	if n != declared {
		return n, &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", declared, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return n, err
	}

	if err := file.Sync(); err != nil {
		return n, fmt.Errorf("syncing temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(file.Name(), destPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return n, nil
}

// copyChunks moves body into w one chunk at a time.
func copyChunks(ctx context.Context, w io.Writer, body io.Reader, total int64, name string, t *Transfer) (int64, error) {
	buf := make([]byte, ChunkSize)

	var transferred int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if t.Cancelled() {
				return transferred, ErrCancelled
			}
			if err := ctx.Err(); err != nil {
				return transferred, fmt.Errorf("%w: %w", ErrCancelled, err)
			}

			if _, err := w.Write(buf[:n]); err != nil {
				return transferred, fmt.Errorf("writing chunk: %w", err)
			}
			transferred += int64(n)

			t.notify(int64(n), transferred, total, name)
		}

		switch {
		case errors.Is(rerr, io.EOF):
			return transferred, nil
		case rerr == nil:
			continue
		case t.Cancelled():
			return transferred, ErrCancelled
		case errors.Is(rerr, context.Canceled) || ctx.Err() != nil:
			return transferred, fmt.Errorf("%w: %w", ErrCancelled, rerr)
		default:
			return transferred, fmt.Errorf("copying file body: %w", rerr)
		}
	}
}
