package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/adamwoolhether/cloudsync/client/download"
)

// DownloadInfo describes a file saved by [Client.Download].
type DownloadInfo struct {
	Path     string
	Size     int64
	ETag     string
	Modified time.Time
}

// Download executes req and streams a 200 response body to destPath.
//
// The file is kept only when exactly Content-Length bytes arrived; a
// response without a Content-Length is never saved. 403 and 503 bodies
// are kept for the server message, every other non-200 body is drained.
// An OC-Checksum header, when present, is verified unless opts carry
// their own checksum.
func (c *Client) Download(ctx context.Context, req *Request, destPath string, t *download.Transfer, opts ...DownloadOption) Result[DownloadInfo] {
	if destPath == "" {
		return ResultFromError[DownloadInfo](ErrEmptyDestination)
	}

	if t.Cancelled() {
		return ResultFromError[DownloadInfo](download.ErrCancelled)
	}

	skip, err := download.Skip(destPath, c.logger, opts...)
	if err != nil {
		return ResultFromError[DownloadInfo](fmt.Errorf("applying download option: %w", err))
	}
	if skip {
		info := DownloadInfo{Path: destPath}
		if fi, err := os.Stat(destPath); err == nil {
			info.Size = fi.Size()
			info.Modified = fi.ModTime()
		}
		return NewResult[DownloadInfo](CodeOK).WithData(info)
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		c.logger.Error("download request failed", "url", req.URL().Redacted(), "error", err)
		return ResultFromError[DownloadInfo](err)
	}

	switch status {
	case http.StatusOK:
		return c.save(ctx, ex, destPath, t, opts)
	case http.StatusForbidden, http.StatusServiceUnavailable:
	default:
		ex.Discard()
	}

	return ResultFromExchange[DownloadInfo](ex)
}

func (c *Client) save(ctx context.Context, ex *Exchange, destPath string, t *download.Transfer, opts []DownloadOption) Result[DownloadInfo] {
	if h, sum, ok := download.ParseChecksumHeader(ex.ResponseHeader(HeaderChecksum)); ok {
		opts = append([]DownloadOption{download.WithChecksum(h, sum)}, opts...)
	}

	n, err := download.Handle(ctx, ex.Body(), ex.ContentLength(), destPath, t, c.logger, opts...)
	if err != nil {
		if errors.Is(err, download.ErrCancelled) {
			ex.Abort()
		}

		r := ResultFromError[DownloadInfo](err)
		r.HTTPCode = ex.StatusCode()
		r.HTTPPhrase = ex.Status()
		return r
	}

	info := DownloadInfo{
		Path: destPath,
		Size: n,
		ETag: strings.ReplaceAll(ex.ResponseHeader(HeaderETag), `"`, ""),
	}
	if info.ETag == "" {
		c.logger.Error("could not read etag in response", "path", destPath)
	}

	if lm := ex.ResponseHeader(HeaderLastModified); lm != "" {
		if mod, err := http.ParseTime(lm); err == nil {
			info.Modified = mod
		} else {
			c.logger.Error("parsing last-modified", "value", lm, "error", err)
		}
	} else {
		c.logger.Error("could not read modification time from response", "path", destPath)
	}

	r := NewResult[DownloadInfo](CodeOK).WithData(info)
	r.HTTPCode = ex.StatusCode()
	r.HTTPPhrase = ex.Status()
	return r
}

// BatchItem is one file of [Client.DownloadBatch].
type BatchItem struct {
	Request  *Request
	DestPath string
	Transfer *download.Transfer
}

// DownloadBatch downloads items with at most maxConcurrent in flight and
// returns one result per item, in order. maxConcurrent <= 0 means no limit.
func (c *Client) DownloadBatch(ctx context.Context, items []BatchItem, maxConcurrent int, opts ...DownloadOption) []Result[DownloadInfo] {
	q := download.NewQueue(maxConcurrent)

	results := make([]Result[DownloadInfo], len(items))
	jobs := make([]*download.Job, len(items))
	for i, item := range items {
		jobs[i] = q.Start(ctx, func(ctx context.Context) error {
			results[i] = c.Download(ctx, item.Request, item.DestPath, item.Transfer, opts...)
			if !results[i].Success() {
				return fmt.Errorf("%s: %s", item.DestPath, results[i].Code)
			}
			return nil
		})
	}

	if err := q.Wait(); err != nil {
		c.logger.Warn("batch finished with failures", "error", err)
	}

	for i, j := range jobs {
		if !j.Started() {
			results[i] = ResultFromError[DownloadInfo](j.Err())
		}
	}

	return results
}
