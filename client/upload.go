package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adamwoolhether/cloudsync/client/download"
)

// UploadInfo describes a file stored by [Client.Upload].
type UploadInfo struct {
	ETag   string
	FileID string
	Size   int64
}

// Upload sends localPath as the body of req, reporting progress and
// honouring cancellation through t.
func (c *Client) Upload(ctx context.Context, req *Request, localPath string, t *download.Transfer) Result[UploadInfo] {
	fi, err := os.Stat(localPath)
	if err != nil {
		return ResultFromError[UploadInfo](fmt.Errorf("stat local file: %w", err))
	}
	if fi.IsDir() {
		return ResultFromError[UploadInfo](fmt.Errorf("%w: %s is a directory", ErrInvalidLocalFile, localPath))
	}

	if t.Cancelled() {
		return ResultFromError[UploadInfo](download.ErrCancelled)
	}

	size := fi.Size()
	name := path.Base(req.URL().Path)
	open := func() (io.ReadCloser, error) {
		f, err := os.Open(localPath)
		if err != nil {
			return nil, err
		}
		return download.NewProgressReader(f, size, name, t), nil
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ex := c.NewExchange(req.WithBodyFunc(open, size, contentType))
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		if t.Cancelled() && !errors.Is(err, download.ErrCancelled) {
			err = fmt.Errorf("%w: %w", download.ErrCancelled, err)
		}
		return ResultFromError[UploadInfo](err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return ResultFromExchange[UploadInfo](ex)
	}

	info := UploadInfo{
		ETag:   strings.ReplaceAll(ex.ResponseHeader(HeaderETag), `"`, ""),
		FileID: ex.ResponseHeader(HeaderFileID),
		Size:   size,
	}

	r := NewResult[UploadInfo](CodeOK).WithData(info)
	r.HTTPCode = status
	r.HTTPPhrase = ex.Status()
	return r
}
