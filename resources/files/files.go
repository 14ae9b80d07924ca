// Package files implements WebDAV file operations against the
// authenticated user's files root.
package files

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/adamwoolhether/cloudsync/client"
	"github.com/adamwoolhether/cloudsync/client/download"
	"github.com/adamwoolhether/cloudsync/client/webdav"
)

const (
	// ExistenceTimeout bounds connect and read of an existence check.
	ExistenceTimeout = 10 * time.Second
	// ExistenceMaxRedirects caps redirects followed by an existence check.
	ExistenceMaxRedirects = 3

	copyReadTimeout    = 600 * time.Second
	copyConnectTimeout = 5 * time.Second
)

// Empty is the payload of operations that only report success.
type Empty struct{}

// fileURL returns the escaped WebDAV URL of remotePath.
func fileURL(c *client.Client, remotePath string) (string, error) {
	root, err := c.FilesWebDAVURL()
	if err != nil {
		return "", err
	}

	return gowebdav.Join(root.String(), gowebdav.PathEscape(remotePath)), nil
}

// newRequest builds a request for remotePath below the files root.
// Only GET lets the transport follow redirects, since following a 301 or
// 302 would turn any other method into a GET.
func newRequest(c *client.Client, method, remotePath string) (*client.Request, error) {
	target, err := fileURL(c, remotePath)
	if err != nil {
		return nil, err
	}

	req, err := client.NewRequest(method, target)
	if err != nil {
		return nil, err
	}

	return req.WithFollowRedirects(method == http.MethodGet), nil
}

// CheckPathExistence sends a depth-0 PROPFIND for remotePath. Data is true
// for 200 and 207 and false for any other status. With followRedirects
// set, 301, 302 and 307 are followed by hand for up to
// ExistenceMaxRedirects hops and the walked path is returned.
func CheckPathExistence(ctx context.Context, c *client.Client, remotePath string, followRedirects bool) (client.Result[bool], *client.RedirectionPath) {
	target, err := fileURL(c, remotePath)
	if err != nil {
		return client.ResultFromError[bool](err), nil
	}

	req, err := webdav.NewPropfind(target, webdav.DepthZero, nil)
	if err != nil {
		return client.ResultFromError[bool](err), nil
	}
	req = req.
		WithConnectTimeout(ExistenceTimeout).
		WithReadTimeout(ExistenceTimeout).
		WithFollowRedirects(false)

	ex := c.NewExchange(req)
	defer ex.Close()

	var path *client.RedirectionPath
	if followRedirects {
		path, err = ex.Follow(ctx,
			client.WithMaxRedirects(ExistenceMaxRedirects),
			client.WithRedirectStatuses(http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect),
		)
	} else {
		_, err = ex.Execute(ctx)
	}
	if err != nil {
		c.Logger().Error("existence check failed", "path", remotePath, "error", err)
		return client.ResultFromError[bool](err), path
	}

	status := ex.StatusCode()
	exists := status == http.StatusOK || status == webdav.StatusMultiStatus

	var r client.Result[bool]
	if exists {
		r = client.NewResult[bool](client.CodeOK)
		r.HTTPCode = status
		r.HTTPPhrase = ex.Status()
	} else {
		r = client.ResultFromExchange[bool](ex)
	}
	r.Data = exists

	c.Logger().Debug("existence check", "path", remotePath, "status", status, "exists", exists)
	return r, path
}

// ReadFolder lists remotePath and its direct children. The folder itself
// comes first.
func ReadFolder(ctx context.Context, c *client.Client, remotePath string) client.Result[[]RemoteFile] {
	target, err := fileURL(c, remotePath)
	if err != nil {
		return client.ResultFromError[[]RemoteFile](err)
	}

	req, err := webdav.NewPropfind(target, webdav.DepthOne, webdav.FileProps)
	if err != nil {
		return client.ResultFromError[[]RemoteFile](err)
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		return client.ResultFromError[[]RemoteFile](err)
	}
	if status != webdav.StatusMultiStatus {
		return client.ResultFromExchange[[]RemoteFile](ex)
	}

	resources, err := webdav.ParseMultistatus(ex.Body())
	if err != nil {
		r := client.NewResult[[]RemoteFile](client.CodeWrongServerResponse)
		r.HTTPCode = status
		r.Err = err
		return r
	}

	root, _ := c.FilesWebDAVURL()
	list := make([]RemoteFile, 0, len(resources))
	for _, res := range resources {
		list = append(list, remoteFileFrom(res, root.Path, c.UserID()))
	}

	r := client.NewResult[[]RemoteFile](client.CodeOK).WithData(list)
	r.HTTPCode = status
	return r
}

// Download saves remotePath under localFolder, mirroring the remote path.
func Download(ctx context.Context, c *client.Client, remotePath, localFolder string, t *download.Transfer, opts ...download.Option) client.Result[client.DownloadInfo] {
	req, err := newRequest(c, http.MethodGet, remotePath)
	if err != nil {
		return client.ResultFromError[client.DownloadInfo](err)
	}

	dest := filepath.Join(localFolder, filepath.FromSlash(strings.TrimPrefix(remotePath, "/")))
	r := c.Download(ctx, req, dest, t, opts...)

	c.Logger().Info("download", "remote", remotePath, "local", dest, "result", r.LogMessage())
	return r
}

// Upload stores localPath at remotePath.
func Upload(ctx context.Context, c *client.Client, localPath, remotePath string, t *download.Transfer) client.Result[client.UploadInfo] {
	if !IsValidPath(remotePath) {
		return client.NewResult[client.UploadInfo](client.CodeInvalidCharacterInName)
	}

	req, err := newRequest(c, http.MethodPut, remotePath)
	if err != nil {
		return client.ResultFromError[client.UploadInfo](err)
	}

	r := c.Upload(ctx, req, localPath, t)

	c.Logger().Info("upload", "local", localPath, "remote", remotePath, "result", r.LogMessage())
	return r
}

// Copy duplicates src at dst.
func Copy(ctx context.Context, c *client.Client, src, dst string, overwrite bool) client.Result[Empty] {
	return relocate(ctx, c, webdav.MethodCopy, src, dst, overwrite, client.CodeInvalidCopyIntoDescendant)
}

// Move renames src to dst.
func Move(ctx context.Context, c *client.Client, src, dst string, overwrite bool) client.Result[Empty] {
	return relocate(ctx, c, webdav.MethodMove, src, dst, overwrite, client.CodeInvalidMoveIntoDescendant)
}

func relocate(ctx context.Context, c *client.Client, method, src, dst string, overwrite bool, descendant client.ResultCode) client.Result[Empty] {
	if !IsValidPath(dst) {
		return client.NewResult[Empty](client.CodeInvalidCharacterInName)
	}
	if dst == src {
		return client.NewResult[Empty](client.CodeOK)
	}
	if isDescendant(src, dst) {
		return client.NewResult[Empty](descendant)
	}

	req, err := newRequest(c, method, src)
	if err != nil {
		return client.ResultFromError[Empty](err)
	}
	destination, err := fileURL(c, dst)
	if err != nil {
		return client.ResultFromError[Empty](err)
	}

	req = req.
		WithHeader(webdav.HeaderDestination, destination).
		WithHeader(webdav.HeaderOverwrite, overwriteValue(overwrite)).
		WithReadTimeout(copyReadTimeout).
		WithConnectTimeout(copyConnectTimeout)

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		c.Logger().Error(strings.ToLower(method)+" failed", "src", src, "dst", dst, "error", err)
		return client.ResultFromError[Empty](err)
	}

	var r client.Result[Empty]
	switch {
	case status == http.StatusCreated || status == http.StatusNoContent:
		r = client.NewResult[Empty](client.CodeOK)
		r.HTTPCode = status
	case status == http.StatusPreconditionFailed && !overwrite:
		r = client.NewResult[Empty](client.CodeInvalidOverwrite)
		r.HTTPCode = status
	default:
		r = client.ResultFromExchange[Empty](ex)
	}

	c.Logger().Info(strings.ToLower(method), "src", src, "dst", dst, "result", r.LogMessage())
	return r
}

// isDescendant reports whether dst lies strictly inside folder src.
func isDescendant(src, dst string) bool {
	prefix := strings.TrimSuffix(src, "/") + "/"
	return strings.HasPrefix(dst, prefix)
}

func overwriteValue(overwrite bool) string {
	if overwrite {
		return "T"
	}
	return "F"
}

// Remove deletes remotePath.
func Remove(ctx context.Context, c *client.Client, remotePath string) client.Result[Empty] {
	req, err := newRequest(c, http.MethodDelete, remotePath)
	if err != nil {
		return client.ResultFromError[Empty](err)
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	if _, err := ex.Execute(ctx); err != nil {
		return client.ResultFromError[Empty](err)
	}

	return client.ResultFromExchange[Empty](ex)
}

// CreateFolder creates remotePath. Parent folders must already exist.
func CreateFolder(ctx context.Context, c *client.Client, remotePath string) client.Result[Empty] {
	if !IsValidPath(remotePath) {
		return client.NewResult[Empty](client.CodeInvalidCharacterInName)
	}

	req, err := newRequest(c, webdav.MethodMkcol, remotePath)
	if err != nil {
		return client.ResultFromError[Empty](err)
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	if _, err := ex.Execute(ctx); err != nil {
		return client.ResultFromError[Empty](err)
	}

	return client.ResultFromExchange[Empty](ex)
}

// forbiddenPathChars may not appear in remote paths.
const forbiddenPathChars = `\<>:"|?*`

// IsValidName reports whether name is usable as a single path segment.
func IsValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, forbiddenPathChars+"/")
}

// IsValidPath reports whether path contains no forbidden characters.
func IsValidPath(path string) bool {
	return path != "" && !strings.ContainsAny(path, forbiddenPathChars)
}
