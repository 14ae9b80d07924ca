package files

import (
	"strings"
	"time"

	"github.com/adamwoolhether/cloudsync/client/webdav"
)

// Directory mime types.
const (
	MimeDir     = "DIR"
	MimeDirUnix = "httpd/unix-directory"
)

// Share type values reported in oc:share-types.
const (
	shareTypeUser      = 0
	shareTypeGroup     = 1
	shareTypePublic    = 3
	shareTypeFederated = 6
)

// RemoteFile is a file or folder as listed by the server.
type RemoteFile struct {
	RemotePath       string
	Owner            string
	MimeType         string
	Length           int64
	Created          time.Time
	Modified         time.Time
	ETag             string
	Permissions      string
	RemoteID         string
	Size             int64
	QuotaUsedBytes   *int64
	QuotaAvailable   *int64
	PrivateLink      string
	SharedByLink     bool
	SharedWithSharee bool
}

// IsFolder reports whether f is a collection.
func (f RemoteFile) IsFolder() bool {
	return f.MimeType == MimeDir || f.MimeType == MimeDirUnix
}

// remoteFileBuilder maps every property kind onto a RemoteFile.
type remoteFileBuilder struct {
	file *RemoteFile
}

var _ webdav.Visitor = remoteFileBuilder{}

func (b remoteFileBuilder) CreationDate(t time.Time)    { b.file.Created = t }
func (b remoteFileBuilder) ContentLength(n int64)       { b.file.Length = n }
func (b remoteFileBuilder) LastModified(t time.Time)    { b.file.Modified = t }
func (b remoteFileBuilder) ETag(s string)               { b.file.ETag = s }
func (b remoteFileBuilder) Permissions(s string)        { b.file.Permissions = s }
func (b remoteFileBuilder) FileID(s string)             { b.file.RemoteID = s }
func (b remoteFileBuilder) Size(n int64)                { b.file.Size = n }
func (b remoteFileBuilder) QuotaUsedBytes(n int64)      { b.file.QuotaUsedBytes = &n }
func (b remoteFileBuilder) QuotaAvailableBytes(n int64) { b.file.QuotaAvailable = &n }
func (b remoteFileBuilder) PrivateLink(s string)        { b.file.PrivateLink = s }

func (b remoteFileBuilder) ContentType(s string) {
	if s != "" {
		b.file.MimeType = s
	}
}

func (b remoteFileBuilder) ResourceType(collection bool) {
	if collection {
		b.file.MimeType = MimeDir
	}
}

func (b remoteFileBuilder) ShareTypes(types []int) {
	for _, t := range types {
		switch t {
		case shareTypePublic:
			b.file.SharedByLink = true
		case shareTypeUser, shareTypeGroup, shareTypeFederated:
			b.file.SharedWithSharee = true
		}
	}
}

// remoteFileFrom builds a RemoteFile from a multistatus resource. The
// path is made relative to davRoot, the user's files root.
func remoteFileFrom(res webdav.Resource, davRoot, owner string) RemoteFile {
	f := RemoteFile{
		RemotePath: remotePathFrom(res.Path(), davRoot),
		Owner:      owner,
		MimeType:   MimeDir,
	}
	res.Walk(remoteFileBuilder{file: &f})

	return f
}

// remotePathFrom turns "/remote.php/dav/files/alice/Docs/a.txt" into
// "/Docs/a.txt". Folders keep their trailing slash.
func remotePathFrom(hrefPath, davRoot string) string {
	davRoot = strings.TrimSuffix(davRoot, "/")
	if i := strings.Index(hrefPath, davRoot); i >= 0 {
		hrefPath = hrefPath[i+len(davRoot):]
	}
	if !strings.HasPrefix(hrefPath, "/") {
		hrefPath = "/" + hrefPath
	}

	return hrefPath
}
