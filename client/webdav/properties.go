package webdav

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Visitor receives one call per property kind. Mappers that implement it
// directly break at compile time whenever a kind is added, which keeps
// them exhaustive; [NopVisitor] exists for mappers that only care about
// a few kinds.
type Visitor interface {
	CreationDate(time.Time)
	ContentLength(int64)
	ContentType(string)
	LastModified(time.Time)
	ETag(string)
	ResourceType(collection bool)
	Permissions(string)
	FileID(string)
	Size(int64)
	QuotaUsedBytes(int64)
	QuotaAvailableBytes(int64)
	PrivateLink(string)
	ShareTypes([]int)
}

// Property is a typed WebDAV property. The set of implementations is
// closed: it can only be satisfied inside this package.
type Property interface {
	Accept(Visitor)
	Name() PropName
	sealed()
}

type (
	CreationDate        struct{ Value time.Time }
	ContentLength       struct{ Value int64 }
	ContentType         struct{ Value string }
	LastModified        struct{ Value time.Time }
	ETag                struct{ Value string }
	ResourceType        struct{ Collection bool }
	Permissions         struct{ Value string }
	FileID              struct{ Value string }
	Size                struct{ Value int64 }
	QuotaUsedBytes      struct{ Value int64 }
	QuotaAvailableBytes struct{ Value int64 }
	PrivateLink         struct{ Value string }
	ShareTypes          struct{ Values []int }
)

func (p CreationDate) Accept(v Visitor)        { v.CreationDate(p.Value) }
func (p ContentLength) Accept(v Visitor)       { v.ContentLength(p.Value) }
func (p ContentType) Accept(v Visitor)         { v.ContentType(p.Value) }
func (p LastModified) Accept(v Visitor)        { v.LastModified(p.Value) }
func (p ETag) Accept(v Visitor)                { v.ETag(p.Value) }
func (p ResourceType) Accept(v Visitor)        { v.ResourceType(p.Collection) }
func (p Permissions) Accept(v Visitor)         { v.Permissions(p.Value) }
func (p FileID) Accept(v Visitor)              { v.FileID(p.Value) }
func (p Size) Accept(v Visitor)                { v.Size(p.Value) }
func (p QuotaUsedBytes) Accept(v Visitor)      { v.QuotaUsedBytes(p.Value) }
func (p QuotaAvailableBytes) Accept(v Visitor) { v.QuotaAvailableBytes(p.Value) }
func (p PrivateLink) Accept(v Visitor)         { v.PrivateLink(p.Value) }
func (p ShareTypes) Accept(v Visitor)          { v.ShareTypes(p.Values) }

func (CreationDate) Name() PropName        { return PropCreationDate }
func (ContentLength) Name() PropName       { return PropContentLength }
func (ContentType) Name() PropName         { return PropContentType }
func (LastModified) Name() PropName        { return PropLastModified }
func (ETag) Name() PropName                { return PropETag }
func (ResourceType) Name() PropName        { return PropResourceType }
func (Permissions) Name() PropName         { return PropPermissions }
func (FileID) Name() PropName              { return PropFileID }
func (Size) Name() PropName                { return PropSize }
func (QuotaUsedBytes) Name() PropName      { return PropQuotaUsedBytes }
func (QuotaAvailableBytes) Name() PropName { return PropQuotaAvailableBytes }
func (PrivateLink) Name() PropName         { return PropPrivateLink }
func (ShareTypes) Name() PropName          { return PropShareTypes }

func (CreationDate) sealed()        {}
func (ContentLength) sealed()       {}
func (ContentType) sealed()         {}
func (LastModified) sealed()        {}
func (ETag) sealed()                {}
func (ResourceType) sealed()        {}
func (Permissions) sealed()         {}
func (FileID) sealed()              {}
func (Size) sealed()                {}
func (QuotaUsedBytes) sealed()      {}
func (QuotaAvailableBytes) sealed() {}
func (PrivateLink) sealed()         {}
func (ShareTypes) sealed()          {}

// PropName is a namespaced property name.
type PropName struct {
	Space string
	Local string
}

var (
	PropCreationDate        = PropName{NamespaceDAV, "creationdate"}
	PropContentLength       = PropName{NamespaceDAV, "getcontentlength"}
	PropContentType         = PropName{NamespaceDAV, "getcontenttype"}
	PropLastModified        = PropName{NamespaceDAV, "getlastmodified"}
	PropETag                = PropName{NamespaceDAV, "getetag"}
	PropResourceType        = PropName{NamespaceDAV, "resourcetype"}
	PropQuotaUsedBytes      = PropName{NamespaceDAV, "quota-used-bytes"}
	PropQuotaAvailableBytes = PropName{NamespaceDAV, "quota-available-bytes"}
	PropPermissions         = PropName{NamespaceOC, "permissions"}
	PropFileID              = PropName{NamespaceOC, "id"}
	PropSize                = PropName{NamespaceOC, "size"}
	PropPrivateLink         = PropName{NamespaceOC, "privatelink"}
	PropShareTypes          = PropName{NamespaceOC, "share-types"}
)

// FileProps is the property set requested when listing files.
var FileProps = []PropName{
	PropCreationDate,
	PropContentLength,
	PropContentType,
	PropLastModified,
	PropETag,
	PropResourceType,
	PropPermissions,
	PropFileID,
	PropSize,
	PropPrivateLink,
	PropShareTypes,
}

// QuotaProps is the property set requested for quota lookups.
var QuotaProps = []PropName{
	PropQuotaUsedBytes,
	PropQuotaAvailableBytes,
}

// typeProperty converts a raw element into its typed form. Unknown or
// unparseable properties are reported as not ok.
func typeProperty(raw rawProperty) (Property, bool) {
	text := strings.TrimSpace(raw.Text)

	switch raw.XMLName.Local {
	case PropCreationDate.Local:
		t, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return nil, false
		}
		return CreationDate{Value: t}, true
	case PropContentLength.Local:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return ContentLength{Value: n}, true
	case PropContentType.Local:
		return ContentType{Value: text}, true
	case PropLastModified.Local:
		t, err := http.ParseTime(text)
		if err != nil {
			return nil, false
		}
		return LastModified{Value: t}, true
	case PropETag.Local:
		return ETag{Value: strings.ReplaceAll(text, `"`, "")}, true
	case PropResourceType.Local:
		var collection bool
		for _, c := range raw.Children {
			if c.XMLName.Local == "collection" {
				collection = true
			}
		}
		return ResourceType{Collection: collection}, true
	case PropPermissions.Local:
		return Permissions{Value: text}, true
	case PropFileID.Local:
		return FileID{Value: text}, true
	case PropSize.Local:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return Size{Value: n}, true
	case PropQuotaUsedBytes.Local:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return QuotaUsedBytes{Value: n}, true
	case PropQuotaAvailableBytes.Local:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return QuotaAvailableBytes{Value: n}, true
	case PropPrivateLink.Local:
		return PrivateLink{Value: text}, true
	case PropShareTypes.Local:
		var types []int
		for _, c := range raw.Children {
			if n, err := strconv.Atoi(strings.TrimSpace(c.Text)); err == nil {
				types = append(types, n)
			}
		}
		return ShareTypes{Values: types}, true
	}

	return nil, false
}

// NopVisitor ignores every property. Embed it in partial mappers.
type NopVisitor struct{}

func (NopVisitor) CreationDate(time.Time)    {}
func (NopVisitor) ContentLength(int64)       {}
func (NopVisitor) ContentType(string)        {}
func (NopVisitor) LastModified(time.Time)    {}
func (NopVisitor) ETag(string)               {}
func (NopVisitor) ResourceType(bool)         {}
func (NopVisitor) Permissions(string)        {}
func (NopVisitor) FileID(string)             {}
func (NopVisitor) Size(int64)                {}
func (NopVisitor) QuotaUsedBytes(int64)      {}
func (NopVisitor) QuotaAvailableBytes(int64) {}
func (NopVisitor) PrivateLink(string)        {}
func (NopVisitor) ShareTypes([]int)          {}
