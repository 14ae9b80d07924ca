package webdav

import (
	"encoding/xml"
)

// WebDAV methods and headers.
const (
	MethodPropfind = "PROPFIND"
	MethodMkcol    = "MKCOL"
	MethodCopy     = "COPY"
	MethodMove     = "MOVE"

	HeaderDepth       = "Depth"
	HeaderDestination = "Destination"
	HeaderOverwrite   = "Overwrite"

	StatusMultiStatus = 207
)

// Namespaces used by ownCloud properties.
const (
	NamespaceDAV = "DAV:"
	NamespaceOC  = "http://owncloud.org/ns"
)

// Depth values for PROPFIND.
const (
	DepthZero     = "0"
	DepthOne      = "1"
	DepthInfinity = "infinity"
)

// multistatus mirrors a 207 Multi-Status body. Elements match by local
// name so servers that pick their own prefixes still parse.
type multistatus struct {
	XMLName   xml.Name   `xml:"multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href     string     `xml:"href"`
	Propstat []propstat `xml:"propstat"`
}

type propstat struct {
	Prop   prop   `xml:"prop"`
	Status string `xml:"status"`
}

type prop struct {
	Any []rawProperty `xml:",any"`
}

// rawProperty is a property element before it is typed.
type rawProperty struct {
	XMLName  xml.Name
	Text     string        `xml:",chardata"`
	Children []rawProperty `xml:",any"`
}
