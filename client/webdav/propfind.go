package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/adamwoolhether/cloudsync/client"
)

// Resource is one <response> element of a multistatus body, holding the
// properties the server reported with a 200 status.
type Resource struct {
	Href       string
	Properties []Property
}

// Path returns the unescaped path of the resource.
func (r Resource) Path() string {
	u, err := url.Parse(r.Href)
	if err != nil {
		return r.Href
	}
	return u.Path
}

// Walk hands every property to v in document order.
func (r Resource) Walk(v Visitor) {
	for _, p := range r.Properties {
		p.Accept(v)
	}
}

// PropfindBody renders a PROPFIND request body for props. An empty list
// asks for all properties.
func PropfindBody(props []PropName) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<d:propfind xmlns:d="DAV:" xmlns:oc="` + NamespaceOC + `">`)

	if len(props) == 0 {
		b.WriteString(`<d:allprop/>`)
	} else {
		b.WriteString(`<d:prop>`)
		for _, p := range props {
			prefix := "d"
			if p.Space == NamespaceOC {
				prefix = "oc"
			}
			fmt.Fprintf(&b, "<%s:%s/>", prefix, p.Local)
		}
		b.WriteString(`</d:prop>`)
	}

	b.WriteString(`</d:propfind>`)
	return b.Bytes()
}

// NewPropfind builds a PROPFIND request for target with the given depth.
func NewPropfind(target, depth string, props []PropName) (*client.Request, error) {
	req, err := client.NewRequest(MethodPropfind, target)
	if err != nil {
		return nil, err
	}

	return req.
		WithBody(PropfindBody(props), "application/xml; charset=utf-8").
		WithHeader(HeaderDepth, depth), nil
}

// ParseMultistatus decodes a 207 body into resources. Properties the
// server could not return, or that cannot be typed, are dropped.
func ParseMultistatus(r io.Reader) ([]Resource, error) {
	var ms multistatus
	if err := xml.NewDecoder(r).Decode(&ms); err != nil {
		return nil, fmt.Errorf("decoding multistatus: %w", err)
	}

	resources := make([]Resource, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		res := Resource{Href: strings.TrimSpace(resp.Href)}

		for _, ps := range resp.Propstat {
			if !statusOK(ps.Status) {
				continue
			}
			for _, raw := range ps.Prop.Any {
				if p, ok := typeProperty(raw); ok {
					res.Properties = append(res.Properties, p)
				}
			}
		}

		resources = append(resources, res)
	}

	return resources, nil
}

// statusOK reports whether a "HTTP/1.1 200 OK" status line is a 2xx.
func statusOK(status string) bool {
	fields := strings.Fields(status)
	if len(fields) < 2 {
		return status == ""
	}
	return strings.HasPrefix(fields[1], "2")
}
