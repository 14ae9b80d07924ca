package shares

import (
	"encoding/xml"
	"time"
)

// APIPath is the OCS sharing endpoint, relative to the server root.
const APIPath = "ocs/v2.php/apps/files_sharing/api/v1/shares"

// LinkPath prefixes the token of a public link.
const LinkPath = "/index.php/s/"

// Header marks requests as OCS API calls.
const (
	HeaderOCSAPIRequest = "OCS-APIREQUEST"
	ocsAPIRequestValue  = "true"
)

// expirationLayout is the date format the server expects for expireDate.
const expirationLayout = "2006-01-02"

// ShareType is the kind of recipient a share is addressed to.
type ShareType int

const (
	TypeNone       ShareType = -1
	TypeUser       ShareType = 0
	TypeGroup      ShareType = 1
	TypePublicLink ShareType = 3
	TypeEmail      ShareType = 4
	TypeContact    ShareType = 5
	TypeFederated  ShareType = 6
)

func (t ShareType) String() string {
	switch t {
	case TypeUser:
		return "USER"
	case TypeGroup:
		return "GROUP"
	case TypePublicLink:
		return "PUBLIC_LINK"
	case TypeEmail:
		return "EMAIL"
	case TypeContact:
		return "CONTACT"
	case TypeFederated:
		return "FEDERATED"
	}
	return "NO_SHARED"
}

// Permission bits accepted by the sharing API.
const (
	PermissionRead   = 1
	PermissionUpdate = 2
	PermissionCreate = 4
	PermissionDelete = 8
	PermissionShare  = 16
)

// CreateParams describes a share to create. ShareWith is required for
// every type except public links.
type CreateParams struct {
	Path           string    `form:"path" validate:"required,startswith=/"`
	ShareType      ShareType `form:"shareType" validate:"oneof=0 1 3 4 5 6"`
	ShareWith      string    `form:"shareWith" validate:"required_unless=ShareType 3"`
	Name           string    `form:"name"`
	Password       string    `form:"password"`
	PublicUpload   bool      `form:"publicUpload"`
	Permissions    int       `form:"permissions" validate:"omitempty,min=1,max=31"`
	ExpirationDate time.Time `form:"expireDate"`
}

// Share is a share as reported by the server.
type Share struct {
	ID                  string
	ShareType           ShareType
	Path                string
	ItemType            string
	Permissions         int
	ShareWith           string
	ShareWithDisplay    string
	Name                string
	Token               string
	Link                string
	Owner               string
	FileTarget          string
	ItemSource          string
	SharedAt            time.Time
	ExpirationDate      time.Time
	IsFolder            bool
	ShareWithAdditional string
}

// ParserResult carries the shares of a response together with the
// server's status message.
type ParserResult struct {
	Shares  []Share
	Message string
}

// ////////////////////////////////////////////////////////////////////////
// OCS wire format

type ocsResponse struct {
	XMLName xml.Name `xml:"ocs"`
	Meta    ocsMeta  `xml:"meta"`
	Data    ocsData  `xml:"data"`
}

type ocsMeta struct {
	Status     string `xml:"status"`
	StatusCode int    `xml:"statuscode"`
	Message    string `xml:"message"`
}

// ocsData holds either a single share inline or a list of element
// children, depending on the endpoint.
type ocsData struct {
	ocsShare
	Elements []ocsShare `xml:"element"`
}

type ocsShare struct {
	ID                   string `xml:"id"`
	ShareType            *int   `xml:"share_type"`
	Path                 string `xml:"path"`
	ItemType             string `xml:"item_type"`
	Permissions          int    `xml:"permissions"`
	ShareWith            string `xml:"share_with"`
	ShareWithDisplayName string `xml:"share_with_displayname"`
	ShareWithAdditional  string `xml:"share_with_additional_info"`
	Name                 string `xml:"name"`
	Token                string `xml:"token"`
	URL                  string `xml:"url"`
	UIDOwner             string `xml:"uid_owner"`
	FileTarget           string `xml:"file_target"`
	ItemSource           string `xml:"item_source"`
	STime                int64  `xml:"stime"`
	Expiration           string `xml:"expiration"`
}
