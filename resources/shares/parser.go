package shares

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamwoolhether/cloudsync/client"
)

// OCS status codes.
const (
	ocsStatusOK        = 100
	ocsStatusOKv2      = 200
	ocsStatusBadParam  = 400
	ocsStatusForbidden = 403
	ocsStatusNotFound  = 404
)

var errNoShares = errors.New("successful status with no share in the response")

// Parser turns OCS sharing responses into results.
type Parser struct {
	// RequireShares makes a successful response without shares a
	// WRONG_SERVER_RESPONSE.
	RequireShares bool
	// BaseURL completes public links the server did not return.
	BaseURL string
}

// Parse classifies body.
func (p Parser) Parse(body []byte) client.Result[ParserResult] {
	if len(bytes.TrimSpace(body)) == 0 {
		return client.NewResult[ParserResult](client.CodeWrongServerResponse)
	}

	var resp ocsResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		r := client.NewResult[ParserResult](client.CodeWrongServerResponse)
		r.Err = fmt.Errorf("decoding ocs response: %w", err)
		return r
	}

	meta := resp.Meta
	switch {
	case isSuccess(meta):
		shares := p.shares(resp.Data)
		if len(shares) == 0 && p.RequireShares {
			r := client.NewResult[ParserResult](client.CodeWrongServerResponse)
			r.Err = errNoShares
			return r
		}
		return client.NewResult[ParserResult](client.CodeOK).WithData(ParserResult{Shares: shares})
	case meta.StatusCode == ocsStatusBadParam:
		return failure(client.CodeShareWrongParameter, meta)
	case meta.StatusCode == ocsStatusNotFound:
		return failure(client.CodeShareNotFound, meta)
	case meta.StatusCode == ocsStatusForbidden:
		return failure(client.CodeShareForbidden, meta)
	}

	return client.NewResult[ParserResult](client.CodeWrongServerResponse)
}

func isSuccess(meta ocsMeta) bool {
	return strings.EqualFold(meta.Status, "ok") ||
		meta.StatusCode == ocsStatusOK ||
		meta.StatusCode == ocsStatusOKv2
}

func failure(code client.ResultCode, meta ocsMeta) client.Result[ParserResult] {
	r := client.NewResult[ParserResult](code).WithData(ParserResult{Message: meta.Message})
	r.ServerMessage = meta.Message
	return r
}

func (p Parser) shares(data ocsData) []Share {
	raw := data.Elements
	if len(raw) == 0 && data.ShareType != nil {
		raw = []ocsShare{data.ocsShare}
	}

	shares := make([]Share, 0, len(raw))
	for _, s := range raw {
		share := s.share()
		if share.ShareType == TypePublicLink && share.Link == "" && share.Token != "" && p.BaseURL != "" {
			share.Link = strings.TrimSuffix(p.BaseURL, "/") + LinkPath + share.Token
		}
		shares = append(shares, share)
	}

	return shares
}

func (s ocsShare) share() Share {
	share := Share{
		ID:                  s.ID,
		ShareType:           TypeNone,
		Path:                s.Path,
		ItemType:            s.ItemType,
		Permissions:         s.Permissions,
		ShareWith:           s.ShareWith,
		ShareWithDisplay:    s.ShareWithDisplayName,
		ShareWithAdditional: s.ShareWithAdditional,
		Name:                s.Name,
		Token:               s.Token,
		Link:                s.URL,
		Owner:               s.UIDOwner,
		FileTarget:          s.FileTarget,
		ItemSource:          s.ItemSource,
		IsFolder:            s.ItemType == "folder",
	}
	if s.ShareType != nil {
		share.ShareType = ShareType(*s.ShareType)
	}
	if s.STime > 0 {
		share.SharedAt = time.Unix(s.STime, 0).UTC()
	}
	if s.Expiration != "" {
		if t, err := time.Parse(time.DateTime, strings.TrimSpace(s.Expiration)); err == nil {
			share.ExpirationDate = t
		}
	}

	return share
}
