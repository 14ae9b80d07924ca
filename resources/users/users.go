// Package users reads the authenticated user's profile and quota.
package users

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/cloudsync/client"
	"github.com/adamwoolhether/cloudsync/client/webdav"
)

// InfoPath is the OCS endpoint returning the current user.
const InfoPath = "ocs/v2.php/cloud/user"

const headerOCSAPIRequest = "OCS-APIREQUEST"

// Quota sentinels reported by the server instead of a byte count.
const (
	QuotaUnknown    int64 = -1
	QuotaUncomputed int64 = -2
	QuotaUnlimited  int64 = -3
)

// Info identifies the authenticated user.
type Info struct {
	ID          string `json:"id"`
	DisplayName string `json:"display-name"`
	Email       string `json:"email"`
}

type infoEnvelope struct {
	OCS struct {
		Data Info `json:"data"`
	} `json:"ocs"`
}

// GetUserInfo returns the authenticated user's id, display name and email.
func GetUserInfo(ctx context.Context, c *client.Client) client.Result[Info] {
	endpoint, err := c.Endpoint(InfoPath, client.WithQueryStrings(map[string]string{"format": "json"}))
	if err != nil {
		return client.ResultFromError[Info](err)
	}

	req, err := client.NewRequest(http.MethodGet, endpoint.String())
	if err != nil {
		return client.ResultFromError[Info](err)
	}
	req = req.WithHeader(headerOCSAPIRequest, "true")

	env := client.Do[infoEnvelope](ctx, c, req, http.StatusOK)
	r := client.Recast[Info](env)
	if env.Success() {
		r.Data = env.Data.OCS.Data
	}

	c.Logger().Debug("user info", "id", r.Data.ID, "result", r.LogMessage())
	return r
}

// Quota describes storage use of the user's files root. Free and Total
// may hold one of the quota sentinels.
type Quota struct {
	Used     int64
	Free     int64
	Total    int64
	Relative float64
}

// quotaMapper collects the quota properties of a resource.
type quotaMapper struct {
	webdav.NopVisitor
	used, available int64
	seenAvailable   bool
}

func (m *quotaMapper) QuotaUsedBytes(n int64) {
	m.used = n
}

func (m *quotaMapper) QuotaAvailableBytes(n int64) {
	m.available = n
	m.seenAvailable = true
}

func (m *quotaMapper) quota() Quota {
	if !m.seenAvailable {
		return Quota{Used: m.used, Free: QuotaUnknown, Total: QuotaUnknown}
	}
	if m.available < 0 {
		return Quota{Used: m.used, Free: m.available, Total: m.available}
	}

	q := Quota{Used: m.used, Free: m.available, Total: m.used + m.available}
	if q.Total > 0 {
		q.Relative = float64(q.Used) * 100 / float64(q.Total)
	}
	return q
}

// GetUserQuota reads the quota properties of the user's files root.
func GetUserQuota(ctx context.Context, c *client.Client) client.Result[Quota] {
	root, err := c.FilesWebDAVURL()
	if err != nil {
		return client.ResultFromError[Quota](err)
	}

	req, err := webdav.NewPropfind(root.String(), webdav.DepthZero, webdav.QuotaProps)
	if err != nil {
		return client.ResultFromError[Quota](err)
	}

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		return client.ResultFromError[Quota](err)
	}
	if status != webdav.StatusMultiStatus {
		return client.ResultFromExchange[Quota](ex)
	}

	resources, err := webdav.ParseMultistatus(ex.Body())
	if err != nil || len(resources) == 0 {
		r := client.NewResult[Quota](client.CodeWrongServerResponse)
		r.HTTPCode = status
		r.Err = err
		return r
	}

	var m quotaMapper
	resources[0].Walk(&m)

	r := client.NewResult[Quota](client.CodeOK).WithData(m.quota())
	r.HTTPCode = status

	c.Logger().Debug("user quota", "used", r.Data.Used, "free", r.Data.Free, "total", r.Data.Total)
	return r
}
