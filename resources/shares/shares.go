// Package shares creates shares through the OCS sharing API.
package shares

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adamwoolhether/cloudsync/client"
	"github.com/adamwoolhether/cloudsync/internal/validate"
)

// CreateShare creates the share described by params. Invalid params yield
// SHARE_WRONG_PARAMETER without contacting the server.
func CreateShare(ctx context.Context, c *client.Client, params CreateParams) client.Result[ParserResult] {
	if err := validate.Check(params); err != nil {
		r := client.NewResult[ParserResult](client.CodeShareWrongParameter).WithData(ParserResult{Message: err.Error()})
		r.Err = err
		return r
	}

	endpoint, err := c.Endpoint(APIPath)
	if err != nil {
		return client.ResultFromError[ParserResult](err)
	}

	req, err := client.NewRequest(http.MethodPost, endpoint.String(),
		client.WithForm(formValues(params)),
		client.WithContentType("application/x-www-form-urlencoded; charset=utf-8"),
	)
	if err != nil {
		return client.ResultFromError[ParserResult](err)
	}
	req = req.WithHeader(HeaderOCSAPIRequest, ocsAPIRequestValue)

	ex := c.NewExchange(req)
	defer ex.Close()

	status, err := ex.Execute(ctx)
	if err != nil {
		c.Logger().Error("creating share", "path", params.Path, "error", err)
		return client.ResultFromError[ParserResult](err)
	}

	body, err := ex.BodyString()
	if err != nil {
		return client.ResultFromError[ParserResult](err)
	}

	p := Parser{BaseURL: c.BaseURL().String()}
	if status == http.StatusOK {
		p.RequireShares = true
	}

	r := p.Parse([]byte(body))
	if r.HTTPCode == 0 {
		r.HTTPCode = status
		r.HTTPPhrase = ex.Status()
	}

	c.Logger().Info("create share", "path", params.Path, "type", params.ShareType, "result", r.LogMessage())
	return r
}

// formValues renders params the way the sharing API expects them.
func formValues(params CreateParams) url.Values {
	form := url.Values{}
	form.Set("path", params.Path)
	form.Set("shareType", strconv.Itoa(int(params.ShareType)))
	form.Set("shareWith", params.ShareWith)

	if params.Name != "" {
		form.Set("name", params.Name)
	}
	if !params.ExpirationDate.IsZero() {
		form.Set("expireDate", params.ExpirationDate.Format(expirationLayout))
	}
	if params.PublicUpload {
		form.Set("publicUpload", "true")
	}
	if params.Password != "" {
		form.Set("password", params.Password)
	}
	if params.Permissions != 0 {
		form.Set("permissions", strconv.Itoa(params.Permissions))
	}

	return form
}
