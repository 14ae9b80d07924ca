// Package status discovers whether a URL points at an installed server
// and over which kind of connection it answered.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adamwoolhether/cloudsync/client"
)

const (
	// Path is the discovery endpoint below the server root.
	Path = "/status.php"
	// TryConnectionTimeout bounds both connect and read of a discovery request.
	TryConnectionTimeout = 5 * time.Second
)

// Info is the payload of the discovery endpoint.
type Info struct {
	Installed      *bool  `json:"installed"`
	Maintenance    bool   `json:"maintenance"`
	NeedsDBUpgrade bool   `json:"needsDbUpgrade"`
	Version        string `json:"version"`
	VersionString  string `json:"versionstring"`
	Edition        string `json:"edition"`
	ProductName    string `json:"productname"`
}

// Server is what discovery learned about a reachable installation.
type Server struct {
	BaseURL string
	Version Version
	Info    Info
}

// GetRemoteStatus queries status.php under baseURL. Without a scheme,
// https is tried first and plain http only when the https attempt failed
// for a reason other than an unverified certificate. Userinfo in baseURL is sent as basic
// credentials and stripped from the requested URL.
func GetRemoteStatus(ctx context.Context, c *client.Client, baseURL string) client.Result[Server] {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")

	base, auth := extractCredentials(base)

	lower := strings.ToLower(base)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return requestStatus(ctx, c, base, auth)
	}

	r := requestStatus(ctx, c, "https://"+base, auth)
	if r.Success() || r.Code == client.CodeSSLRecoverablePeerUnverified {
		return r
	}

	c.Logger().Info("https discovery failed, trying http", "base", base, "code", r.Code.String())
	return requestStatus(ctx, c, "http://"+base, auth)
}

// extractCredentials strips userinfo from raw, returning it as an
// Authorization header value.
func extractCredentials(raw string) (string, string) {
	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		rest = raw
	}

	host, path := rest, ""
	if i := strings.Index(rest, "/"); i >= 0 {
		host, path = rest[:i], rest[i:]
	}

	at := strings.LastIndex(host, "@")
	if at < 0 {
		return raw, ""
	}

	user, password, _ := strings.Cut(host[:at], ":")
	if u, err := url.PathUnescape(user); err == nil {
		user = u
	}
	if p, err := url.PathUnescape(password); err == nil {
		password = p
	}

	stripped := host[at+1:] + path
	if hasScheme {
		stripped = scheme + "://" + stripped
	}

	return stripped, client.BasicCredentials{User: user, Password: password}.Authorization()
}

// requestStatus runs a single discovery against base, following
// redirects by hand so a downgrade to http can be reported.
func requestStatus(ctx context.Context, c *client.Client, base, auth string) client.Result[Server] {
	req, err := client.NewRequest(http.MethodGet, base+Path)
	if err != nil {
		return client.ResultFromError[Server](err)
	}
	req = req.
		WithConnectTimeout(TryConnectionTimeout).
		WithReadTimeout(TryConnectionTimeout)
	if auth != "" {
		req = req.WithHeader(client.HeaderAuthorization, auth)
	}

	chain := &client.RedirectChain{}
	ex := c.NewExchange(req, client.WithRecorder(chain))
	defer ex.Close()

	path, err := ex.Follow(ctx, client.WithSuccess(func(status int) bool {
		return status == http.StatusOK
	}))
	if err != nil {
		c.Logger().Info("discovery failed", "base", base, "chain", chain.URLs(), "error", err)
		return client.ResultFromError[Server](err)
	}

	if ex.StatusCode() != http.StatusOK {
		return client.ResultFromExchange[Server](ex)
	}

	body, err := ex.BodyString()
	if err != nil {
		return client.ResultFromError[Server](err)
	}

	var info Info
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		r := client.NewResult[Server](client.CodeWrongServerResponse)
		r.HTTPCode = http.StatusOK
		r.Err = err
		return r
	}

	if info.Installed == nil || !*info.Installed {
		r := client.NewResult[Server](client.CodeInstanceNotConfigured)
		r.HTTPCode = http.StatusOK
		return r
	}

	code := client.CodeOKNoSSL
	switch {
	case path.RedirectedToInsecureLocation():
		code = client.CodeOKRedirectToNonSecureConnection
	case strings.HasPrefix(strings.ToLower(base), "https://"):
		code = client.CodeOKSSL
	}

	c.Logger().Debug("discovery complete", "base", base, "chain", chain.URLs(), "code", code.String())

	r := client.NewResult[Server](code).WithData(Server{
		BaseURL: base,
		Version: ParseVersion(info.Version),
		Info:    info,
	})
	r.HTTPCode = http.StatusOK
	r.HTTPPhrase = ex.Status()
	return r
}
