package client

import (
	"encoding/base64"
)

// Credentials supply the Authorization header attached to every dispatch.
type Credentials interface {
	Username() string
	Authorization() string
}

// BasicCredentials authenticate with HTTP basic auth.
type BasicCredentials struct {
	User     string
	Password string
}

func (c BasicCredentials) Username() string { return c.User }

func (c BasicCredentials) Authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Password))
}

// BearerCredentials authenticate with an OAuth2 access token.
type BearerCredentials struct {
	User  string
	Token string
}

func (c BearerCredentials) Username() string { return c.User }

func (c BearerCredentials) Authorization() string {
	return "Bearer " + c.Token
}
