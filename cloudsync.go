// Package cloudsync exposes the client builder.
package cloudsync

import (
	"github.com/adamwoolhether/cloudsync/client"
)

// NewClient instantiates a new *client.Client with the provided options.
// If not specified, a clone of http.DefaultTransport and a fresh cookie
// jar are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
