//go:build integration

package client_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/adamwoolhether/cloudsync/client"
)

// integrationClient builds a client for the server named by CLOUDSYNC_URL,
// authenticating with CLOUDSYNC_USER and CLOUDSYNC_PASSWORD when set.
func integrationClient(t *testing.T) *client.Client {
	t.Helper()

	base := os.Getenv("CLOUDSYNC_URL")
	if base == "" {
		t.Skip("CLOUDSYNC_URL not set")
	}

	opts := []client.Option{client.WithBaseURL(base), client.WithLogger(discardLogger)}
	if user := os.Getenv("CLOUDSYNC_USER"); user != "" {
		opts = append(opts, client.WithCredentials(client.BasicCredentials{User: user, Password: os.Getenv("CLOUDSYNC_PASSWORD")}))
	}

	c, err := client.Build(opts...)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	t.Cleanup(c.CloseIdleConnections)

	return c
}

func TestIntegration_StatusFollow(t *testing.T) {
	c := integrationClient(t)

	u, err := c.Endpoint("status.php")
	if err != nil {
		t.Fatal(err)
	}

	ex := c.NewExchange(newRequest(t, http.MethodGet, u.String()).WithFollowRedirects(false))
	defer ex.Close()

	path, err := ex.Follow(t.Context())
	if err != nil {
		t.Fatalf("following status.php: %v", err)
	}
	if path.LastStatus() != http.StatusOK {
		t.Fatalf("expected 200, got %d after %d hops", path.LastStatus(), path.Hops())
	}
}

func TestIntegration_DownloadRoot(t *testing.T) {
	c := integrationClient(t)
	if c.Credentials() == nil {
		t.Skip("CLOUDSYNC_USER not set")
	}

	root, err := c.FilesWebDAVURL()
	if err != nil {
		t.Fatal(err)
	}

	name := os.Getenv("CLOUDSYNC_FILE")
	if name == "" {
		t.Skip("CLOUDSYNC_FILE not set")
	}

	dest := filepath.Join(t.TempDir(), filepath.Base(name))
	r := c.Download(t.Context(), newRequest(t, http.MethodGet, root.String()+"/"+name), dest, nil)
	if !r.Success() {
		t.Fatalf("download failed: %s", r.LogMessage())
	}
	if r.Data.Size == 0 {
		t.Error("expected a non-empty file")
	}
}
