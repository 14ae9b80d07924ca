package client_test

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/cloudsync/client"
	"github.com/adamwoolhether/cloudsync/client/download"
)

// fileServer serves payload with the given headers. A negative length
// omits Content-Length.
func fileServer(t *testing.T, payload []byte, length int, headers map[string]string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		if length >= 0 {
			w.Header().Set("Content-Length", strconv.Itoa(length))
		}
		w.WriteHeader(http.StatusOK)
		if length < 0 {
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, stat err = %v", path, err)
	}
	left, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".cloudsync-dl-*"))
	if len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestClient_Download_Complete(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 1000)
	ts := fileServer(t, payload, len(payload), map[string]string{
		"ETag":          `"5f3c2a"`,
		"last-modified": "Wed, 21 Oct 2015 07:28:00 GMT",
	})

	var chunks atomic.Int32
	var last atomic.Int64
	listener := download.ProgressFunc(func(chunk, transferred, total int64, name string) {
		chunks.Add(1)
		last.Store(transferred)
		if total != int64(len(payload)) {
			t.Errorf("total = %d, want %d", total, len(payload))
		}
		if chunk > download.ChunkSize {
			t.Errorf("chunk %d larger than %d", chunk, download.ChunkSize)
		}
	})
	tr := client.NewTransfer(&listener)

	dest := filepath.Join(t.TempDir(), "file.bin")
	c := newClient(t)
	r := c.Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, tr)
	if !r.Success() {
		t.Fatalf("download failed: %s", r.LogMessage())
	}

	got, err := os.ReadFile(dest)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch, err = %v", err)
	}
	if r.Data.Size != int64(len(payload)) || r.Data.Path != dest {
		t.Errorf("info = %+v", r.Data)
	}
	if r.Data.ETag != "5f3c2a" {
		t.Errorf("ETag = %q, want quotes stripped", r.Data.ETag)
	}
	if want := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC); !r.Data.Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", r.Data.Modified, want)
	}
	if chunks.Load() < 3 || last.Load() != int64(len(payload)) {
		t.Errorf("chunks = %d, last = %d", chunks.Load(), last.Load())
	}
}

func TestClient_Download_Incomplete(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		length  int
		want    client.ResultCode
	}{
		{name: "no content length", payload: []byte("hello"), length: -1, want: client.CodeTransferIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := fileServer(t, tt.payload, tt.length, nil)
			dest := filepath.Join(t.TempDir(), "f")

			r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, nil)
			if r.Code != tt.want {
				t.Fatalf("code = %s, want %s (%v)", r.Code, tt.want, r.Err)
			}
			assertNoFile(t, dest)
		})
	}
}

func TestClient_Download_ShortBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("only a few bytes"))
		// Hijack to end the connection before the declared length.
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "f")
	r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, nil)
	if r.Success() {
		t.Fatal("expected failure for truncated body")
	}
	assertNoFile(t, dest)
}

func TestClient_Download_CancelFromListener(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), download.ChunkSize*64)
	ts := fileServer(t, payload, len(payload), nil)

	tr := client.NewTransfer()
	listener := download.ProgressFunc(func(_, _, _ int64, _ string) { tr.Cancel() })
	tr.AddProgressListener(&listener)

	dest := filepath.Join(t.TempDir(), "f")
	r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, tr)
	if r.Code != client.CodeCancelled {
		t.Fatalf("code = %s, want CANCELLED", r.Code)
	}
	assertNoFile(t, dest)
}

func TestClient_Download_AlreadyCancelled(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	tr := client.NewTransfer()
	tr.Cancel()

	r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), filepath.Join(t.TempDir(), "f"), tr)
	if r.Code != client.CodeCancelled {
		t.Fatalf("code = %s, want CANCELLED", r.Code)
	}
	if hits.Load() != 0 {
		t.Error("no request expected for a cancelled transfer")
	}
}

func TestClient_Download_Statuses(t *testing.T) {
	tests := []struct {
		status      int
		body        string
		want        client.ResultCode
		wantMessage string
	}{
		{status: http.StatusNotFound, body: "gone", want: client.CodeFileNotFound},
		{status: http.StatusForbidden, body: sabreForbidden, want: client.CodeSpecificForbidden,
			wantMessage: "Access to this resource is blocked by the firewall"},
		{status: http.StatusServiceUnavailable, want: client.CodeServiceUnavailable},
		{status: http.StatusUnauthorized, want: client.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			dest := filepath.Join(t.TempDir(), "f")
			r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, nil)
			if r.Code != tt.want {
				t.Errorf("code = %s, want %s", r.Code, tt.want)
			}
			if r.ServerMessage != tt.wantMessage {
				t.Errorf("message = %q, want %q", r.ServerMessage, tt.wantMessage)
			}
			assertNoFile(t, dest)
		})
	}
}

func TestClient_Download_ServerChecksum(t *testing.T) {
	payload := []byte("verified by the server header")
	sum := sha1.Sum(payload)
	good := hex.EncodeToString(sum[:])

	tests := []struct {
		name   string
		header string
		want   client.ResultCode
	}{
		{name: "match", header: "SHA1:" + good + " ADLER32:deadbeef", want: client.CodeOK},
		{name: "mismatch", header: "SHA1:" + good[:len(good)-1] + "0", want: client.CodeChecksumMismatch},
		{name: "unsupported only", header: "ADLER32:deadbeef", want: client.CodeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := fileServer(t, payload, len(payload), map[string]string{client.HeaderChecksum: tt.header})
			dest := filepath.Join(t.TempDir(), "f")

			r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, nil)
			if r.Code != tt.want {
				t.Fatalf("code = %s, want %s (%v)", r.Code, tt.want, r.Err)
			}
			if tt.want != client.CodeOK {
				assertNoFile(t, dest)
			}
		})
	}
}

func TestClient_Download_EmptyDestination(t *testing.T) {
	r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, "http://cloud.example.com/f"), "", nil)
	if r.Code != client.CodeInvalidLocalFileName {
		t.Errorf("code = %s, want INVALID_LOCAL_FILE_NAME", r.Code)
	}
}

func TestClient_Download_SkipExisting(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(dest, []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newClient(t).Download(t.Context(), newRequest(t, http.MethodGet, ts.URL), dest, nil, client.WithSkipExisting())
	if !r.Success() || r.Data.Size != 6 {
		t.Fatalf("result = %s, info = %+v", r.LogMessage(), r.Data)
	}
	if hits.Load() != 0 {
		t.Error("no request expected when skipping")
	}
}

func TestClient_DownloadBatch(t *testing.T) {
	payload := []byte("batch payload")
	ok := fileServer(t, payload, len(payload), nil)
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	dir := t.TempDir()
	items := []client.BatchItem{
		{Request: newRequest(t, http.MethodGet, ok.URL+"/1"), DestPath: filepath.Join(dir, "1")},
		{Request: newRequest(t, http.MethodGet, missing.URL+"/2"), DestPath: filepath.Join(dir, "2")},
		{Request: newRequest(t, http.MethodGet, ok.URL+"/3"), DestPath: filepath.Join(dir, "3")},
	}

	results := newClient(t).DownloadBatch(t.Context(), items, 2)
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}

	want := []client.ResultCode{client.CodeOK, client.CodeFileNotFound, client.CodeOK}
	for i, r := range results {
		if r.Code != want[i] {
			t.Errorf("item %d: code = %s, want %s", i, r.Code, want[i])
		}
	}
}
