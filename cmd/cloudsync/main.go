// Command cloudsync talks to a file-sync server from the command line.
//
//	cloudsync -c cloudsync.toml status
//	cloudsync --url https://cloud.example.com -u alice:s3cret ls /Documents
//	cloudsync -c cloudsync.toml get /Photos/cat.jpg ./downloads
//	cloudsync -c cloudsync.toml put ./notes.txt /notes.txt
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/adamwoolhether/cloudsync"
	"github.com/adamwoolhether/cloudsync/client"
	"github.com/adamwoolhether/cloudsync/client/download"
	"github.com/adamwoolhether/cloudsync/internal/config"
	"github.com/adamwoolhether/cloudsync/resources/files"
	"github.com/adamwoolhether/cloudsync/resources/status"
	"github.com/adamwoolhether/cloudsync/resources/users"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "cloudsync:", err)
		}
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, rest, err := config.Parse(args, stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}
	defer c.CloseIdleConnections()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "status":
		return runStatus(ctx, c, cfg.URL, stdout)
	case "exists":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: exists <remote-path>", errUsage)
		}
		return runExists(ctx, c, cmdArgs[0], stdout)
	case "ls":
		path := "/"
		if len(cmdArgs) > 0 {
			path = cmdArgs[0]
		}
		return runList(ctx, c, path, stdout)
	case "get":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: get <remote-path> <local-folder>", errUsage)
		}
		return runGet(ctx, c, logger, cmdArgs[0], cmdArgs[1], stdout)
	case "put":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: put <local-path> <remote-path>", errUsage)
		}
		return runPut(ctx, c, logger, cmdArgs[0], cmdArgs[1], stdout)
	case "quota":
		return runQuota(ctx, c, stdout)
	case "whoami":
		return runWhoAmI(ctx, c, stdout)
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func newClient(cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithBaseURL(cfg.URL),
		client.WithTimeout(cfg.Timeout),
		client.WithUserAgent(cfg.UserAgent),
		client.WithRedirectLimit(cfg.MaxRedirects),
		client.WithLogger(logger),
	}
	if cfg.Username != "" {
		opts = append(opts, client.WithCredentials(client.BasicCredentials{User: cfg.Username, Password: cfg.Password}))
	}
	if cfg.UserID != "" {
		opts = append(opts, client.WithUserID(cfg.UserID))
	}
	if cfg.RPS > 0 {
		opts = append(opts, client.WithThrottle(cfg.RPS, max(cfg.Burst, 1)))
	}

	return cloudsync.NewClient(opts...)
}

// resultErr turns a failed result into an error for the exit status.
func resultErr[T any](r client.Result[T]) error {
	if r.Success() {
		return nil
	}
	return errors.New(r.LogMessage())
}

func runStatus(ctx context.Context, c *client.Client, baseURL string, w io.Writer) error {
	r := status.GetRemoteStatus(ctx, c, baseURL)
	if err := resultErr(r); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s (%s) at %s\n", r.Data.Info.ProductName, r.Data.Version, r.Code, r.Data.BaseURL)
	return nil
}

func runExists(ctx context.Context, c *client.Client, path string, w io.Writer) error {
	r, redirects := files.CheckPathExistence(ctx, c, path, true)
	if r.Err != nil {
		return resultErr(r)
	}

	if redirects != nil && redirects.Hops() > 0 {
		fmt.Fprintf(w, "redirected %d time(s) to %s\n", redirects.Hops(), redirects.LastLocation())
	}
	fmt.Fprintf(w, "%s: %t\n", path, r.Data)
	return nil
}

func runList(ctx context.Context, c *client.Client, path string, w io.Writer) error {
	r := files.ReadFolder(ctx, c, path)
	if err := resultErr(r); err != nil {
		return err
	}

	for _, f := range r.Data {
		kind, size := "-", f.Size
		if f.IsFolder() {
			kind = "d"
		}
		if size == 0 {
			size = f.Length
		}
		fmt.Fprintf(w, "%s %12d %s %s\n", kind, size, f.Modified.Format("2006-01-02 15:04"), f.RemotePath)
	}
	return nil
}

func runGet(ctx context.Context, c *client.Client, logger *slog.Logger, remote, local string, w io.Writer) error {
	t := download.NewTransfer(download.NewLogProgress(logger))
	stop := context.AfterFunc(ctx, func() { t.Cancel() })
	defer stop()

	r := files.Download(ctx, c, remote, local, t)
	if err := resultErr(r); err != nil {
		return err
	}

	fmt.Fprintf(w, "saved %s (%d bytes)\n", r.Data.Path, r.Data.Size)
	return nil
}

func runPut(ctx context.Context, c *client.Client, logger *slog.Logger, local, remote string, w io.Writer) error {
	t := download.NewTransfer(download.NewLogProgress(logger))
	stop := context.AfterFunc(ctx, func() { t.Cancel() })
	defer stop()

	r := files.Upload(ctx, c, local, remote, t)
	if err := resultErr(r); err != nil {
		return err
	}

	fmt.Fprintf(w, "uploaded %s (%d bytes, etag %s)\n", remote, r.Data.Size, r.Data.ETag)
	return nil
}

func runQuota(ctx context.Context, c *client.Client, w io.Writer) error {
	r := users.GetUserQuota(ctx, c)
	if err := resultErr(r); err != nil {
		return err
	}

	q := r.Data
	if q.Total < 0 {
		fmt.Fprintf(w, "used %d bytes, quota not available (%d)\n", q.Used, q.Total)
		return nil
	}
	fmt.Fprintf(w, "used %d of %d bytes (%.1f%%)\n", q.Used, q.Total, q.Relative)
	return nil
}

func runWhoAmI(ctx context.Context, c *client.Client, w io.Writer) error {
	r := users.GetUserInfo(ctx, c)
	if err := resultErr(r); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s) %s\n", r.Data.ID, r.Data.DisplayName, r.Data.Email)
	return nil
}
