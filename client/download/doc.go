// Package download moves HTTP bodies between the network and disk in
// fixed-size chunks, with cooperative cancellation, progress listeners and
// optional checksum validation.
//
// # Single Download
//
// [Handle] writes the response body to a temporary file alongside the
// destination path, then atomically renames it once the declared length
// arrived:
//
//	t := download.NewTransfer(download.NewLogProgress(logger))
//	n, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, t, logger)
//
// Calling t.Cancel from any goroutine, including a listener, stops the
// copy before its next write.
//
// # Batches
//
// [Queue] runs many transfers with a concurrency limit:
//
//	q := download.NewQueue(4)
//	q.Start(ctx, func(ctx context.Context) error { ... })
//	err := q.Wait()
//
// Most callers should use the higher-level
// [github.com/adamwoolhether/cloudsync/client] package, which wraps
// Handle and reports the outcome as a classified result.
package download
