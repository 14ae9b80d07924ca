// Package client provides the operation-execution core of the cloudsync
// library, built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://cloud.example.com"),
//		client.WithCredentials(client.BasicCredentials{User: "alice", Password: "s3cret"}),
//		client.WithUserAgent("cloudsync/1.0"),
//	)
//
// # Requests and Exchanges
//
// A [Request] is immutable; every With* method returns a modified copy.
// An [Exchange] executes one and exposes the response:
//
//	req, err := client.NewRequest(http.MethodGet, "https://cloud.example.com/status.php")
//	ex := c.NewExchange(req.WithReadTimeout(5 * time.Second))
//	defer ex.Close()
//	status, err := ex.Execute(ctx)
//
// Every dispatch carries a fresh X-Request-ID, an identity
// Accept-Encoding and, when configured, the client's credentials.
//
// # Redirects
//
// [Exchange.Follow] walks redirects by hand with a hop cap and reports a
// [RedirectionPath]. A [RedirectChain] attached with [WithRecorder] sees
// every physical hop, including those the transport follows itself, and
// answers whether the chain ever went from https to http.
//
// # Results
//
// Operations report a [Result] whose [ResultCode] is derived from either
// the response status ([ResultFromExchange]) or the fault that prevented
// one ([ResultFromError]).
//
// # Transfers
//
// [Client.Download] and [Client.Upload] move bodies in fixed-size chunks
// through a [Transfer] that carries progress listeners and a cancellation
// flag:
//
//	t := client.NewTransfer(download.NewLogProgress(logger))
//	r := c.Download(ctx, req, "/tmp/file.bin", t)
//
// For lower-level control see the
// [github.com/adamwoolhether/cloudsync/client/download] package.
package client
