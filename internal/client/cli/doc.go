// Package cli provides the interactive vaultkeeper command-line client.
//
// It wires configuration, the local metadata store and the HTTP API client
// behind a small REPL. A typical session is "signup" or "signin", then
// "verify" with the emailed code, then "whoami". "demo" skips the email
// round trip. A background watcher keeps the online/offline status in the
// prompt current.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
