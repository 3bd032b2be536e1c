// Package client contains the CLI's building blocks for talking to the
// vaultkeeper server and keeping local state.
//
// # Overview
//
//  1. Client is the transport-agnostic API contract; HTTPClient implements
//     it over the JSON auth API, passing the session secret as the session
//     cookie on each call.
//  2. InitDatabase, RunMigrations and OpenLocalStore bootstrap the local
//     sqlite database with embedded goose migrations.
//
// # Error Handling
//
// Transport failures match ErrUnavailable. Non-success answers are returned
// as *APIError carrying the server's message; a 401 also matches
// ErrUnauthorized.
package client
