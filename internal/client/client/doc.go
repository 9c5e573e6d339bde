// Package client contains the client-side building blocks for SEHATI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     wallet registration and login, access grants, records and the audit
//     trail.
//  2. A gRPC implementation (see GRPCClient) that injects the access token
//     via an interceptor, transparently refreshes an expired token once, and
//     maps status codes back to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Failures returned by the server keep the server's user-facing message (see
// RemoteError) and unwrap to the matching common error kind, so callers can
// use errors.Is and still print something meaningful.
package client
