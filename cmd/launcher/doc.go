// Package main runs the in-memory launcher used by safeclient during
// development and tests. It authorizes applications through the handshake,
// serves the encrypted storage and naming endpoints, and publishes services
// on the public DNS reads.
//
// See package launcher for the HTTP API. All state is held in memory and lost
// on process exit. The default listen address is :8100; --deny refuses every
// authorization request, which is useful for exercising the failure path.
package main
