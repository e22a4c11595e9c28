// Package auth implements the launcher handshake that bootstraps a session.
//
// # Overview
//
// The application proves nothing up front: it asks the launcher for access and
// a human approves or denies the request in the launcher UI. Approval can take
// minutes, so the handshake carries its own timeout, independent of ordinary
// requests.
//
// # Flow
//
//  1. Generate an ephemeral Curve25519 key pair and a 24-byte nonce (or reuse a
//     complete domain.HandshakeKeys supplied by the caller).
//  2. POST /auth, unencrypted and without a token, with
//     {app, permissions, publicKey, nonce}. permissions is always an array.
//  3. The launcher replies {token, encryptedKey, publicKey}.
//  4. nacl/box.Open(encryptedKey, nonce, launcherPub, ourPriv) yields the
//     shared key (first 32 bytes) followed by the nonce seed.
//
// # Errors
//
// A blob that fails to open, or a malformed response, is a *domain.AuthError.
// Non-2xx statuses are *domain.APIError and transport failures are
// *domain.NetworkError. Nothing is retried.
package auth
