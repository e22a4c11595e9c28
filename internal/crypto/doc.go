// Package crypto exposes the minimal primitives used by the session layer.
//
// Contents
//
//   - Curve25519 key pairs and nonces for the launcher handshake
//     (GenerateKeyPair, NewNonce, NewHandshakeKeys)
//   - Public-key authenticated encryption for the handshake blob (SealBox, OpenBox)
//   - Symmetric envelopes for ordinary requests (Seal, Open): the output is the
//     24-byte nonce followed by the secretbox ciphertext
//   - Short fingerprints for display (Fingerprint)
//
// # Notes
//
// Both box and secretbox come from golang.org/x/crypto/nacl and are wire
// compatible with libsodium's crypto_box and crypto_secretbox.
package crypto
