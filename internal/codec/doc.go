// Package codec implements the per-request envelope.
//
// Each domain.Request declares on its own whether its body is encrypted and
// whether it carries the session token. Encrypted payloads are sealed with
// nacl/secretbox under the session's shared key and a fresh random nonce per
// request; the body on the wire is base64(nonce || ciphertext). Responses to
// encrypted requests use the same envelope.
//
// Non-2xx responses are returned as *domain.APIError holding the raw body.
package codec
