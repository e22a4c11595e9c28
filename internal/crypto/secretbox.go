package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"

	"safeclient/internal/domain"
)

var (
	errShortEnvelope = errors.New("envelope shorter than nonce")
	errSecretOpen    = errors.New("secretbox open failed")
)

// Seal encrypts plaintext under key with a fresh random nonce and returns
// nonce || ciphertext. A nonce is never reused: each call draws a new one.
func Seal(key domain.SharedKey, plaintext []byte) ([]byte, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	n, k := [24]byte(nonce), [32]byte(key)
	return secretbox.Seal(nonce[:], plaintext, &n, &k), nil
}

// Open reverses Seal.
func Open(key domain.SharedKey, envelope []byte) ([]byte, error) {
	if len(envelope) < domain.NonceSize+secretbox.Overhead {
		return nil, errShortEnvelope
	}
	var n [24]byte
	copy(n[:], envelope[:domain.NonceSize])
	k := [32]byte(key)
	out, ok := secretbox.Open(nil, envelope[domain.NonceSize:], &n, &k)
	if !ok {
		return nil, errSecretOpen
	}
	return out, nil
}

// NewSharedKey returns a random secretbox key.
func NewSharedKey() (k domain.SharedKey, err error) {
	_, err = rand.Read(k[:])
	return k, err
}
