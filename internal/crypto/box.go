package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/box"

	"safeclient/internal/domain"
)

var errBoxOpen = errors.New("box open failed")

// GenerateKeyPair returns a fresh Curve25519 key pair for one handshake.
func GenerateKeyPair() (domain.KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: *pub, Private: *priv}, nil
}

// NewNonce returns 24 random bytes.
func NewNonce() (n domain.Nonce, err error) {
	_, err = rand.Read(n[:])
	return n, err
}

// NewHandshakeKeys generates a key pair and the nonce that will travel with it.
func NewHandshakeKeys() (domain.HandshakeKeys, error) {
	kp, err := GenerateKeyPair()
	if err != nil {
		return domain.HandshakeKeys{}, err
	}
	n, err := NewNonce()
	if err != nil {
		return domain.HandshakeKeys{}, err
	}
	return domain.HandshakeKeys{KeyPair: kp, Nonce: n}, nil
}

// SealBox encrypts msg from priv to peer under nonce. The nonce is not prepended:
// the handshake sends it separately.
func SealBox(msg []byte, nonce domain.Nonce, peer domain.BoxPublic, priv domain.BoxPrivate) []byte {
	n, p, k := [24]byte(nonce), [32]byte(peer), [32]byte(priv)
	return box.Seal(nil, msg, &n, &p, &k)
}

// OpenBox authenticates and decrypts a box sealed by peer.
func OpenBox(sealed []byte, nonce domain.Nonce, peer domain.BoxPublic, priv domain.BoxPrivate) ([]byte, error) {
	n, p, k := [24]byte(nonce), [32]byte(peer), [32]byte(priv)
	out, ok := box.Open(nil, sealed, &n, &p, &k)
	if !ok {
		return nil, errBoxOpen
	}
	return out, nil
}
