package domain

import "fmt"

// ------------- Curve25519 (nacl/box) -------------

type BoxPublic [32]byte
type BoxPrivate [32]byte

func (k BoxPublic) Slice() []byte  { return k[:] }
func (k BoxPrivate) Slice() []byte { return k[:] }

// KeyPair is an ephemeral handshake key pair.
type KeyPair struct {
	Public  BoxPublic
	Private BoxPrivate
}

func MustBoxPublic(b []byte) BoxPublic {
	if len(b) != 32 {
		panic(fmt.Errorf("box public: want 32 bytes, got %d", len(b)))
	}
	var out BoxPublic
	copy(out[:], b)
	return out
}

// ParseBoxPublic is the non-panicking form of MustBoxPublic, used on wire input.
func ParseBoxPublic(b []byte) (BoxPublic, error) {
	var out BoxPublic
	if len(b) != len(out) {
		return out, fmt.Errorf("box public: want %d bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ------------- Nonces -------------

// NonceSize is the XSalsa20 nonce length shared by box and secretbox.
const NonceSize = 24

type Nonce [NonceSize]byte

func (n Nonce) Slice() []byte { return n[:] }

func ParseNonce(b []byte) (Nonce, error) {
	var out Nonce
	if len(b) != NonceSize {
		return out, fmt.Errorf("nonce: want %d bytes, got %d", NonceSize, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ------------- Symmetric -------------

// SharedKeySize is the secretbox key length; the handshake splits its plaintext here.
const SharedKeySize = 32

type SharedKey [SharedKeySize]byte

func (k SharedKey) Slice() []byte { return k[:] }

// HandshakeKeys is a previously generated key pair together with the nonce it was
// first sent with. The three values are only ever reused together.
type HandshakeKeys struct {
	KeyPair
	Nonce Nonce
}

// Valid reports whether the key pair and nonce are populated.
func (h HandshakeKeys) Valid() bool {
	return h.Public != (BoxPublic{}) && h.Private != (BoxPrivate{}) && h.Nonce != (Nonce{})
}
