package commands

import (
	"testing"

	"safeclient/internal/crypto"
	"safeclient/internal/domain"
)

func TestSessionLabel_DerivedFromToken(t *testing.T) {
	key, err := crypto.NewSharedKey()
	if err != nil {
		t.Fatalf("NewSharedKey: %v", err)
	}
	m := domain.Material{Token: "tok-1", SharedKey: key}

	if got, want := sessionLabel(m), crypto.Fingerprint([]byte("tok-1")); got != want {
		t.Fatalf("label = %q, want %q", got, want)
	}
	if sessionLabel(m) == crypto.Fingerprint(key[:]) {
		t.Fatal("label is derived from the shared key")
	}

	m.SharedKey[0] ^= 0xff
	if sessionLabel(m) != crypto.Fingerprint([]byte("tok-1")) {
		t.Fatal("label changed with the key")
	}
}
