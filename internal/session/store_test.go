package session_test

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"safeclient/internal/domain"
	"safeclient/internal/session"
)

func sampleMaterial() domain.Material {
	m := domain.Material{Token: "tok-123", NonceSeed: []byte{0, 1, 2, 0xfe, 0xff}}
	for i := range m.SharedKey {
		m.SharedKey[i] = byte(255 - i)
	}
	return m
}

func TestStore_InstallClear(t *testing.T) {
	s := session.NewStore()
	if _, ok := s.Current(); ok || s.Token() != "" || s.Authenticated() {
		t.Fatal("new store should be empty")
	}

	want := sampleMaterial()
	s.Install(want)
	got, ok := s.Current()
	if !ok || !got.Equal(want) {
		t.Fatalf("Current after Install = %v, %v", ok, got.Token)
	}

	// Callers get copies.
	got.NonceSeed[0] = 42
	again, _ := s.Current()
	if again.NonceSeed[0] != 0 {
		t.Fatal("Current leaked internal slice")
	}

	s.Clear()
	if _, ok := s.Current(); ok || s.Token() != "" {
		t.Fatal("store not empty after Clear")
	}
}

func TestStore_ConcurrentReadersNeverSeePartialSession(t *testing.T) {
	s := session.NewStore()
	a := sampleMaterial()
	b := domain.Material{Token: "tok-b", NonceSeed: []byte{9}}
	for i := range b.SharedKey {
		b.SharedKey[i] = 0xAB
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			switch i % 3 {
			case 0:
				s.Install(a)
			case 1:
				s.Clear()
			default:
				s.Install(b)
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		m, ok := s.Current()
		if !ok {
			continue
		}
		if !m.Equal(a) && !m.Equal(b) {
			close(stop)
			wg.Wait()
			t.Fatalf("observed torn session: token=%q", m.Token)
		}
	}
	close(stop)
	wg.Wait()
}

func TestSnapshot_RoundTrip(t *testing.T) {
	want := sampleMaterial()
	text, err := session.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, ok, err := session.Unmarshal(text)
	if err != nil || !ok {
		t.Fatalf("Unmarshal: ok=%v err=%v", ok, err)
	}
	if !got.Equal(want) || !bytes.Equal(got.SharedKey[:], want.SharedKey[:]) {
		t.Fatal("round trip changed the session")
	}
}

func TestSnapshot_StoreRoundTrip(t *testing.T) {
	src := session.NewStore()
	src.Install(sampleMaterial())
	text, err := src.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	dst := session.NewStore()
	if err := dst.Unmarshal(text); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, ok := dst.Current()
	if !ok || !got.Equal(sampleMaterial()) {
		t.Fatal("store round trip mismatch")
	}
}

func TestSnapshot_EmptySession(t *testing.T) {
	s := session.NewStore()
	text, err := s.Marshal()
	if err != nil || text != "{}" {
		t.Fatalf("Marshal empty = %q, %v", text, err)
	}
	s.Install(sampleMaterial())
	if err := s.Unmarshal(text); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("empty snapshot should clear the store")
	}
}

func TestSnapshot_Malformed_IsConfigError(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"token":"t"}`,
		`{"token":"t","sharedKey":"!!!","nonceSeed":"AA=="}`,
		`{"token":"t","sharedKey":"AAAA","nonceSeed":"AA=="}`,
	}
	for _, in := range cases {
		_, _, err := session.Unmarshal(in)
		if !errors.Is(err, domain.ErrConfig) {
			t.Fatalf("Unmarshal(%q) err = %v, want ConfigError", in, err)
		}
	}
}

func TestSnapshot_MalformedLeavesStoreUntouched(t *testing.T) {
	s := session.NewStore()
	s.Install(sampleMaterial())
	if err := s.Unmarshal(`{"token":"x"}`); err == nil {
		t.Fatal("expected error")
	}
	if s.Token() != "tok-123" {
		t.Fatal("malformed snapshot replaced the session")
	}
}

func TestMaterial_Redacted(t *testing.T) {
	m := sampleMaterial()
	for _, s := range []string{m.String(), m.GoString()} {
		if strings.Contains(s, m.Token) {
			t.Fatalf("token leaked in %q", s)
		}
	}
}
