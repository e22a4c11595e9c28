package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"safeclient/internal/auth"
	"safeclient/internal/crypto"
	"safeclient/internal/domain"
	"safeclient/internal/launcher"
	"safeclient/internal/transport"
)

var testApp = domain.AppIdentity{Name: "X", ID: "x.y", Version: "0.1", Vendor: "v"}

type transportFunc func(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error)

func (f transportFunc) Do(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
	return f(ctx, req)
}

func newLauncher(t *testing.T, opts ...launcher.Option) (*launcher.Server, *auth.KeyExchange) {
	t.Helper()
	l := launcher.New(opts...)
	srv := httptest.NewServer(l)
	t.Cleanup(srv.Close)
	return l, auth.New(transport.NewHTTP(srv.URL, srv.Client()), time.Minute, zerolog.Nop())
}

func TestPerform_OK(t *testing.T) {
	l, kx := newLauncher(t)

	m, err := kx.Perform(context.Background(), testApp, []domain.Permission{domain.PermissionSafeDriveAccess}, nil)
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if m.Token == "" {
		t.Fatal("empty token")
	}
	if m.SharedKey == (domain.SharedKey{}) {
		t.Fatal("zero shared key")
	}
	if len(m.NonceSeed) != domain.NonceSize {
		t.Fatalf("nonce seed len = %d", len(m.NonceSeed))
	}
	if l.Handshakes() != 1 {
		t.Fatalf("handshakes = %d", l.Handshakes())
	}
}

func TestPerform_SuppliedKeys(t *testing.T) {
	_, kx := newLauncher(t)

	keys, err := crypto.NewHandshakeKeys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if _, err := kx.Perform(context.Background(), testApp, nil, &keys); err != nil {
		t.Fatalf("perform: %v", err)
	}
}

func TestPerform_IncompleteKeys_Rejected(t *testing.T) {
	called := false
	kx := auth.New(transportFunc(func(context.Context, *domain.TransportRequest) (*domain.TransportResponse, error) {
		called = true
		return nil, errors.New("unreachable")
	}), 0, zerolog.Nop())

	keys := &domain.HandshakeKeys{Nonce: domain.Nonce{1}}
	_, err := kx.Perform(context.Background(), testApp, nil, keys)
	if !errors.Is(err, domain.ErrInvalidHandshakeKeys) {
		t.Fatalf("err = %v, want ErrInvalidHandshakeKeys", err)
	}
	if called {
		t.Fatal("transport was called")
	}
}

func TestPerform_NilPermissions_SentAsEmptyArray(t *testing.T) {
	var body map[string]json.RawMessage
	kx := auth.New(transportFunc(func(_ context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
		if req.Method != http.MethodPost || req.Path != auth.Path {
			t.Errorf("request = %s %s", req.Method, req.Path)
		}
		if req.Header.Get("Authorization") != "" {
			t.Error("handshake must not carry a token")
		}
		if err := json.Unmarshal(req.Body, &body); err != nil {
			t.Errorf("handshake body is not JSON: %v", err)
		}
		return &domain.TransportResponse{Status: http.StatusUnauthorized}, nil
	}), 0, zerolog.Nop())

	_, _ = kx.Perform(context.Background(), testApp, nil, nil)
	if string(body["permissions"]) != "[]" {
		t.Fatalf("permissions = %s, want []", body["permissions"])
	}
	for _, k := range []string{"app", "publicKey", "nonce"} {
		if _, ok := body[k]; !ok {
			t.Fatalf("missing %q", k)
		}
	}
}

func TestPerform_Denied_IsAPIError(t *testing.T) {
	_, kx := newLauncher(t, launcher.WithApprover(func(domain.AppIdentity, []domain.Permission) bool { return false }))

	_, err := kx.Perform(context.Background(), testApp, nil, nil)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
}

func TestPerform_Unreachable_IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	kx := auth.New(transport.NewHTTP(url, nil), time.Second, zerolog.Nop())
	_, err := kx.Perform(context.Background(), testApp, nil, nil)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestPerform_BadResponses_AreAuthErrors(t *testing.T) {
	serverKeys, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	cases := []struct {
		name string
		resp func(req domain.HandshakeRequest) any
	}{
		{"not json", func(domain.HandshakeRequest) any { return "nope" }},
		{"no token", func(domain.HandshakeRequest) any {
			return domain.HandshakeResponse{EncryptedKey: "AAAA", PublicKey: crypto.B64(serverKeys.Public[:])}
		}},
		{"bad public key", func(domain.HandshakeRequest) any {
			return domain.HandshakeResponse{Token: "t", EncryptedKey: "AAAA", PublicKey: crypto.B64([]byte{1, 2, 3})}
		}},
		{"garbage blob", func(domain.HandshakeRequest) any {
			return domain.HandshakeResponse{Token: "t", EncryptedKey: crypto.B64(make([]byte, 80)), PublicKey: crypto.B64(serverKeys.Public[:])}
		}},
		{"key without seed", func(req domain.HandshakeRequest) any {
			return sealedResponse(t, req, serverKeys, make([]byte, domain.SharedKeySize))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kx := auth.New(transportFunc(func(_ context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
				var hr domain.HandshakeRequest
				if err := json.Unmarshal(req.Body, &hr); err != nil {
					t.Fatalf("request: %v", err)
				}
				var body []byte
				if s, ok := tc.resp(hr).(string); ok {
					body = []byte(s)
				} else {
					body, _ = json.Marshal(tc.resp(hr))
				}
				return &domain.TransportResponse{Status: http.StatusOK, Body: body}, nil
			}), 0, zerolog.Nop())

			_, err := kx.Perform(context.Background(), testApp, nil, nil)
			if !errors.Is(err, domain.ErrAuth) {
				t.Fatalf("err = %v, want auth error", err)
			}
		})
	}
}

func sealedResponse(t *testing.T, req domain.HandshakeRequest, server domain.KeyPair, material []byte) domain.HandshakeResponse {
	t.Helper()
	rawPub, _ := crypto.UnB64(req.PublicKey)
	rawNonce, _ := crypto.UnB64(req.Nonce)
	nonce, err := domain.ParseNonce(rawNonce)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	sealed := crypto.SealBox(material, nonce, domain.MustBoxPublic(rawPub), server.Private)
	return domain.HandshakeResponse{Token: "t", EncryptedKey: crypto.B64(sealed), PublicKey: crypto.B64(server.Public[:])}
}
