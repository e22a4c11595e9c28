package codec_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"safeclient/internal/codec"
	"safeclient/internal/crypto"
	"safeclient/internal/domain"
)

func testSession(t *testing.T) *domain.Material {
	t.Helper()
	key, err := crypto.NewSharedKey()
	if err != nil {
		t.Fatalf("NewSharedKey: %v", err)
	}
	return &domain.Material{Token: "tok", SharedKey: key, NonceSeed: []byte{1, 2, 3}}
}

func TestWrap_EncryptedAuthorized(t *testing.T) {
	sess := testSession(t)
	c := codec.New()

	req := domain.Request{
		Method:             http.MethodPost,
		Path:               "/nfs/directory",
		JSONBody:           map[string]string{"dirPath": "/docs"},
		RequiresEncryption: true,
		RequiresAuth:       true,
	}
	tr, err := c.Wrap(req, sess)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if got := tr.Header.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("Authorization %q", got)
	}
	if tr.Header.Get("Content-Type") != "text/plain" {
		t.Fatalf("Content-Type %q", tr.Header.Get("Content-Type"))
	}
	sealed, err := base64.StdEncoding.DecodeString(string(tr.Body))
	if err != nil {
		t.Fatalf("body not base64: %v", err)
	}
	plain, err := crypto.Open(sess.SharedKey, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != `{"dirPath":"/docs"}` {
		t.Fatalf("plaintext %q", plain)
	}

	// Same descriptor again: different nonce, different ciphertext.
	tr2, err := c.Wrap(req, sess)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if bytes.Equal(tr.Body, tr2.Body) {
		t.Fatal("identical ciphertext for repeated request")
	}
}

func TestWrap_Unencrypted_NeverCallsEncryptor(t *testing.T) {
	calls := 0
	c := codec.NewWithEncryptor(func(k domain.SharedKey, p []byte) ([]byte, error) {
		calls++
		return crypto.Seal(k, p)
	})

	for _, sess := range []*domain.Material{nil, testSession(t)} {
		tr, err := c.Wrap(domain.Request{
			Method:   http.MethodPost,
			Path:     "/auth",
			JSONBody: map[string]int{"a": 1},
			Query:    url.Values{"x": {"1"}},
		}, sess)
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		if string(tr.Body) != `{"a":1}` || tr.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("body %q type %q", tr.Body, tr.Header.Get("Content-Type"))
		}
		if tr.Header.Get("Authorization") != "" {
			t.Fatal("token attached to unauthenticated request")
		}
		if tr.Query.Get("x") != "1" {
			t.Fatal("query dropped")
		}
	}
	if calls != 0 {
		t.Fatalf("encryptor called %d times", calls)
	}
}

func TestWrap_AuthWithoutEncryption(t *testing.T) {
	tr, err := codec.New().Wrap(domain.Request{
		Method:       http.MethodPut,
		Path:         "/x",
		RawBody:      []byte("raw"),
		RequiresAuth: true,
	}, testSession(t))
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if string(tr.Body) != "raw" || tr.Header.Get("Content-Type") != "application/octet-stream" {
		t.Fatalf("body %q type %q", tr.Body, tr.Header.Get("Content-Type"))
	}
	if tr.Header.Get("Authorization") != "Bearer tok" {
		t.Fatal("missing token")
	}
}

func TestWrap_NoSession_FailsLocally(t *testing.T) {
	c := codec.New()
	for _, req := range []domain.Request{
		{Method: http.MethodGet, Path: "/nfs/directory/x/false", RequiresAuth: true},
		{Method: http.MethodPost, Path: "/nfs/file", RequiresEncryption: true},
	} {
		if _, err := c.Wrap(req, nil); !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("Wrap(%s) err = %v", req.Path, err)
		}
	}
}

func TestWrap_BothBodies_Rejected(t *testing.T) {
	_, err := codec.New().Wrap(domain.Request{Method: "POST", Path: "/x", JSONBody: 1, RawBody: []byte("a")}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUnwrap_EncryptedRoundTrip(t *testing.T) {
	sess := testSession(t)
	sealed, err := crypto.Seal(sess.SharedKey, []byte(`["a","b"]`))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	res, err := codec.New().Unwrap(&domain.TransportResponse{
		Status: http.StatusOK,
		Body:   []byte(base64.StdEncoding.EncodeToString(sealed)),
	}, true, sess)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	var got []string
	if err := res.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("got %v", got)
	}
}

func TestUnwrap_ErrorStatus_NotDecrypted(t *testing.T) {
	sess := testSession(t)
	_, err := codec.New().Unwrap(&domain.TransportResponse{
		Status: http.StatusBadRequest,
		Body:   []byte(`{"errorCode":-1502,"description":"bad"}`),
	}, true, sess)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || string(apiErr.Body) != `{"errorCode":-1502,"description":"bad"}` {
		t.Fatalf("unexpected %+v", apiErr)
	}
}

func TestUnwrap_Tampered_IsDecryptError(t *testing.T) {
	sess := testSession(t)
	sealed, _ := crypto.Seal(sess.SharedKey, []byte("hello"))
	sealed[len(sealed)-1] ^= 1
	_, err := codec.New().Unwrap(&domain.TransportResponse{
		Status: http.StatusOK,
		Body:   []byte(base64.StdEncoding.EncodeToString(sealed)),
	}, true, sess)
	if !errors.Is(err, domain.ErrDecrypt) {
		t.Fatalf("want ErrDecrypt, got %v", err)
	}
}

func TestUnwrap_NotBase64_KeepsCause(t *testing.T) {
	_, err := codec.New().Unwrap(&domain.TransportResponse{
		Status: http.StatusOK,
		Body:   []byte("not*base64!"),
	}, true, testSession(t))
	var corrupt base64.CorruptInputError
	if !errors.Is(err, domain.ErrDecrypt) || !errors.As(err, &corrupt) {
		t.Fatalf("want ErrDecrypt wrapping CorruptInputError, got %v", err)
	}
}

func TestUnwrap_Plain(t *testing.T) {
	res, err := codec.New().Unwrap(&domain.TransportResponse{Status: http.StatusOK, Body: []byte("public")}, false, nil)
	if err != nil || string(res.Body) != "public" {
		t.Fatalf("Unwrap = %v, %v", res, err)
	}
}
