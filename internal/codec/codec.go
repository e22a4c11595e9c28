package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"safeclient/internal/crypto"
	"safeclient/internal/domain"
)

const (
	contentJSON      = "application/json"
	contentRaw       = "application/octet-stream"
	contentEncrypted = "text/plain"
)

// Encryptor seals one payload. Tests swap it to observe calls.
type Encryptor func(key domain.SharedKey, plaintext []byte) ([]byte, error)

// Codec turns request descriptors into transport requests and back.
type Codec struct {
	seal Encryptor
}

// New returns a codec sealing with crypto.Seal.
func New() *Codec { return &Codec{seal: crypto.Seal} }

// NewWithEncryptor overrides the sealing step.
func NewWithEncryptor(seal Encryptor) *Codec { return &Codec{seal: seal} }

// Wrap builds the wire request. sess may be nil when no session is installed;
// a request that needs one then fails with domain.ErrNotAuthenticated before
// anything is sent.
func (c *Codec) Wrap(req domain.Request, sess *domain.Material) (*domain.TransportRequest, error) {
	if (req.RequiresAuth || req.RequiresEncryption) && sess == nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrNotAuthenticated)
	}

	out := &domain.TransportRequest{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Header: make(http.Header),
	}
	if req.RequiresAuth {
		out.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	payload, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	if payload == nil {
		return out, nil
	}

	if req.RequiresEncryption {
		sealed, err := c.seal(sess.SharedKey, payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encrypt: %w", req.Method, req.Path, err)
		}
		out.Body = []byte(base64.StdEncoding.EncodeToString(sealed))
		out.Header.Set("Content-Type", contentEncrypted)
		return out, nil
	}
	out.Body = payload
	out.Header.Set("Content-Type", contentType)
	return out, nil
}

// Unwrap converts a transport response into a Result. Non-2xx responses become
// *domain.APIError with the raw body; error bodies are never decrypted.
func (c *Codec) Unwrap(resp *domain.TransportResponse, encrypted bool, sess *domain.Material) (*domain.Result, error) {
	if !resp.Success() {
		return nil, &domain.APIError{Status: resp.Status, Body: resp.Body}
	}
	res := &domain.Result{Status: resp.Status, Header: resp.Header, Body: resp.Body}
	if !encrypted || len(resp.Body) == 0 {
		return res, nil
	}
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}

	sealed, err := base64.StdEncoding.DecodeString(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecrypt, err)
	}
	plain, err := crypto.Open(sess.SharedKey, sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecrypt, err)
	}
	res.Body = plain
	return res, nil
}

func encodeBody(req domain.Request) ([]byte, string, error) {
	switch {
	case req.JSONBody != nil && req.RawBody != nil:
		return nil, "", fmt.Errorf("request has both JSON and raw bodies")
	case req.JSONBody != nil:
		b, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return b, contentJSON, nil
	case req.RawBody != nil:
		return req.RawBody, contentRaw, nil
	default:
		return nil, "", nil
	}
}
