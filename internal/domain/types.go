package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AppIdentity describes the calling application. The launcher shows it to the
// user when asking for approval.
type AppIdentity struct {
	Name    string `json:"name" mapstructure:"name"`
	ID      string `json:"id" mapstructure:"id"`
	Version string `json:"version" mapstructure:"version"`
	Vendor  string `json:"vendor" mapstructure:"vendor"`
}

// Complete reports whether every field is set.
func (a AppIdentity) Complete() bool {
	return a.Name != "" && a.ID != "" && a.Version != "" && a.Vendor != ""
}

// Permission is a capability tag requested at handshake time.
type Permission string

const PermissionSafeDriveAccess Permission = "SAFE_DRIVE_ACCESS"

// HandshakeRequest is the JSON body of POST /auth. Permissions is never nil on
// the wire: the launcher rejects a missing array.
type HandshakeRequest struct {
	App         AppIdentity  `json:"app"`
	Permissions []Permission `json:"permissions"`
	PublicKey   string       `json:"publicKey"`
	Nonce       string       `json:"nonce"`
}

// HandshakeResponse is returned by POST /auth once the user approves.
type HandshakeResponse struct {
	Token        string `json:"token"`
	EncryptedKey string `json:"encryptedKey"`
	PublicKey    string `json:"publicKey"`
}

// ResponseShape tells the codec what the caller expects back.
type ResponseShape int

const (
	ResponseNone ResponseShape = iota
	ResponseJSON
	ResponseRaw
)

func (s ResponseShape) String() string {
	switch s {
	case ResponseJSON:
		return "json"
	case ResponseRaw:
		return "raw"
	default:
		return "none"
	}
}

// Request is the descriptor collaborators hand to the session client.
//
// At most one of JSONBody and RawBody should be set. RequiresEncryption and
// RequiresAuth are independent: the handshake, the status probe and public DNS
// content need neither.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	JSONBody any
	RawBody  []byte

	RequiresEncryption bool
	RequiresAuth       bool

	Response ResponseShape
}

// Result is a decoded, decrypted launcher response.
type Result struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals a JSON body into out.
func (r *Result) Decode(out any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// TransportRequest is what goes on the wire. Path is already escaped.
type TransportRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// TransportResponse is a complete response; the body has been read in full.
type TransportResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Success reports a 2xx status.
func (r *TransportResponse) Success() bool { return r.Status/100 == 2 }
