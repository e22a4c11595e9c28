package launcher

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"safeclient/internal/crypto"
	"safeclient/internal/domain"
)

// seedSize is the length of the nonce seed appended to the shared key.
const seedSize = domain.NonceSize

const maxRequestBody = 16 << 20

// Approver decides whether an application is granted access. It stands in for
// the human prompt of a real launcher and may block.
type Approver func(app domain.AppIdentity, perms []domain.Permission) bool

// AllowAll approves every application.
func AllowAll(domain.AppIdentity, []domain.Permission) bool { return true }

type grant struct {
	token string
	app   domain.AppIdentity
	perms []domain.Permission
	key   domain.SharedKey
}

// Server is an in-memory launcher.
type Server struct {
	mu     sync.RWMutex
	grants map[string]*grant

	approve    Approver
	handshakes atomic.Int64
	requests   atomic.Int64

	drive *drive
	names *registry

	log zerolog.Logger
	mux *http.ServeMux
}

type Option func(*Server)

func WithApprover(a Approver) Option { return func(s *Server) { s.approve = a } }

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

// New returns a launcher with empty storage that approves everything unless
// told otherwise.
func New(opts ...Option) *Server {
	s := &Server{
		grants:  make(map[string]*grant),
		approve: AllowAll,
		drive:   newDrive(),
		names:   newRegistry(),
		log:     zerolog.Nop(),
		mux:     http.NewServeMux(),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /auth", s.handleHandshake)
	s.mux.HandleFunc("GET /auth", s.authed(s.handleStatus))
	s.mux.HandleFunc("DELETE /auth", s.authed(s.handleRevoke))
	s.nfsRoutes()
	s.dnsRoutes()
}

// ServeHTTP logs method, path, status and duration for each request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.mux.ServeHTTP(rec, r)
	s.log.Info().
		Str("method", r.Method).
		Str("path", r.URL.EscapedPath()).
		Str("remote", r.RemoteAddr).
		Int("status", rec.status).
		Int("bytes", rec.bytes).
		Dur("took", time.Since(start)).
		Msg("request")
}

// Handshakes counts POST /auth requests received.
func (s *Server) Handshakes() int64 { return s.handshakes.Load() }

// Requests counts every request received.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Revoke forgets a token, as if the user removed the app in the launcher.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	delete(s.grants, token)
	s.mu.Unlock()
}

// RevokeAll forgets every token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.grants = make(map[string]*grant)
	s.mu.Unlock()
}

func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	s.handshakes.Add(1)

	var req domain.HandshakeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, -1, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, -1, "malformed handshake: "+err.Error())
		return
	}
	if req.Permissions == nil {
		writeError(w, http.StatusBadRequest, -2, "permissions array is required")
		return
	}
	if !req.App.Complete() {
		writeError(w, http.StatusBadRequest, -3, "app name, id, version and vendor are required")
		return
	}
	rawPub, err := crypto.UnB64(req.PublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, -4, "publicKey is not base64")
		return
	}
	clientPub, err := domain.ParseBoxPublic(rawPub)
	if err != nil {
		writeError(w, http.StatusBadRequest, -4, err.Error())
		return
	}
	rawNonce, err := crypto.UnB64(req.Nonce)
	if err != nil {
		writeError(w, http.StatusBadRequest, -5, "nonce is not base64")
		return
	}
	nonce, err := domain.ParseNonce(rawNonce)
	if err != nil {
		writeError(w, http.StatusBadRequest, -5, err.Error())
		return
	}

	if !s.approve(req.App, req.Permissions) {
		writeError(w, http.StatusUnauthorized, -6, "access denied")
		return
	}

	key, err := crypto.NewSharedKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, -7, err.Error())
		return
	}
	seed, err := crypto.NewNonce()
	if err != nil {
		writeError(w, http.StatusInternalServerError, -7, err.Error())
		return
	}
	ours, err := crypto.GenerateKeyPair()
	if err != nil {
		writeError(w, http.StatusInternalServerError, -7, err.Error())
		return
	}

	material := append(key[:], seed[:]...)
	sealed := crypto.SealBox(material, nonce, clientPub, ours.Private)

	g := &grant{token: uuid.NewString(), app: req.App, perms: req.Permissions, key: key}
	s.mu.Lock()
	s.grants[g.token] = g
	s.mu.Unlock()

	s.log.Info().Str("app", req.App.ID).Msg("granted access")
	writeJSON(w, http.StatusOK, domain.HandshakeResponse{
		Token:        g.token,
		EncryptedKey: crypto.B64(sealed),
		PublicKey:    crypto.B64(ours.Public[:]),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, _ *grant, _ []byte) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRevoke(w http.ResponseWriter, _ *http.Request, g *grant, _ []byte) {
	s.Revoke(g.token)
	w.WriteHeader(http.StatusOK)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, g *grant, body []byte)

// authed resolves the bearer token and opens an encrypted request body.
// Unknown tokens get 401.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, -100, "missing token")
			return
		}
		s.mu.RLock()
		g := s.grants[token]
		s.mu.RUnlock()
		if g == nil {
			writeError(w, http.StatusUnauthorized, -101, "unknown token")
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, -105, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, -102, err.Error())
			return
		}
		var body []byte
		if len(raw) > 0 {
			sealed, err := base64.StdEncoding.DecodeString(string(raw))
			if err != nil {
				writeError(w, http.StatusBadRequest, -103, "body is not base64")
				return
			}
			if body, err = crypto.Open(g.key, sealed); err != nil {
				writeError(w, http.StatusBadRequest, -104, "body failed to decrypt")
				return
			}
		}
		h(w, r, g, body)
	}
}

// replySealed encrypts plain for g and writes it with status 200.
func replySealed(w http.ResponseWriter, g *grant, plain []byte) {
	sealed, err := crypto.Seal(g.key, plain)
	if err != nil {
		writeError(w, http.StatusInternalServerError, -7, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(base64.StdEncoding.EncodeToString(sealed)))
}

func replySealedJSON(w http.ResponseWriter, g *grant, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, -7, err.Error())
		return
	}
	replySealed(w, g, b)
}

func tooLarge(err error) bool {
	var mb *http.MaxBytesError
	return errors.As(err, &mb)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, domain.ErrorBody{ErrorCode: code, Description: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
