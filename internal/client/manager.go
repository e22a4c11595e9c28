package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"safeclient/internal/auth"
	"safeclient/internal/codec"
	"safeclient/internal/domain"
	"safeclient/internal/session"
)

// DefaultRequestTimeout bounds one ordinary request round trip.
const DefaultRequestTimeout = 30 * time.Second

const flightKey = "handshake"

// Manager owns the session and is the single entry point for launcher calls.
//
// Concurrency:
//   - At most one handshake is in flight per Manager; concurrent EnsureValid
//     callers wait on the same attempt.
//   - The attempt is detached from the cancellation of whichever caller
//     started it and is bounded by the handshake timeout instead.
//   - Ordinary requests run independently, each under its own timeout.
type Manager struct {
	transport  domain.Transport
	handshaker domain.Handshaker
	store      *session.Store
	codec      *codec.Codec

	app   domain.AppIdentity
	perms []domain.Permission
	keys  *domain.HandshakeKeys

	handshakeTimeout time.Duration
	requestTimeout   time.Duration

	flight singleflight.Group
	log    zerolog.Logger
}

type Option func(*Manager)

// WithLogger sets the logger. Tokens and keys are never logged.
func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithStore shares an existing session store.
func WithStore(s *session.Store) Option { return func(m *Manager) { m.store = s } }

// WithCodec replaces the request codec.
func WithCodec(c *codec.Codec) Option { return func(m *Manager) { m.codec = c } }

// WithHandshakeKeys supplies the key pair and nonce for the first handshake.
// Later handshakes generate fresh ones, since a handshake nonce is single-use.
func WithHandshakeKeys(k domain.HandshakeKeys) Option {
	return func(m *Manager) { m.keys = &k }
}

// WithTimeouts overrides the handshake and per-request timeouts. Non-positive
// values keep the defaults.
func WithTimeouts(handshake, request time.Duration) Option {
	return func(m *Manager) {
		if handshake > 0 {
			m.handshakeTimeout = handshake
		}
		if request > 0 {
			m.requestTimeout = request
		}
	}
}

// New returns a Manager with no session. A nil perms is sent as an empty list.
func New(
	t domain.Transport,
	h domain.Handshaker,
	app domain.AppIdentity,
	perms []domain.Permission,
	opts ...Option,
) *Manager {
	if perms == nil {
		perms = []domain.Permission{}
	}
	m := &Manager{
		transport:        t,
		handshaker:       h,
		store:            session.NewStore(),
		codec:            codec.New(),
		app:              app,
		perms:            append([]domain.Permission(nil), perms...),
		handshakeTimeout: auth.DefaultTimeout,
		requestTimeout:   DefaultRequestTimeout,
		log:              zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Authenticated reports whether a session is installed. It does not ask the
// launcher; see IsValid.
func (m *Manager) Authenticated() bool { return m.store.Authenticated() }

// Session returns a copy of the installed session.
func (m *Manager) Session() (domain.Material, bool) { return m.store.Current() }

// IsValid asks the launcher whether the current token is still accepted.
// Without a token it answers false without any network call. A 401 is a
// definite false; every other failure is returned as an error.
func (m *Manager) IsValid(ctx context.Context) (bool, error) {
	sess, ok := m.store.Current()
	if !ok {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	wire, err := m.codec.Wrap(domain.Request{
		Method:       http.MethodGet,
		Path:         auth.Path,
		RequiresAuth: true,
	}, &sess)
	if err != nil {
		return false, err
	}
	resp, err := m.transport.Do(ctx, wire)
	if err != nil {
		return false, err
	}
	if _, err := m.codec.Unwrap(resp, false, &sess); err != nil {
		if domain.IsUnauthorized(err) {
			m.log.Debug().Msg("session: token rejected by launcher")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureValid makes sure a launcher-accepted session is installed, running a
// handshake only when the current one is missing or rejected. Concurrent
// callers share one attempt. A caller whose ctx ends stops waiting and gets
// ctx.Err(); the attempt carries on for the others.
func (m *Manager) EnsureValid(ctx context.Context) error {
	detached := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(flightKey, func() (any, error) {
		return nil, m.refresh(detached)
	})
	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh is the unit run under the singleflight key: probe, then
// Clear + Perform + Install when the probe says no.
func (m *Manager) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.handshakeTimeout)
	defer cancel()

	valid, err := m.IsValid(ctx)
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	m.store.Clear()
	keys := m.keys
	m.keys = nil

	m.log.Info().Str("app", m.app.ID).Msg("session: requesting authorization")
	mat, err := m.handshaker.Perform(ctx, m.app, m.perms, keys)
	if err != nil {
		m.log.Warn().Err(err).Msg("session: handshake failed")
		return err
	}
	m.store.Install(mat)
	m.log.Info().Msg("session: authorized")
	return nil
}

// Execute sends one request. A request that needs a session triggers
// EnsureValid when none is installed; an installed session is used as is and
// a 401 is returned to the caller as an *domain.APIError.
func (m *Manager) Execute(ctx context.Context, req domain.Request) (*domain.Result, error) {
	needsSession := req.RequiresAuth || req.RequiresEncryption
	if needsSession && !m.store.Authenticated() {
		if err := m.EnsureValid(ctx); err != nil {
			return nil, err
		}
	}

	var sess *domain.Material
	if cur, ok := m.store.Current(); ok && needsSession {
		sess = &cur
	}

	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	log := m.log.With().
		Str("req", uuid.NewString()).
		Str("method", req.Method).
		Str("path", req.Path).
		Logger()

	wire, err := m.codec.Wrap(req, sess)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	resp, err := m.transport.Do(ctx, wire)
	if err != nil {
		log.Debug().Err(err).Msg("request failed")
		return nil, err
	}
	log.Debug().Int("status", resp.Status).Dur("took", time.Since(started)).Msg("request")

	return m.codec.Unwrap(resp, req.RequiresEncryption, sess)
}

// ExecuteJSON runs Execute and decodes the JSON result into out.
func (m *Manager) ExecuteJSON(ctx context.Context, req domain.Request, out any) error {
	req.Response = domain.ResponseJSON
	res, err := m.Execute(ctx, req)
	if err != nil {
		return err
	}
	return res.Decode(out)
}

// Logout revokes the token with the launcher and clears the session. A 401
// still clears; other failures leave the session in place.
func (m *Manager) Logout(ctx context.Context) error {
	sess, ok := m.store.Current()
	if !ok {
		m.store.Clear()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	wire, err := m.codec.Wrap(domain.Request{
		Method:       http.MethodDelete,
		Path:         auth.Path,
		RequiresAuth: true,
	}, &sess)
	if err != nil {
		return err
	}
	resp, err := m.transport.Do(ctx, wire)
	if err != nil {
		return err
	}
	if _, err := m.codec.Unwrap(resp, false, &sess); err != nil && !domain.IsUnauthorized(err) {
		return err
	}
	m.store.Clear()
	m.log.Info().Msg("session: logged out")
	return nil
}

// Snapshot serializes the current session; see session.Marshal.
func (m *Manager) Snapshot() (string, error) { return m.store.Marshal() }

// LoadSnapshot installs a previously saved session. A malformed snapshot is
// treated as no usable session: the store is cleared and nil returned, so the
// next call that needs a session runs a handshake.
func (m *Manager) LoadSnapshot(text string) error {
	err := m.store.Unmarshal(text)
	if errors.Is(err, domain.ErrConfig) {
		m.log.Warn().Err(err).Msg("session: discarding unusable snapshot")
		m.store.Clear()
		return nil
	}
	return err
}
