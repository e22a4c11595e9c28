package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"safeclient/internal/codec"
	"safeclient/internal/crypto"
	"safeclient/internal/domain"
	"safeclient/internal/util/memzero"
)

// Path is the launcher's authorization endpoint: POST runs the handshake, GET
// probes a token, DELETE revokes it.
const Path = "/auth"

// DefaultTimeout leaves room for a human to approve the application.
const DefaultTimeout = 2 * time.Minute

var errShortKeyMaterial = errors.New("decrypted key material too short")

// KeyExchange performs the launcher handshake.
type KeyExchange struct {
	transport domain.Transport
	codec     *codec.Codec
	timeout   time.Duration
	log       zerolog.Logger
}

// New returns a KeyExchange. A non-positive timeout means DefaultTimeout.
func New(t domain.Transport, timeout time.Duration, log zerolog.Logger) *KeyExchange {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &KeyExchange{transport: t, codec: codec.New(), timeout: timeout, log: log}
}

var _ domain.Handshaker = (*KeyExchange)(nil)

// Perform runs one handshake.
//
// Steps:
//  1. Use keys if given, otherwise generate a key pair and handshake nonce.
//  2. POST the app identity, permissions, public key and nonce, unencrypted.
//  3. Open the returned blob with the nonce, the launcher's public key and our
//     private key.
//  4. Split the plaintext into the shared key and the nonce seed.
func (k *KeyExchange) Perform(
	ctx context.Context,
	app domain.AppIdentity,
	perms []domain.Permission,
	keys *domain.HandshakeKeys,
) (domain.Material, error) {
	var hk domain.HandshakeKeys
	if keys != nil {
		if !keys.Valid() {
			return domain.Material{}, domain.ErrInvalidHandshakeKeys
		}
		hk = *keys
	} else {
		fresh, err := crypto.NewHandshakeKeys()
		if err != nil {
			return domain.Material{}, fmt.Errorf("generate handshake keys: %w", err)
		}
		hk = fresh
	}
	defer memzero.Zero(hk.Private[:])

	if perms == nil {
		perms = []domain.Permission{}
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	req, err := k.codec.Wrap(domain.Request{
		Method: http.MethodPost,
		Path:   Path,
		JSONBody: domain.HandshakeRequest{
			App:         app,
			Permissions: perms,
			PublicKey:   crypto.B64(hk.Public[:]),
			Nonce:       crypto.B64(hk.Nonce[:]),
		},
		Response: domain.ResponseJSON,
	}, nil)
	if err != nil {
		return domain.Material{}, err
	}

	k.log.Debug().Str("app", app.ID).Int("permissions", len(perms)).Msg("handshake: waiting for launcher approval")
	started := time.Now()
	resp, err := k.transport.Do(ctx, req)
	if err != nil {
		return domain.Material{}, err
	}
	res, err := k.codec.Unwrap(resp, false, nil)
	if err != nil {
		return domain.Material{}, err
	}

	var hr domain.HandshakeResponse
	if err := json.Unmarshal(res.Body, &hr); err != nil {
		return domain.Material{}, &domain.AuthError{Err: fmt.Errorf("parse handshake response: %w", err)}
	}
	m, err := open(hr, hk)
	if err != nil {
		return domain.Material{}, err
	}
	k.log.Debug().Dur("took", time.Since(started)).Msg("handshake: complete")
	return m, nil
}

func open(hr domain.HandshakeResponse, hk domain.HandshakeKeys) (domain.Material, error) {
	if hr.Token == "" {
		return domain.Material{}, &domain.AuthError{Err: errors.New("handshake response has no token")}
	}
	rawPub, err := crypto.UnB64(hr.PublicKey)
	if err != nil {
		return domain.Material{}, &domain.AuthError{Err: fmt.Errorf("launcher public key: %w", err)}
	}
	serverPub, err := domain.ParseBoxPublic(rawPub)
	if err != nil {
		return domain.Material{}, &domain.AuthError{Err: err}
	}
	blob, err := crypto.UnB64(hr.EncryptedKey)
	if err != nil {
		return domain.Material{}, &domain.AuthError{Err: fmt.Errorf("encrypted key: %w", err)}
	}

	plain, err := crypto.OpenBox(blob, hk.Nonce, serverPub, hk.Private)
	if err != nil {
		return domain.Material{}, &domain.AuthError{Err: fmt.Errorf("open key material: %w", err)}
	}
	defer memzero.Zero(plain)
	if len(plain) <= domain.SharedKeySize {
		return domain.Material{}, &domain.AuthError{Err: errShortKeyMaterial}
	}

	m := domain.Material{Token: hr.Token}
	copy(m.SharedKey[:], plain[:domain.SharedKeySize])
	m.NonceSeed = append([]byte(nil), plain[domain.SharedKeySize:]...)
	return m, nil
}
