package domain

import "context"

// Transport performs one request/response exchange with the launcher.
// Failures before a response arrives are returned as *NetworkError.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// Handshaker runs the asymmetric key exchange. keys may be nil.
type Handshaker interface {
	Perform(ctx context.Context, app AppIdentity, perms []Permission, keys *HandshakeKeys) (Material, error)
}

// SnapshotStore persists the textual session snapshot between runs.
type SnapshotStore interface {
	Load() (snapshot string, ok bool, err error)
	Save(snapshot string) error
}

// Executor is the single entry point collaborators send requests through.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
