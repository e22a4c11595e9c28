package app

import (
	"github.com/rs/zerolog"

	"safeclient/internal/auth"
	"safeclient/internal/client"
	"safeclient/internal/domain"
	"safeclient/internal/services/dns"
	"safeclient/internal/services/nfs"
	"safeclient/internal/store"
	"safeclient/internal/transport"
)

// Wire bundles the transport, session manager, snapshot file and services
// for the CLI.
type Wire struct {
	Config    Config
	Log       zerolog.Logger
	Transport domain.Transport
	Session   *client.Manager
	Snapshots domain.SnapshotStore
	NFS       *nfs.Service
	DNS       *dns.Service
}

// NewWire validates cfg and constructs the dependency graph from it.
func NewWire(cfg Config, log zerolog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := transport.NewHTTP(cfg.LauncherURL, cfg.HTTP)
	kx := auth.New(t, cfg.HandshakeTimeout, log)
	mgr := client.New(t, kx, cfg.App, cfg.Permissions,
		client.WithLogger(log),
		client.WithTimeouts(cfg.HandshakeTimeout, cfg.RequestTimeout),
	)

	var snaps domain.SnapshotStore
	if cfg.SnapshotPath != "" {
		snaps = store.NewSnapshotFile(cfg.SnapshotPath, cfg.Passphrase)
	}

	return &Wire{
		Config:    cfg,
		Log:       log,
		Transport: t,
		Session:   mgr,
		Snapshots: snaps,
		NFS:       nfs.New(mgr),
		DNS:       dns.New(mgr),
	}, nil
}

// Restore loads the saved session, if any. An unusable snapshot is dropped
// and the next authorized call handshakes again.
func (w *Wire) Restore() error {
	if w.Snapshots == nil {
		return nil
	}
	text, ok, err := w.Snapshots.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return w.Session.LoadSnapshot(text)
}

// Persist saves the current session, or an empty one after logout.
func (w *Wire) Persist() error {
	if w.Snapshots == nil {
		return nil
	}
	text, err := w.Session.Snapshot()
	if err != nil {
		return err
	}
	return w.Snapshots.Save(text)
}
