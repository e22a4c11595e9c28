// Package store persists the session snapshot between runs of the CLI.
//
// Files are replaced atomically (temp file + rename) with mode 0600. When a
// passphrase is configured the snapshot is sealed with a key derived by
// scrypt.
package store
