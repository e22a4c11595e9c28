// Package client is the session manager: it decides when to handshake, keeps
// the session, and sends every launcher request through the codec.
//
// Collaborators build a domain.Request and call Execute; they never see keys
// or tokens.
package client
