// Package session owns the client's session material and its text snapshot.
//
// A Store is either empty (unauthenticated) or holds a complete
// domain.Material: token, shared key and nonce seed are installed and cleared
// together under one lock, and readers always receive a copy.
//
// The snapshot is a small JSON document with base64 binary fields:
//
//	{"token":"...","sharedKey":"<base64>","nonceSeed":"<base64>"}
//
// The empty session is "{}". Marshal and Unmarshal never touch the network.
package session
