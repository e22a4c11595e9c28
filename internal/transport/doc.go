// Package transport provides the HTTP implementation of domain.Transport used
// to talk to the local launcher.
//
// A transport performs exactly one exchange per call: it does not interpret
// status codes, encrypt, authenticate or retry. Any failure before a response
// arrives (dial, write, read, context cancellation) is returned as a
// *domain.NetworkError carrying the method and path. Every response, including
// non-2xx ones, is returned in full for the session layer to interpret.
package transport
