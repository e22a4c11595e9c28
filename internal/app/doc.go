// Package app wires application dependencies for the CLI.
//
// LoadConfig merges defaults, safe.yaml, SAFE_* environment variables and
// flags into Config; NewWire builds the transport, session manager, snapshot
// file and services from it, exposing them via the Wire struct.
package app
