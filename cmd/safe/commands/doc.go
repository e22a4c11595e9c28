// Package commands defines the safe CLI and wires dependencies for subcommands.
//
// Commands
//
//   - auth       Handshake with the launcher unless the saved session is valid
//   - status     Probe the saved session
//   - logout     Revoke the token and clear the session
//   - nfs ...    mkdir, ls, rmdir, touch, write, cat, rm
//   - dns ...    names, create, register, services, ls, get
//
// # Implementation
//
// The root command loads configuration, builds the dependency graph and
// restores the saved session before any subcommand runs. Commands that need a
// session obtain one on first use. The session is saved again afterwards.
package commands
