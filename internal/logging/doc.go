// Package logging builds the zerolog console logger shared by the CLI, the
// session client and the development launcher.
//
// The runtime profile logs warnings and above; tests log nothing. Both can be
// overridden with SAFE_LOG_LEVEL (trace, debug, info, warn, error, off) and
// SAFE_LOG_NOCOLOR.
package logging
