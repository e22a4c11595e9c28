// Package dns is the client for the launcher's naming endpoints.
//
// A long name is owned by the application that created it and maps service
// names to directories in that application's drive.
package dns
