// Package nfs is the client for the launcher's storage endpoints.
package nfs
