// Package memzero wipes key material held in memory.
package memzero

import "runtime"

// Zero overwrites b with zeros. KeepAlive keeps the writes from being
// dropped as dead stores when b is not read again.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// All zeros each of bs.
func All(bs ...[]byte) {
	for _, b := range bs {
		Zero(b)
	}
}
