package domain

import "bytes"

// Material is the product of a successful handshake. A session store holds
// either a complete Material or nothing.
type Material struct {
	Token     string
	SharedKey SharedKey
	NonceSeed []byte
}

// Clone returns a deep copy so callers never share the seed slice.
func (m Material) Clone() Material {
	m.NonceSeed = append([]byte(nil), m.NonceSeed...)
	return m
}

// Equal compares every field.
func (m Material) Equal(o Material) bool {
	return m.Token == o.Token && m.SharedKey == o.SharedKey && bytes.Equal(m.NonceSeed, o.NonceSeed)
}

// String redacts the material for fmt and loggers.
func (m Material) String() string { return "[SESSION]" }

// GoString redacts %#v as well.
func (m Material) GoString() string { return "[SESSION]" }
