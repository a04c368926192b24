// Package ids generates identifiers for users, refresh tokens and stored entities.
package ids

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Length   = 21
)

// New returns a random 21 character identifier over [0-9a-zA-Z]
func New() (string, error) {
	return gonanoid.Generate(Alphabet, Length)
}
