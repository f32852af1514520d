// Package idgen generates short, URL-safe identifiers for change events.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// EventPrefix is prepended to every event ID.
const EventPrefix = "ev-"

// Alphabet is the character set of the random part.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters, excluding the prefix.
const Length = 12

// EventID returns a new event identifier.
func EventID() (string, error) {
	return WithPrefix(EventPrefix)
}

// WithPrefix returns a new identifier starting with prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
