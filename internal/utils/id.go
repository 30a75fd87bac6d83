package utils

import (
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength   = 16
)

// NewID returns a url-safe connection identifier.
func NewID() string {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err == nil {
		return id
	}

	// Fallback to timestamp if the random source is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
