package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewAccessToken returns an unguessable token for customer RFQ links.
func NewAccessToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ShortID returns the first n hex characters of a fresh UUID.
func ShortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(id) {
		return id
	}
	return id[:n]
}
