package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateStateToken returns a URL-safe random string used as the OAuth state
// parameter on platform connect redirects.
func GenerateStateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
