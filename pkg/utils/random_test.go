package utils

import (
	"encoding/base64"
	"testing"
)

func TestGenerateStateToken(t *testing.T) {
	token, err := GenerateStateToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 random bytes, got %d", len(raw))
	}

	other, err := GenerateStateToken(32)
	if err != nil {
		t.Fatalf("generate second: %v", err)
	}
	if token == other {
		t.Fatal("two state tokens collided")
	}
}
