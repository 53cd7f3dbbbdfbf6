package main

import (
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const tokenBytes = 32

func newID() string {
	return uuid.NewString()
}

// newToken returns an opaque URL-safe session token. It falls back to a random
// UUID if the system random source fails.
func newToken() string {
	raw := securecookie.GenerateRandomKey(tokenBytes)
	if raw == nil {
		return uuid.NewString() + uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}
