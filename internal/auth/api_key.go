package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/types"
)

// HashAPIKey creates a SHA-256 hash of the API key
func HashAPIKey(key string) string {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateAPIKey generates a new API key
// The key is returned in its raw form, it should be hashed before storing in config
func GenerateAPIKey() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return hex.EncodeToString(key)
}

// ValidateAPIKey looks the key up in the configuration and returns the user it
// belongs to. API keys are issued to operators, so every valid key acts as an admin.
func ValidateAPIKey(cfg *config.Configuration, key string) (*Claims, bool) {
	details, exists := cfg.Auth.APIKey.Keys[HashAPIKey(key)]
	if !exists || !details.IsActive || details.UserID == "" {
		return nil, false
	}
	return &Claims{UserID: details.UserID, Role: types.RoleAdmin}, true
}
