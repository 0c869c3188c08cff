package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/brewcycle/brewcycle/internal/auth"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

// GenerateNewAPIKey generates a new API key
func GenerateNewAPIKey() error {
	rawKey := auth.GenerateAPIKey()
	hashedKey := auth.HashAPIKey(rawKey)

	userID := os.Getenv("USER_ID")
	details := config.APIKeyDetails{
		UserID:   lo.Ternary(userID == "", types.SystemUserID, userID),
		Name:     "Renewal cron",
		IsActive: true,
	}

	keysMap := map[string]config.APIKeyDetails{
		hashedKey: details,
	}

	jsonBytes, err := json.Marshal(keysMap)
	if err != nil {
		return err
	}

	fmt.Printf("\nNew API Key Generated:\n")
	fmt.Printf("Raw Key (keep this with the scheduler): %s\n", rawKey)
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("Add this to your config.yaml under auth.api_key.keys:\n")
	fmt.Printf("%s:\n", hashedKey)
	fmt.Printf("  user_id: %s\n", details.UserID)
	fmt.Printf("  name: %s\n", details.Name)
	fmt.Printf("  is_active: %v\n", details.IsActive)
	fmt.Printf("\nOr set this environment variable:\n")
	fmt.Printf("BREWCYCLE_AUTH_API_KEY_KEYS='%s'\n", string(jsonBytes))

	return nil
}

// GenerateToken signs a day-long JWT with the configured secret
func GenerateToken() error {
	userID := os.Getenv("USER_ID")
	if userID == "" {
		return fmt.Errorf("USER_ID is required")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	role := types.RoleCustomer
	if os.Getenv("ROLE") == string(types.RoleAdmin) {
		role = types.RoleAdmin
	}

	token, err := auth.NewTokenValidator(cfg).GenerateToken(userID, role, 24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Printf("Bearer %s\n", token)
	return nil
}
