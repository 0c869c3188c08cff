package auth

import (
	"fmt"
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// Claims identify the caller of a request
type Claims struct {
	UserID string
	Role   types.Role
}

// TokenValidator checks HS256 bearer tokens signed with the configured secret
type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(cfg *config.Configuration) *TokenValidator {
	return &TokenValidator{secret: []byte(cfg.Auth.Secret)}
}

// ValidateToken parses token and returns its claims. Tokens without a role claim
// belong to customers.
func (v *TokenValidator) ValidateToken(token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrUnauthenticated)
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrUnauthenticated)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthenticated)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthenticated)
	}

	role := types.RoleCustomer
	if r, ok := claims["role"].(string); ok && types.Role(r) == types.RoleAdmin {
		role = types.RoleAdmin
	}

	return &Claims{UserID: userID, Role: role}, nil
}

// GenerateToken signs a token for userID valid for ttl
func (v *TokenValidator) GenerateToken(userID string, role types.Role, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
