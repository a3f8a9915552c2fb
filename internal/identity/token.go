package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the principal in an HS256 access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type ctxKey struct{}

// WithToken attaches a raw access token to ctx for TokenProvider.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// TokenProvider resolves the principal from the access token carried in the
// context, falling back to a default token when the context has none.
type TokenProvider struct {
	secretKey    []byte
	defaultToken string
}

func NewTokenProvider(secretKey []byte, defaultToken string) *TokenProvider {
	return &TokenProvider{secretKey: secretKey, defaultToken: defaultToken}
}

func (p *TokenProvider) PrincipalID(ctx context.Context) (string, error) {
	c, err := p.claims(ctx)
	if err != nil {
		return "", err
	}
	if c.UserID == "" {
		return "", common.ErrorNoPrincipal
	}
	return c.UserID, nil
}

func (p *TokenProvider) PrincipalEmail(ctx context.Context) (string, error) {
	c, err := p.claims(ctx)
	if err != nil {
		return "", err
	}
	if c.Email == "" {
		return "", common.ErrorNoPrincipal
	}
	return c.Email, nil
}

func (p *TokenProvider) claims(ctx context.Context) (*Claims, error) {
	raw := tokenFromContext(ctx)
	if raw == "" {
		raw = p.defaultToken
	}
	if raw == "" {
		return nil, common.ErrorNoPrincipal
	}
	return ParseToken(raw, p.secretKey)
}

func GenerateToken(userID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(secretKey)
}

func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrorInvalidToken
	}

	return claims, nil
}
