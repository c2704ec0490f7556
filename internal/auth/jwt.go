package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of issued tokens. There is no
// revocation: a token stays valid until expiry even if the account's role
// changes afterwards.
const TokenTTL = time.Hour

const tokenIssuer = "dune-server"

// Errors returned by the token service.
var (
	ErrNoSecret     = errors.New("jwt secret is not configured")
	ErrTokenInvalid = errors.New("missing, malformed or expired token")
	ErrForbidden    = errors.New("insufficient permissions")
)

// Claims is the verified payload carried by a token: subject identity plus
// the role copied from the account at issuance time.
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256-signed bearer tokens with a
// process-wide secret key.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager returns a manager for the given secret. An empty secret is
// a configuration error and refused up front.
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    TokenTTL,
	}, nil
}

// Issue creates a signed token for the account with the fixed expiry window.
func (tm *TokenManager) Issue(account *Account) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: account.Username,
		Role:     account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   account.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate checks the token signature and expiry and returns the decoded
// claims. Any failure collapses to ErrTokenInvalid.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// RequireRole checks that the claims satisfy the required role. Admins
// satisfy every requirement; users only RoleUser.
func (tm *TokenManager) RequireRole(claims *Claims, role Role) error {
	if claims == nil {
		return ErrTokenInvalid
	}
	if claims.Role == RoleAdmin || claims.Role == role {
		return nil
	}
	return ErrForbidden
}
