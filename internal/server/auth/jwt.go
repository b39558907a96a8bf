package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session subject. Session tokens have no exp claim;
// they live as long as the cookie and die when the secret is rotated.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenIssuer signs and verifies HS256 session tokens with a secret
// supplied at construction.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue returns a signed session token for userID.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is not configured", common.ErrInvalidToken)
	}
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", common.ErrInvalidToken)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: userID})

	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return s, nil
}

// Parse verifies tokenString and returns the user id it was issued for.
// Every failure is reported as common.ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is not configured", common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
