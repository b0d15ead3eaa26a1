package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"groupsched/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type jwtAuth struct {
	secret []byte
}

// NewJWTAuth returns a combined TokenIssuer and TokenVerifier signing
// HS256 JWTs with the given secret.
func NewJWTAuth(secret string) *jwtAuth {
	return &jwtAuth{secret: []byte(secret)}
}

var (
	_ domain.TokenIssuer   = (*jwtAuth)(nil)
	_ domain.TokenVerifier = (*jwtAuth)(nil)
)

func (a *jwtAuth) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (a *jwtAuth) Verify(tokenString string) (*domain.Actor, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return &domain.Actor{UID: claims.Subject, Roles: claims.Roles}, nil
}
