// Package auth verifies the bearer tokens that identify shoppers and staff.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

// ErrInvalidToken is returned for any token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Staff  bool   `json:"staff"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Issue signs an HS256 token for the identity, valid for ttl.
func (a *Authenticator) Issue(id entity.Identity, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("failed to sign token: no secret configured")
	}
	now := time.Now()
	claims := &Claims{
		UserID: id.UserID,
		Staff:  id.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a raw token and returns the identity it carries.
func (a *Authenticator) Parse(raw string) (entity.Identity, error) {
	if len(a.secret) == 0 {
		return entity.Identity{}, fmt.Errorf("%w: no secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID := claims.Subject
	if userID == "" {
		userID = claims.UserID
	}
	if userID == "" {
		return entity.Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return entity.Identity{UserID: userID, IsStaff: claims.Staff}, nil
}

// FromHeader extracts the token from an "Authorization: Bearer <token>" value.
// An empty header yields ok == false.
func FromHeader(header string) (token string, ok bool, err error) {
	if header == "" {
		return "", false, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(token), true, nil
}
