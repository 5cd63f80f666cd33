package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ksred/pageturn-api/internal/types"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenGeneration = errors.New("failed to generate token")
)

// Claims represents the JWT claims issued to marketplace users
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Service mints and validates bearer tokens. Identity itself lives upstream.
type Service struct {
	jwtSecret []byte
}

// NewService creates a new authentication service with the given JWT secret
func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
	}
}

// GenerateToken signs a token for the user valid for ttl
func (s *Service) GenerateToken(userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrTokenGeneration
	}
	if role == "" {
		role = types.RoleUser
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", ErrTokenGeneration
	}

	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Actor converts validated claims into the caller identity used by services
func (c *Claims) Actor() types.Actor {
	return types.Actor{ID: c.UserID, Role: c.Role}
}
