package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the identity carried by a session token.
type SessionClaims struct {
	UserID     uuid.UUID
	Role       string
	Email      string
	CustomerID uuid.UUID
}

type jwtCustomClaims struct {
	Role       string `json:"role"`
	Email      string `json:"email"`
	CustomerID string `json:"customer_id"`
	jwt.RegisteredClaims
}

// JWTSigner signs and verifies HS256 session tokens.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTSigner constructs a JWTSigner. A zero ttl issues tokens without exp.
func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	return &JWTSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign creates a signed JWT for the provided claims.
func (s *JWTSigner) Sign(claims SessionClaims) (string, error) {
	now := s.now()
	registered := jwt.RegisteredClaims{
		Subject:  claims.UserID.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtCustomClaims{
		Role:             claims.Role,
		Email:            claims.Email,
		CustomerID:       claims.CustomerID.String(),
		RegisteredClaims: registered,
	})
	return token.SignedString(s.secret)
}

// Verify validates the token signature and expiry and returns its claims.
func (s *JWTSigner) Verify(tokenString string) (SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return SessionClaims{}, err
	}

	custom, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(custom.Subject)
	if err != nil {
		return SessionClaims{}, errors.Join(jwt.ErrTokenInvalidSubject, err)
	}
	customerID, err := uuid.Parse(custom.CustomerID)
	if err != nil {
		return SessionClaims{}, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}

	return SessionClaims{
		UserID:     userID,
		Role:       custom.Role,
		Email:      custom.Email,
		CustomerID: customerID,
	}, nil
}
