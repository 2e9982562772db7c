package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSigner_RoundTrip(t *testing.T) {
	signer := NewJWTSigner("secret", time.Hour)
	claims := SessionClaims{UserID: uuid.New(), Role: "admin", Email: "ada@example.com", CustomerID: uuid.New()}

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}

func TestJWTSigner_RejectsExpiredToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	signer := NewJWTSigner("secret", time.Hour)
	signer.now = func() time.Time { return issued }

	token, err := signer.Sign(SessionClaims{UserID: uuid.New(), CustomerID: uuid.New()})
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTSigner_RejectsForeignSignature(t *testing.T) {
	token, err := NewJWTSigner("other", time.Hour).Sign(SessionClaims{UserID: uuid.New(), CustomerID: uuid.New()})
	require.NoError(t, err)

	_, err = NewJWTSigner("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestJWTSigner_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString()})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTSigner("secret", time.Hour).Verify(token)
	assert.Error(t, err)
}
