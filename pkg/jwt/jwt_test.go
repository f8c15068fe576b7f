package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	id := uuid.New()

	signed, err := GenerateToken(id, "Quartermaster", []string{"good:view"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "Quartermaster", claims.Name)
	assert.Equal(t, []string{"good:view"}, claims.Privileges)
}

func TestValidateToken_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	expired, err := GenerateToken(uuid.New(), "Clerk", nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with another secret
	t.Setenv("JWT_SECRET", "other-secret")
	foreign, err := GenerateToken(uuid.New(), "Clerk", nil, time.Hour)
	require.NoError(t, err)
	t.Setenv("JWT_SECRET", "test-secret")
	_, err = ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong issuer
	stranger := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := stranger.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
