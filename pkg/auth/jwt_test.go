package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
)

func testUser() *model.User {
	return &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "staff@casacaminho.org",
		Role:  model.UserRoleAdmin,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "shelter-api", time.Hour)
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.UserRoleAdmin, claims.Role)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret", "shelter-api", time.Hour).GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("other", "shelter-api", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewJWTService("secret", "shelter-api", time.Hour).(*hmacService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("secret", "shelter-api", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := NewJWTService("secret", "shelter-api", time.Hour).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
