package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
	"github.com/casacaminho/shelter-api/pkg/auth"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
	"github.com/casacaminho/shelter-api/pkg/security"
)

func setup(t *testing.T) (*Service, *memory.Store, auth.JWTService) {
	t.Helper()
	store := memory.NewStore()
	jwtSvc := auth.NewJWTService("test-secret", "shelter-api", time.Hour)
	return NewService(store.Users(), jwtSvc, security.NewBcryptHasher(bcrypt.MinCost)), store, jwtSvc
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, jwtSvc := setup(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{Name: "Ana", Email: "Ana@Casa.org", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@casa.org", user.Email)
	assert.Equal(t, model.UserRoleStaff, user.Role)
	assert.True(t, security.IsBcryptHash(user.PasswordHash))

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "ana@casa.org", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := jwtSvc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, model.UserRoleStaff, claims.Role)

	// The admin frontend posts "senha".
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "ana@casa.org", Senha: "segredo123"})
	require.NoError(t, err)
}

func TestRegister_Errors(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, &model.RegisterRequest{Name: "Ana", Email: "ana@casa.org", Password: "segredo123", Role: "admin"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *model.RegisterRequest
		code apperrors.ErrorCode
	}{
		{"duplicate email", &model.RegisterRequest{Name: "Ana 2", Email: "ANA@casa.org", Password: "segredo123"}, apperrors.ErrConflict},
		{"short password", &model.RegisterRequest{Name: "Bia", Email: "bia@casa.org", Password: "123"}, apperrors.ErrInvalid},
		{"bad role", &model.RegisterRequest{Name: "Bia", Email: "bia@casa.org", Password: "segredo123", Role: "root"}, apperrors.ErrInvalid},
		{"missing name", &model.RegisterRequest{Email: "bia@casa.org", Password: "segredo123"}, apperrors.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, &model.RegisterRequest{Name: "Ana", Email: "ana@casa.org", Password: "segredo123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "ana@casa.org", Password: "errada123"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "ninguem@casa.org", Password: "segredo123"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "ana@casa.org"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))
}

func TestLegacyCredential_RejectedUntilRehashed(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	legacy := &model.User{Name: "Antigo", Email: "antigo@casa.org", PasswordHash: "1234", Role: model.UserRoleAdmin}
	require.NoError(t, store.Users().Create(ctx, legacy))

	_, err := svc.Login(ctx, &model.LoginRequest{Email: "antigo@casa.org", Password: "1234"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))

	n, err := svc.RehashLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "antigo@casa.org", Password: "1234"})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleAdmin, resp.User.Role)

	n, err = svc.RehashLegacy(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
