package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/pkg/auth"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
	"github.com/casacaminho/shelter-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	RehashLegacy(ctx context.Context) (int, error)
}

type Service struct {
	users  repository.UserRepository
	jwtSvc auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:  users,
		jwtSvc: jwtSvc,
		hasher: hasher,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, apperrors.Invalid("name and email are required", nil)
	}

	role := model.UserRoleStaff
	switch model.UserRole(req.Role) {
	case "":
	case model.UserRoleAdmin, model.UserRoleStaff:
		role = model.UserRole(req.Role)
	default:
		return nil, apperrors.Invalid("role must be admin or staff", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Invalid("password must have at least 8 characters", err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Base:         model.NewBase(time.Now()),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(role)).Msg("User registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	secret := req.Secret()
	if req.Email == "" || secret == "" {
		return nil, apperrors.Invalid("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials.Error(), err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, secret); err != nil {
		if errors.Is(err, security.ErrNotHashed) {
			log.Warn().Str("user_id", user.ID.String()).Msg("Login refused for legacy credential; run rehash-passwords")
		}
		return nil, apperrors.Unauthorized(ErrInvalidCredentials.Error(), err)
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// RehashLegacy replaces every stored plaintext credential with its bcrypt hash and
// returns how many rows changed.
func (s *Service) RehashLegacy(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, u := range users {
		if u.PasswordHash == "" || security.IsBcryptHash(u.PasswordHash) {
			continue
		}
		hash, err := s.hasher.Rehash(u.PasswordHash)
		if err != nil {
			return n, err
		}
		if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return n, err
		}
		log.Info().Str("user_id", u.ID.String()).Msg("Legacy credential rehashed")
		n++
	}
	return n, nil
}
