package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock()()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.t.users {
		if u.Email == user.Email {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.t.users[user.ID] = *user
	r.s.t.stamp(user.ID)
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer r.s.lock()()

	u, ok := r.s.t.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", repository.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.lock()()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", repository.ErrNotFound)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	defer r.s.lock()()

	u, ok := r.s.t.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", repository.ErrNotFound)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	r.s.t.users[id] = u
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	defer r.s.lock()()

	users := []*model.User{}
	for _, u := range r.s.t.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		return r.s.t.seq[users[i].ID] < r.s.t.seq[users[j].ID]
	})
	return users, nil
}
