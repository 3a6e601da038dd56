package stay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

// StayService is the read side of the stay ledger. Stays are opened and ended by
// the placement service.
type StayService interface {
	List(ctx context.Context, filters *model.StayFilters) ([]*model.Stay, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Stay, error)
}

type Service struct {
	stays repository.StayRepository
}

func NewService(stays repository.StayRepository) *Service {
	return &Service{stays: stays}
}

func (s *Service) List(ctx context.Context, filters *model.StayFilters) ([]*model.Stay, error) {
	if filters != nil {
		switch filters.Status {
		case "", model.StayStatusActive, model.StayStatusEnded:
		default:
			return nil, apperrors.Invalid(fmt.Sprintf("invalid stay status %q", filters.Status), nil)
		}
	}
	stays, err := s.stays.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return stays, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Stay, error) {
	stay, err := s.stays.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("stay", err)
		}
		return nil, apperrors.Internal(err)
	}
	return stay, nil
}
