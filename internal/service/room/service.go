package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

type RoomService interface {
	Create(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
	List(ctx context.Context, filters *model.RoomFilters) ([]*model.Room, error)
	ListFree(ctx context.Context) ([]*model.Room, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateRoomRequest) (*model.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages the room catalogue. Occupancy changes go through the placement
// service; here status only moves between free and maintenance.
type Service struct {
	store    repository.Store
	onChange func()
}

func NewService(store repository.Store, onChange func()) *Service {
	return &Service{store: store, onChange: onChange}
}

func parseStatus(s string) (model.RoomStatus, error) {
	status := model.RoomStatus(s)
	switch status {
	case model.RoomStatusFree, model.RoomStatusMaintenance:
		return status, nil
	case model.RoomStatusOccupied:
		return "", apperrors.Invalid("rooms become occupied through placement, not by status", nil)
	default:
		return "", apperrors.Invalid(fmt.Sprintf("invalid room status %q", s), nil)
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error) {
	number := strings.TrimSpace(req.Number)
	roomType := strings.TrimSpace(req.Type)
	if number == "" || roomType == "" {
		return nil, apperrors.Invalid("number and type are required", nil)
	}
	status := model.RoomStatusFree
	if req.Status != "" {
		var err error
		if status, err = parseStatus(req.Status); err != nil {
			return nil, err
		}
	}

	room := &model.Room{
		Base:   model.NewBase(time.Now()),
		Number: number,
		Type:   roomType,
		Status: status,
	}
	if err := s.store.Rooms().Create(ctx, room); err != nil {
		return nil, mapErr(err)
	}
	s.changed()
	return room, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	room, err := s.store.Rooms().Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return room, nil
}

func (s *Service) List(ctx context.Context, filters *model.RoomFilters) ([]*model.Room, error) {
	if filters != nil && filters.Status != "" {
		switch filters.Status {
		case model.RoomStatusFree, model.RoomStatusOccupied, model.RoomStatusMaintenance:
		default:
			return nil, apperrors.Invalid(fmt.Sprintf("invalid room status %q", filters.Status), nil)
		}
	}
	rooms, err := s.store.Rooms().List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rooms, nil
}

func (s *Service) ListFree(ctx context.Context) ([]*model.Room, error) {
	return s.List(ctx, &model.RoomFilters{Status: model.RoomStatusFree})
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateRoomRequest) (*model.Room, error) {
	var room *model.Room
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		room, err = tx.Rooms().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Number != nil {
			if room.Number = strings.TrimSpace(*req.Number); room.Number == "" {
				return apperrors.Invalid("number must not be empty", nil)
			}
		}
		if req.Type != nil {
			if room.Type = strings.TrimSpace(*req.Type); room.Type == "" {
				return apperrors.Invalid("type must not be empty", nil)
			}
		}
		if req.Status != nil && model.RoomStatus(*req.Status) != room.Status {
			if room.Status == model.RoomStatusOccupied {
				return apperrors.Conflict("room is occupied; release it first", nil)
			}
			if room.Status, err = parseStatus(*req.Status); err != nil {
				return err
			}
		}
		return tx.Rooms().Update(ctx, room)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	s.changed()
	return room, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.Rooms().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if room.Status == model.RoomStatusOccupied {
			return apperrors.Conflict("cannot delete an occupied room", nil)
		}
		return tx.Rooms().Delete(ctx, id)
	})
	if err != nil {
		return mapErr(err)
	}
	s.changed()
	return nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func mapErr(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("room", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("room number already exists", err)
	default:
		return apperrors.Internal(err)
	}
}
