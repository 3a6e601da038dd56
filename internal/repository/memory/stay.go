package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

type stayRepository struct {
	s *Store
}

func (r *stayRepository) Create(ctx context.Context, stay *model.Stay) error {
	defer r.s.lock()()

	if _, ok := r.s.t.patients[stay.PatientID]; !ok {
		return fmt.Errorf("failed to create stay: unknown patient %s", stay.PatientID)
	}
	if stay.ID == uuid.Nil {
		stay.ID = uuid.New()
	}
	if stay.Status == "" {
		stay.Status = model.StayStatusActive
	}
	if stay.Status == model.StayStatusActive {
		for _, other := range r.s.t.stays {
			if other.Status != model.StayStatusActive {
				continue
			}
			sameRoom := stay.RoomID != nil && other.RoomID != nil && *stay.RoomID == *other.RoomID
			if other.PatientID == stay.PatientID || sameRoom {
				return fmt.Errorf("create stay: %w", repository.ErrDuplicate)
			}
		}
	}
	now := time.Now().UTC()
	stay.CreatedAt = now
	stay.UpdatedAt = now
	r.s.t.stays[stay.ID] = *stay
	r.s.t.stamp(stay.ID)
	return nil
}

func (r *stayRepository) Get(ctx context.Context, id uuid.UUID) (*model.Stay, error) {
	defer r.s.lock()()

	st, ok := r.s.t.stays[id]
	if !ok {
		return nil, fmt.Errorf("get stay: %w", repository.ErrNotFound)
	}
	return &st, nil
}

func (r *stayRepository) filter(keep func(model.Stay) bool) []*model.Stay {
	stays := []*model.Stay{}
	for _, st := range r.s.t.stays {
		if keep(st) {
			st := st
			stays = append(stays, &st)
		}
	}
	return stays
}

func (r *stayRepository) List(ctx context.Context, filters *model.StayFilters) ([]*model.Stay, error) {
	defer r.s.lock()()

	stays := r.filter(func(st model.Stay) bool {
		if filters == nil {
			return true
		}
		if filters.Status != "" && st.Status != filters.Status {
			return false
		}
		return filters.PatientID == nil || st.PatientID == *filters.PatientID
	})
	sort.Slice(stays, func(i, j int) bool {
		if !stays[i].EntryDate.Equal(stays[j].EntryDate.Time) {
			return stays[i].EntryDate.After(stays[j].EntryDate.Time)
		}
		return r.s.t.seq[stays[i].ID] > r.s.t.seq[stays[j].ID]
	})
	return stays, nil
}

func (r *stayRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	defer r.s.lock()()

	st, ok := r.s.t.stays[id]
	if !ok || st.Status != model.StayStatusActive {
		return fmt.Errorf("end stay: %w", repository.ErrNotFound)
	}
	ended := endedAt
	st.Status = model.StayStatusEnded
	st.EndedAt = &ended
	st.UpdatedAt = endedAt
	r.s.t.stays[id] = st
	return nil
}

func (r *stayRepository) findActive(op string, match func(model.Stay) bool) (*model.Stay, error) {
	defer r.s.lock()()

	for _, st := range r.s.t.stays {
		if st.Status == model.StayStatusActive && match(st) {
			return &st, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func (r *stayRepository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*model.Stay, error) {
	return r.findActive("find active stay by room", func(st model.Stay) bool {
		return st.RoomID != nil && *st.RoomID == roomID
	})
}

func (r *stayRepository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.Stay, error) {
	return r.findActive("find active stay by patient", func(st model.Stay) bool {
		return st.PatientID == patientID
	})
}

func (r *stayRepository) Upcoming(ctx context.Context, from model.Date, limit int) ([]*model.Stay, error) {
	defer r.s.lock()()

	stays := r.filter(func(st model.Stay) bool {
		return st.Status == model.StayStatusActive && !st.EntryDate.Before(from.Time)
	})
	sort.Slice(stays, func(i, j int) bool {
		if !stays[i].EntryDate.Equal(stays[j].EntryDate.Time) {
			return stays[i].EntryDate.Before(stays[j].EntryDate.Time)
		}
		return r.s.t.seq[stays[i].ID] < r.s.t.seq[stays[j].ID]
	})
	if limit > 0 && len(stays) > limit {
		stays = stays[:limit]
	}
	return stays, nil
}
