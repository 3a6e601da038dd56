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

type roomRepository struct {
	s *Store
}

func (r *roomRepository) numberTaken(number string, except uuid.UUID) bool {
	for id, room := range r.s.t.rooms {
		if id != except && room.Number == number {
			return true
		}
	}
	return false
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room) error {
	defer r.s.lock()()

	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if r.numberTaken(room.Number, room.ID) {
		return fmt.Errorf("create room: %w", repository.ErrDuplicate)
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	r.s.t.rooms[room.ID] = *room
	r.s.t.stamp(room.ID)
	return nil
}

func (r *roomRepository) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	defer r.s.lock()()

	room, ok := r.s.t.rooms[id]
	if !ok {
		return nil, fmt.Errorf("get room: %w", repository.ErrNotFound)
	}
	return &room, nil
}

// GetForUpdate needs no row lock here: transactions are already serialized.
func (r *roomRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	return r.Get(ctx, id)
}

func (r *roomRepository) Update(ctx context.Context, room *model.Room) error {
	defer r.s.lock()()

	existing, ok := r.s.t.rooms[room.ID]
	if !ok {
		return fmt.Errorf("update room: %w", repository.ErrNotFound)
	}
	if r.numberTaken(room.Number, room.ID) {
		return fmt.Errorf("update room: %w", repository.ErrDuplicate)
	}
	existing.Number = room.Number
	existing.Type = room.Type
	existing.Status = room.Status
	existing.UpdatedAt = time.Now().UTC()
	r.s.t.rooms[room.ID] = existing
	*room = existing
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.t.rooms[id]; !ok {
		return fmt.Errorf("delete room: %w", repository.ErrNotFound)
	}
	for sid, st := range r.s.t.stays {
		if st.RoomID != nil && *st.RoomID == id {
			st.RoomID = nil
			r.s.t.stays[sid] = st
		}
	}
	delete(r.s.t.rooms, id)
	return nil
}

func (r *roomRepository) sorted(keep func(model.Room) bool) []*model.Room {
	rooms := []*model.Room{}
	for _, room := range r.s.t.rooms {
		if keep(room) {
			room := room
			rooms = append(rooms, &room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Number != rooms[j].Number {
			return rooms[i].Number < rooms[j].Number
		}
		return rooms[i].ID.String() < rooms[j].ID.String()
	})
	return rooms
}

func (r *roomRepository) List(ctx context.Context, filters *model.RoomFilters) ([]*model.Room, error) {
	defer r.s.lock()()

	return r.sorted(func(room model.Room) bool {
		return filters == nil || filters.Status == "" || room.Status == filters.Status
	}), nil
}

func (r *roomRepository) FindFreeForUpdate(ctx context.Context) (*model.Room, error) {
	defer r.s.lock()()

	free := r.sorted(func(room model.Room) bool { return room.Status == model.RoomStatusFree })
	if len(free) == 0 {
		return nil, fmt.Errorf("find free room: %w", repository.ErrNotFound)
	}
	return free[0], nil
}

func (r *roomRepository) Occupy(ctx context.Context, roomID, patientID uuid.UUID, since model.Date) error {
	defer r.s.lock()()

	room, ok := r.s.t.rooms[roomID]
	if !ok || room.Status != model.RoomStatusFree {
		return fmt.Errorf("occupy room %s: %w", roomID, repository.ErrRoomNotFree)
	}
	for id, other := range r.s.t.rooms {
		if id != roomID && other.OccupantID != nil && *other.OccupantID == patientID {
			return fmt.Errorf("occupy room: %w", repository.ErrDuplicate)
		}
	}
	occupant := patientID
	start := since
	room.Status = model.RoomStatusOccupied
	room.OccupantID = &occupant
	room.OccupiedSince = &start
	room.UpdatedAt = time.Now().UTC()
	r.s.t.rooms[roomID] = room
	return nil
}

func (r *roomRepository) Release(ctx context.Context, roomID uuid.UUID) error {
	defer r.s.lock()()

	room, ok := r.s.t.rooms[roomID]
	if !ok {
		return fmt.Errorf("release room: %w", repository.ErrNotFound)
	}
	room.Status = model.RoomStatusFree
	room.OccupantID = nil
	room.OccupiedSince = nil
	room.UpdatedAt = time.Now().UTC()
	r.s.t.rooms[roomID] = room
	return nil
}

func (r *roomRepository) ListByOccupant(ctx context.Context, patientID uuid.UUID) ([]*model.Room, error) {
	defer r.s.lock()()

	return r.sorted(func(room model.Room) bool {
		return room.OccupantID != nil && *room.OccupantID == patientID
	}), nil
}

func (r *roomRepository) Counts(ctx context.Context) (model.RoomCounts, error) {
	defer r.s.lock()()

	var c model.RoomCounts
	for _, room := range r.s.t.rooms {
		c.Total++
		switch room.Status {
		case model.RoomStatusFree:
			c.Free++
		case model.RoomStatusOccupied:
			c.Occupied++
		case model.RoomStatusMaintenance:
			c.Maintenance++
		}
	}
	return c, nil
}
