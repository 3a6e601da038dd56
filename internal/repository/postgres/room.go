package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

const roomColumns = `id, number, type, status, occupant_id, occupied_since, created_at, updated_at`

// roomOrder sorts numbers byte-wise whatever the database collation, matching
// the in-memory store.
const roomOrder = ` ORDER BY number COLLATE "C" ASC, id ASC`

type roomRepository struct {
	db sqlx.ExtContext
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.Number,
		room.Type,
		room.Status,
		room.OccupantID,
		room.OccupiedSince,
		room.CreatedAt,
		room.UpdatedAt,
	)
	return wrapErr("create room", err)
}

func (r *roomRepository) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	return r.get(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
}

func (r *roomRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	return r.get(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id)
}

func (r *roomRepository) get(ctx context.Context, query string, id uuid.UUID) (*model.Room, error) {
	var room model.Room
	if err := sqlx.GetContext(ctx, r.db, &room, query, id); err != nil {
		return nil, wrapErr("get room", err)
	}
	return &room, nil
}

// Update writes number, type and status. Occupancy only changes through Occupy and Release.
func (r *roomRepository) Update(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET number = $1, type = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	room.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, room.Number, room.Type, room.Status, room.UpdatedAt, room.ID)
	if err != nil {
		return wrapErr("update room", err)
	}
	return expectRow("update room", res)
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete room", err)
	}
	return expectRow("delete room", res)
}

func (r *roomRepository) List(ctx context.Context, filters *model.RoomFilters) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	var args []interface{}
	if filters != nil && filters.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filters.Status)
	}
	query += roomOrder

	rooms := []*model.Room{}
	if err := sqlx.SelectContext(ctx, r.db, &rooms, query, args...); err != nil {
		return nil, wrapErr("list rooms", err)
	}
	return rooms, nil
}

func (r *roomRepository) FindFreeForUpdate(ctx context.Context) (*model.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE status = 'free'` + roomOrder + `
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var room model.Room
	if err := sqlx.GetContext(ctx, r.db, &room, query); err != nil {
		return nil, wrapErr("find free room", err)
	}
	return &room, nil
}

func (r *roomRepository) Occupy(ctx context.Context, roomID, patientID uuid.UUID, since model.Date) error {
	query := `
		UPDATE rooms
		SET status = 'occupied', occupant_id = $1, occupied_since = $2, updated_at = $3
		WHERE id = $4 AND status = 'free'
	`
	res, err := r.db.ExecContext(ctx, query, patientID, since, time.Now().UTC(), roomID)
	if err != nil {
		return wrapErr("occupy room", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to occupy room: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("occupy room %s: %w", roomID, repository.ErrRoomNotFree)
	}
	return nil
}

func (r *roomRepository) Release(ctx context.Context, roomID uuid.UUID) error {
	query := `
		UPDATE rooms
		SET status = 'free', occupant_id = NULL, occupied_since = NULL, updated_at = $1
		WHERE id = $2
	`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), roomID)
	if err != nil {
		return wrapErr("release room", err)
	}
	return expectRow("release room", res)
}

func (r *roomRepository) ListByOccupant(ctx context.Context, patientID uuid.UUID) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE occupant_id = $1` + roomOrder
	rooms := []*model.Room{}
	if err := sqlx.SelectContext(ctx, r.db, &rooms, query, patientID); err != nil {
		return nil, wrapErr("list rooms by occupant", err)
	}
	return rooms, nil
}

func (r *roomRepository) Counts(ctx context.Context) (model.RoomCounts, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'free') AS free,
			COUNT(*) FILTER (WHERE status = 'occupied') AS occupied,
			COUNT(*) FILTER (WHERE status = 'maintenance') AS maintenance
		FROM rooms
	`
	var counts model.RoomCounts
	if err := sqlx.GetContext(ctx, r.db, &counts, query); err != nil {
		return model.RoomCounts{}, wrapErr("count rooms", err)
	}
	return counts, nil
}
