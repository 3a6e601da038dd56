package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casacaminho/shelter-api/internal/model"
)

const stayColumns = `id, patient_id, room_id, room_number, patient_name, patient_phone, companion_name,
	entry_date, duration_days, reason, status, ended_at, created_at, updated_at`

type stayRepository struct {
	db sqlx.ExtContext
}

func (r *stayRepository) Create(ctx context.Context, stay *model.Stay) error {
	query := `
		INSERT INTO stays (` + stayColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if stay.ID == uuid.Nil {
		stay.ID = uuid.New()
	}
	if stay.Status == "" {
		stay.Status = model.StayStatusActive
	}
	now := time.Now().UTC()
	stay.CreatedAt = now
	stay.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		stay.ID,
		stay.PatientID,
		stay.RoomID,
		stay.RoomNumber,
		stay.PatientName,
		stay.PatientPhone,
		stay.CompanionName,
		stay.EntryDate,
		stay.DurationDays,
		stay.Reason,
		stay.Status,
		stay.EndedAt,
		stay.CreatedAt,
		stay.UpdatedAt,
	)
	return wrapErr("create stay", err)
}

func (r *stayRepository) Get(ctx context.Context, id uuid.UUID) (*model.Stay, error) {
	return r.one(ctx, "get stay", `SELECT `+stayColumns+` FROM stays WHERE id = $1`, id)
}

func (r *stayRepository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*model.Stay, error) {
	return r.one(ctx, "find active stay by room",
		`SELECT `+stayColumns+` FROM stays WHERE room_id = $1 AND status = 'active' LIMIT 1`, roomID)
}

func (r *stayRepository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.Stay, error) {
	return r.one(ctx, "find active stay by patient",
		`SELECT `+stayColumns+` FROM stays WHERE patient_id = $1 AND status = 'active' LIMIT 1`, patientID)
}

func (r *stayRepository) one(ctx context.Context, op, query string, args ...interface{}) (*model.Stay, error) {
	var stay model.Stay
	if err := sqlx.GetContext(ctx, r.db, &stay, query, args...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &stay, nil
}

func (r *stayRepository) List(ctx context.Context, filters *model.StayFilters) ([]*model.Stay, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters != nil {
		if filters.Status != "" {
			args = append(args, filters.Status)
			conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
		}
		if filters.PatientID != nil {
			args = append(args, *filters.PatientID)
			conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
		}
	}

	query := `SELECT ` + stayColumns + ` FROM stays`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY entry_date DESC, created_at DESC`

	stays := []*model.Stay{}
	if err := sqlx.SelectContext(ctx, r.db, &stays, query, args...); err != nil {
		return nil, wrapErr("list stays", err)
	}
	return stays, nil
}

func (r *stayRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	query := `
		UPDATE stays
		SET status = 'ended', ended_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, endedAt, id)
	if err != nil {
		return wrapErr("end stay", err)
	}
	return expectRow("end stay", res)
}

func (r *stayRepository) Upcoming(ctx context.Context, from model.Date, limit int) ([]*model.Stay, error) {
	query := `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE status = 'active' AND entry_date >= $1
		ORDER BY entry_date ASC, created_at ASC
		LIMIT $2
	`
	stays := []*model.Stay{}
	if err := sqlx.SelectContext(ctx, r.db, &stays, query, from, limit); err != nil {
		return nil, wrapErr("list upcoming stays", err)
	}
	return stays, nil
}
