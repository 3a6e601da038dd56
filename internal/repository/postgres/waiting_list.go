package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casacaminho/shelter-api/internal/model"
)

const waitingListSelect = `
	SELECT w.id, w.patient_id, w.entry_date, w.status, w.created_at, w.updated_at,
		p.name AS patient_name, p.phone AS patient_phone
	FROM waiting_list_entries w
	JOIN patients p ON p.id = w.patient_id
`

const fifoOrder = ` ORDER BY w.entry_date ASC, w.created_at ASC, w.id ASC`

type waitingListRepository struct {
	db sqlx.ExtContext
}

func (r *waitingListRepository) Create(ctx context.Context, entry *model.WaitingListEntry) error {
	query := `
		INSERT INTO waiting_list_entries (id, patient_id, entry_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.WaitingListStatusWaiting
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.EntryDate,
		entry.Status,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return wrapErr("create waiting list entry", err)
}

func (r *waitingListRepository) Get(ctx context.Context, id uuid.UUID) (*model.WaitingListEntry, error) {
	return r.one(ctx, "get waiting list entry", waitingListSelect+` WHERE w.id = $1`, id)
}

func (r *waitingListRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) (*model.WaitingListEntry, error) {
	return r.one(ctx, "find waiting list entry", waitingListSelect+` WHERE w.patient_id = $1`+fifoOrder+` LIMIT 1`, patientID)
}

func (r *waitingListRepository) Head(ctx context.Context) (*model.WaitingListEntry, error) {
	return r.one(ctx, "get waiting list head", waitingListSelect+fifoOrder+` LIMIT 1`)
}

func (r *waitingListRepository) one(ctx context.Context, op, query string, args ...interface{}) (*model.WaitingListEntry, error) {
	var entry model.WaitingListEntry
	if err := sqlx.GetContext(ctx, r.db, &entry, query, args...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &entry, nil
}

func (r *waitingListRepository) List(ctx context.Context, filters *model.WaitingListFilters) ([]*model.WaitingListEntry, error) {
	query := waitingListSelect
	var args []interface{}
	switch {
	case filters != nil && filters.Status != "":
		query += ` WHERE w.status = $1`
		args = append(args, filters.Status)
	case filters == nil || !filters.IncludeApproved:
		query += ` WHERE w.status <> 'approved'`
	}
	query += fifoOrder

	entries := []*model.WaitingListEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, wrapErr("list waiting list", err)
	}
	return entries, nil
}

func (r *waitingListRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitingListStatus) error {
	query := `UPDATE waiting_list_entries SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return wrapErr("update waiting list status", err)
	}
	return expectRow("update waiting list status", res)
}

func (r *waitingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM waiting_list_entries WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete waiting list entry", err)
	}
	return expectRow("delete waiting list entry", res)
}

func (r *waitingListRepository) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM waiting_list_entries WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, wrapErr("delete waiting list entries", err)
	}
	return res.RowsAffected()
}
