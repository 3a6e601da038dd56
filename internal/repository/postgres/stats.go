package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/casacaminho/shelter-api/internal/model"
)

type statsRepository struct {
	db sqlx.ExtContext
}

func (r *statsRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// PendingCount counts waiting-list entries not yet approved.
func (r *statsRepository) PendingCount(ctx context.Context) (int, error) {
	return r.count(ctx, "count pending entries",
		`SELECT COUNT(*) FROM waiting_list_entries WHERE status <> 'approved'`)
}

func (r *statsRepository) CountRequests(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	return r.count(ctx, "count requests",
		`SELECT COUNT(*) FROM patients WHERE created_at::date BETWEEN $1 AND $2`, rg.Start, rg.End)
}

func (r *statsRepository) CountAdmissions(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	return r.count(ctx, "count admissions",
		`SELECT COUNT(*) FROM stays WHERE entry_date BETWEEN $1 AND $2`, rg.Start, rg.End)
}

func (r *statsRepository) CountDischarges(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	return r.count(ctx, "count discharges",
		`SELECT COUNT(*) FROM stays WHERE status = 'ended' AND ended_at::date BETWEEN $1 AND $2`, rg.Start, rg.End)
}

func (r *statsRepository) StayRows(ctx context.Context, rg model.AnalyticsRange) ([]*model.AnalyticsRow, error) {
	query := `
		SELECT id, patient_name, room_number, entry_date, duration_days, status
		FROM stays
		WHERE entry_date BETWEEN $1 AND $2
		ORDER BY entry_date ASC, created_at ASC
	`
	rows := []*model.AnalyticsRow{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, rg.Start, rg.End); err != nil {
		return nil, wrapErr("list analytics rows", err)
	}
	return rows, nil
}
