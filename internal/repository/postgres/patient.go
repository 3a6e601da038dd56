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

const patientColumns = `id, name, phone, birth_date, city, clinical_condition, diagnosis, notes, created_at, updated_at`

type patientRepository struct {
	db sqlx.ExtContext
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Phone,
		patient.BirthDate,
		patient.City,
		patient.Condition,
		patient.Diagnosis,
		patient.Notes,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return wrapErr("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db, &patient, query, id); err != nil {
		return nil, wrapErr("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, phone = $2, birth_date = $3, city = $4,
			clinical_condition = $5, diagnosis = $6, notes = $7, updated_at = $8
		WHERE id = $9
	`
	patient.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Phone,
		patient.BirthDate,
		patient.City,
		patient.Condition,
		patient.Diagnosis,
		patient.Notes,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return wrapErr("update patient", err)
	}
	return expectRow("update patient", res)
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete patient", err)
	}
	return expectRow("delete patient", res)
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters != nil {
		if s := strings.TrimSpace(filters.Search); s != "" {
			args = append(args, "%"+s+"%")
			conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
		}
		if c := strings.TrimSpace(filters.City); c != "" {
			args = append(args, c)
			conds = append(conds, fmt.Sprintf("city ILIKE $%d", len(args)))
		}
	}

	query := `SELECT ` + patientColumns + ` FROM patients`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name ASC, id ASC`

	patients := []*model.Patient{}
	if err := sqlx.SelectContext(ctx, r.db, &patients, query, args...); err != nil {
		return nil, wrapErr("list patients", err)
	}
	return patients, nil
}
