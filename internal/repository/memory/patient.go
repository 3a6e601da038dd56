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

type patientRepository struct {
	s *Store
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()

	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	if _, ok := r.s.t.patients[patient.ID]; ok {
		return fmt.Errorf("create patient: %w", repository.ErrDuplicate)
	}
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	r.s.t.patients[patient.ID] = *patient
	r.s.t.stamp(patient.ID)
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	defer r.s.lock()()

	p, ok := r.s.t.patients[id]
	if !ok {
		return nil, fmt.Errorf("get patient: %w", repository.ErrNotFound)
	}
	return &p, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()

	existing, ok := r.s.t.patients[patient.ID]
	if !ok {
		return fmt.Errorf("update patient: %w", repository.ErrNotFound)
	}
	patient.CreatedAt = existing.CreatedAt
	patient.UpdatedAt = time.Now().UTC()
	r.s.t.patients[patient.ID] = *patient
	return nil
}

// Delete cascades to waiting entries and stays like the postgres foreign keys do,
// and refuses while a room still names the patient as occupant.
func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.t.patients[id]; !ok {
		return fmt.Errorf("delete patient: %w", repository.ErrNotFound)
	}
	for _, room := range r.s.t.rooms {
		if room.OccupantID != nil && *room.OccupantID == id {
			return fmt.Errorf("failed to delete patient: room %s still occupied by patient", room.Number)
		}
	}
	for eid, e := range r.s.t.entries {
		if e.PatientID == id {
			delete(r.s.t.entries, eid)
		}
	}
	for sid, st := range r.s.t.stays {
		if st.PatientID == id {
			delete(r.s.t.stays, sid)
		}
	}
	delete(r.s.t.patients, id)
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	defer r.s.lock()()

	var search, city string
	if filters != nil {
		search = strings.ToLower(strings.TrimSpace(filters.Search))
		city = strings.TrimSpace(filters.City)
	}

	patients := []*model.Patient{}
	for _, p := range r.s.t.patients {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		p := p
		patients = append(patients, &p)
	}
	sort.Slice(patients, func(i, j int) bool {
		if patients[i].Name != patients[j].Name {
			return patients[i].Name < patients[j].Name
		}
		return patients[i].ID.String() < patients[j].ID.String()
	})
	return patients, nil
}
