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

type waitingListRepository struct {
	s *Store
}

func (r *waitingListRepository) Create(ctx context.Context, entry *model.WaitingListEntry) error {
	defer r.s.lock()()

	if _, ok := r.s.t.patients[entry.PatientID]; !ok {
		return fmt.Errorf("failed to create waiting list entry: unknown patient %s", entry.PatientID)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.WaitingListStatusWaiting
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	stored := *entry
	stored.PatientName, stored.PatientPhone = "", ""
	r.s.t.entries[entry.ID] = stored
	r.s.t.stamp(entry.ID)
	return nil
}

// joined fills the patient columns a list query would join in.
func (r *waitingListRepository) joined(e model.WaitingListEntry) *model.WaitingListEntry {
	if p, ok := r.s.t.patients[e.PatientID]; ok {
		e.PatientName = p.Name
		e.PatientPhone = p.Phone
	}
	return &e
}

func (r *waitingListRepository) fifo(keep func(model.WaitingListEntry) bool) []*model.WaitingListEntry {
	entries := []*model.WaitingListEntry{}
	for _, e := range r.s.t.entries {
		if keep(e) {
			entries = append(entries, r.joined(e))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.EntryDate.Equal(b.EntryDate.Time) {
			return a.EntryDate.Before(b.EntryDate.Time)
		}
		return r.s.t.seq[a.ID] < r.s.t.seq[b.ID]
	})
	return entries
}

func (r *waitingListRepository) Get(ctx context.Context, id uuid.UUID) (*model.WaitingListEntry, error) {
	defer r.s.lock()()

	e, ok := r.s.t.entries[id]
	if !ok {
		return nil, fmt.Errorf("get waiting list entry: %w", repository.ErrNotFound)
	}
	return r.joined(e), nil
}

func (r *waitingListRepository) List(ctx context.Context, filters *model.WaitingListFilters) ([]*model.WaitingListEntry, error) {
	defer r.s.lock()()

	return r.fifo(func(e model.WaitingListEntry) bool {
		switch {
		case filters != nil && filters.Status != "":
			return e.Status == filters.Status
		case filters != nil && filters.IncludeApproved:
			return true
		default:
			return e.Status != model.WaitingListStatusApproved
		}
	}), nil
}

func (r *waitingListRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) (*model.WaitingListEntry, error) {
	defer r.s.lock()()

	entries := r.fifo(func(e model.WaitingListEntry) bool { return e.PatientID == patientID })
	if len(entries) == 0 {
		return nil, fmt.Errorf("find waiting list entry: %w", repository.ErrNotFound)
	}
	return entries[0], nil
}

func (r *waitingListRepository) Head(ctx context.Context) (*model.WaitingListEntry, error) {
	defer r.s.lock()()

	entries := r.fifo(func(model.WaitingListEntry) bool { return true })
	if len(entries) == 0 {
		return nil, fmt.Errorf("get waiting list head: %w", repository.ErrNotFound)
	}
	return entries[0], nil
}

func (r *waitingListRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitingListStatus) error {
	defer r.s.lock()()

	e, ok := r.s.t.entries[id]
	if !ok {
		return fmt.Errorf("update waiting list status: %w", repository.ErrNotFound)
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	r.s.t.entries[id] = e
	return nil
}

func (r *waitingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.t.entries[id]; !ok {
		return fmt.Errorf("delete waiting list entry: %w", repository.ErrNotFound)
	}
	delete(r.s.t.entries, id)
	return nil
}

func (r *waitingListRepository) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	defer r.s.lock()()

	var n int64
	for id, e := range r.s.t.entries {
		if e.PatientID == patientID {
			delete(r.s.t.entries, id)
			n++
		}
	}
	return n, nil
}
