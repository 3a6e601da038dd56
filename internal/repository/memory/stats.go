package memory

import (
	"context"
	"sort"

	"github.com/casacaminho/shelter-api/internal/model"
)

type statsRepository struct {
	s *Store
}

func within(d model.Date, rg model.AnalyticsRange) bool {
	return !d.Before(rg.Start.Time) && !d.After(rg.End.Time)
}

func (r *statsRepository) PendingCount(ctx context.Context) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, e := range r.s.t.entries {
		if e.Status != model.WaitingListStatusApproved {
			n++
		}
	}
	return n, nil
}

func (r *statsRepository) CountRequests(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, p := range r.s.t.patients {
		if within(model.NewDate(p.CreatedAt), rg) {
			n++
		}
	}
	return n, nil
}

func (r *statsRepository) CountAdmissions(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, st := range r.s.t.stays {
		if within(st.EntryDate, rg) {
			n++
		}
	}
	return n, nil
}

func (r *statsRepository) CountDischarges(ctx context.Context, rg model.AnalyticsRange) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, st := range r.s.t.stays {
		if st.Status == model.StayStatusEnded && st.EndedAt != nil && within(model.NewDate(*st.EndedAt), rg) {
			n++
		}
	}
	return n, nil
}

func (r *statsRepository) StayRows(ctx context.Context, rg model.AnalyticsRange) ([]*model.AnalyticsRow, error) {
	defer r.s.lock()()

	var stays []model.Stay
	for _, st := range r.s.t.stays {
		if within(st.EntryDate, rg) {
			stays = append(stays, st)
		}
	}
	sort.Slice(stays, func(i, j int) bool {
		if !stays[i].EntryDate.Equal(stays[j].EntryDate.Time) {
			return stays[i].EntryDate.Before(stays[j].EntryDate.Time)
		}
		return r.s.t.seq[stays[i].ID] < r.s.t.seq[stays[j].ID]
	})

	rows := make([]*model.AnalyticsRow, 0, len(stays))
	for _, st := range stays {
		rows = append(rows, &model.AnalyticsRow{
			StayID:       st.ID.String(),
			PatientName:  st.PatientName,
			RoomNumber:   st.RoomNumber,
			EntryDate:    st.EntryDate,
			DurationDays: st.DurationDays,
			Status:       st.Status,
		})
	}
	return rows, nil
}
