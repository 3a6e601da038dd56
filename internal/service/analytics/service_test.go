package analytics

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

func TestParseRange(t *testing.T) {
	rg, err := ParseRange("", "")
	require.NoError(t, err)
	assert.Equal(t, model.AllTimeStart, rg.Start)
	assert.Equal(t, model.AllTimeEnd, rg.End)

	rg, err = ParseRange("2025-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", rg.Start.String())
	assert.Equal(t, model.AllTimeEnd, rg.End)

	rg, err = ParseRange("2025-01-01", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, rg.Start, rg.End)

	for _, tt := range [][2]string{
		{"2025-02-01", "2025-01-01"},
		{"01/01/2025", ""},
		{"", "yesterday"},
	} {
		_, err := ParseRange(tt[0], tt[1])
		assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid), "range %v", tt)
	}
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	room := &model.Room{Number: "A1", Type: "single", Status: model.RoomStatusFree}
	require.NoError(t, store.Rooms().Create(ctx, room))
	require.NoError(t, store.Rooms().Create(ctx, &model.Room{Number: "A2", Type: "single", Status: model.RoomStatusFree}))

	stays := []struct {
		name  string
		entry string
		ended *time.Time
	}{
		{"Ana", "2025-01-05", ptrTime(time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC))},
		{"Bia", "2025-02-10", nil},
		{"Caio", "2024-12-20", ptrTime(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))},
	}
	for _, s := range stays {
		p := &model.Patient{Name: s.name}
		require.NoError(t, store.Patients().Create(ctx, p))
		d, err := model.ParseDate(s.entry)
		require.NoError(t, err)
		st := &model.Stay{PatientID: p.ID, PatientName: s.name, RoomNumber: "A1", EntryDate: d, DurationDays: 10}
		require.NoError(t, store.Stays().Create(ctx, st))
		if s.ended != nil {
			require.NoError(t, store.Stays().End(ctx, st.ID, *s.ended))
		}
	}
	p := store.Patients()
	list, err := p.List(ctx, &model.PatientFilters{Search: "Bia"})
	require.NoError(t, err)
	require.NoError(t, store.Rooms().Occupy(ctx, room.ID, list[0].ID, model.Today()))
	return store
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestReport(t *testing.T) {
	svc := NewService(seed(t))
	rg, err := ParseRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)

	report, err := svc.Report(context.Background(), rg)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metrics.Admissions)
	assert.Equal(t, 2, report.Metrics.Discharges)
	assert.Equal(t, 50.0, report.Metrics.OccupancyPct)
	require.Len(t, report.Details, 1)
	assert.Equal(t, "Ana", report.Details[0].PatientName)
	assert.Equal(t, model.StayStatusEnded, report.Details[0].Status)

	all, err := svc.Report(context.Background(), model.AnalyticsRange{Start: model.AllTimeStart, End: model.AllTimeEnd})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Metrics.Requests)
	assert.Equal(t, 3, all.Metrics.Admissions)
	require.Len(t, all.Details, 3)
	assert.Equal(t, "Caio", all.Details[0].PatientName)
}

func TestExport(t *testing.T) {
	svc := NewService(seed(t))
	data, err := svc.Export(context.Background(), model.AnalyticsRange{Start: model.AllTimeStart, End: model.AllTimeEnd})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, detailSheet}, f.GetSheetList())

	rows, err := f.GetRows(detailSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, detailHeader, rows[0])
	assert.Equal(t, []string{"Caio", "A1", "2024-12-20", "10", "Encerrada"}, rows[1])
	assert.Equal(t, "Ativa", rows[3][4])

	admissions, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "3", admissions)
}
