package analytics

import (
	"context"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

type AnalyticsService interface {
	Report(ctx context.Context, rg model.AnalyticsRange) (*model.AnalyticsReport, error)
	Export(ctx context.Context, rg model.AnalyticsRange) ([]byte, error)
}

type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// ParseRange reads an inclusive date range. A missing bound extends the range to
// the beginning or end of time.
func ParseRange(start, end string) (model.AnalyticsRange, error) {
	rg := model.AnalyticsRange{Start: model.AllTimeStart, End: model.AllTimeEnd}
	var err error
	if start != "" {
		if rg.Start, err = model.ParseDate(start); err != nil {
			return rg, apperrors.Invalid("start: "+err.Error(), err)
		}
	}
	if end != "" {
		if rg.End, err = model.ParseDate(end); err != nil {
			return rg, apperrors.Invalid("end: "+err.Error(), err)
		}
	}
	if rg.Start.After(rg.End.Time) {
		return rg, apperrors.Invalid("start must not be after end", nil)
	}
	return rg, nil
}

func (s *Service) Report(ctx context.Context, rg model.AnalyticsRange) (*model.AnalyticsReport, error) {
	stats := s.store.Stats()

	requests, err := stats.CountRequests(ctx, rg)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	admissions, err := stats.CountAdmissions(ctx, rg)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	discharges, err := stats.CountDischarges(ctx, rg)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	counts, err := s.store.Rooms().Counts(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	rows, err := stats.StayRows(ctx, rg)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.AnalyticsReport{
		Range: rg,
		Metrics: model.AnalyticsMetrics{
			Requests:     requests,
			Admissions:   admissions,
			Discharges:   discharges,
			OccupancyPct: counts.OccupancyPct(),
		},
		Details: rows,
	}, nil
}

func (s *Service) Export(ctx context.Context, rg model.AnalyticsRange) ([]byte, error) {
	report, err := s.Report(ctx, rg)
	if err != nil {
		return nil, err
	}
	data, err := buildWorkbook(report)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return data, nil
}
