package model

import (
	"time"
)

var (
	// AllTimeStart and AllTimeEnd bound analytics when no range is given.
	AllTimeStart = NewDate(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC))
	AllTimeEnd   = NewDate(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
)

type AnalyticsRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

type AnalyticsMetrics struct {
	Requests     int     `json:"requests"`
	Admissions   int     `json:"admissions"`
	Discharges   int     `json:"discharges"`
	OccupancyPct float64 `json:"occupancy_pct"`
}

type AnalyticsRow struct {
	StayID       string     `db:"id" json:"stay_id"`
	PatientName  string     `db:"patient_name" json:"patient_name"`
	RoomNumber   string     `db:"room_number" json:"room_number"`
	EntryDate    Date       `db:"entry_date" json:"entry_date"`
	DurationDays int        `db:"duration_days" json:"duration_days"`
	Status       StayStatus `db:"status" json:"status"`
}

type AnalyticsReport struct {
	Range   AnalyticsRange   `json:"range"`
	Metrics AnalyticsMetrics `json:"metrics"`
	Details []*AnalyticsRow  `json:"details"`
}
