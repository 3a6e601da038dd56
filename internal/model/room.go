package model

import (
	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusFree        RoomStatus = "free"
	RoomStatusOccupied    RoomStatus = "occupied"
	RoomStatusMaintenance RoomStatus = "maintenance"
)

// Room invariant: OccupantID and OccupiedSince are set iff Status is occupied.
type Room struct {
	Base
	Number        string     `db:"number" json:"number"`
	Type          string     `db:"type" json:"type"`
	Status        RoomStatus `db:"status" json:"status"`
	OccupantID    *uuid.UUID `db:"occupant_id" json:"occupant_id,omitempty"`
	OccupiedSince *Date      `db:"occupied_since" json:"occupied_since,omitempty"`
}

type CreateRoomRequest struct {
	Number string `json:"number" binding:"required,max=20"`
	Type   string `json:"type" binding:"required,max=60"`
	Status string `json:"status" binding:"omitempty,oneof=free occupied maintenance"`
}

type UpdateRoomRequest struct {
	Number *string `json:"number" binding:"omitempty,min=1,max=20"`
	Type   *string `json:"type" binding:"omitempty,min=1,max=60"`
	Status *string `json:"status" binding:"omitempty,oneof=free occupied maintenance"`
}

type OccupyRoomRequest struct {
	PatientID     string `json:"patient_id" binding:"required,uuid"`
	EntryDate     string `json:"entry_date" binding:"omitempty,isodate"`
	DurationDays  int    `json:"duration_days" binding:"min=0"`
	Reason        string `json:"reason"`
	CompanionName string `json:"companion_name"`
}

type RoomFilters struct {
	Status RoomStatus
}

type RoomCounts struct {
	Total       int `db:"total" json:"total"`
	Free        int `db:"free" json:"free"`
	Occupied    int `db:"occupied" json:"occupied"`
	Maintenance int `db:"maintenance" json:"maintenance"`
}

// OccupancyPct is the share of rooms currently occupied, rounded to one decimal.
func (c RoomCounts) OccupancyPct() float64 {
	if c.Total == 0 {
		return 0
	}
	pct := float64(c.Occupied) * 100 / float64(c.Total)
	return float64(int(pct*10+0.5)) / 10
}
