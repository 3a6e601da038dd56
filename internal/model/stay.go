package model

import (
	"time"

	"github.com/google/uuid"
)

type StayStatus string

const (
	StayStatusActive StayStatus = "active"
	StayStatusEnded  StayStatus = "ended"
)

// Stay snapshots the patient's name and phone at creation time.
type Stay struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	RoomID        *uuid.UUID `db:"room_id" json:"room_id,omitempty"`
	RoomNumber    string     `db:"room_number" json:"room_number"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	PatientPhone  string     `db:"patient_phone" json:"patient_phone"`
	CompanionName string     `db:"companion_name" json:"companion_name"`
	EntryDate     Date       `db:"entry_date" json:"entry_date"`
	DurationDays  int        `db:"duration_days" json:"duration_days"`
	Reason        string     `db:"reason" json:"reason"`
	Status        StayStatus `db:"status" json:"status"`
	EndedAt       *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

type StayFilters struct {
	Status    StayStatus
	PatientID *uuid.UUID
}

type PlacementRequest struct {
	PatientID       string `json:"patient_id" binding:"required,uuid"`
	EntryDate       string `json:"entry_date" binding:"required,isodate"`
	DurationDays    int    `json:"duration_days" binding:"min=0,max=3650"`
	Reason          string `json:"reason" binding:"max=500"`
	CompanionName   string `json:"companion_name" binding:"max=200"`
	PreferredRoomID string `json:"preferred_room_id" binding:"omitempty,uuid"`
}

// Placement is the parsed form of PlacementRequest.
type Placement struct {
	PatientID       uuid.UUID
	EntryDate       Date
	DurationDays    int
	Reason          string
	CompanionName   string
	PreferredRoomID *uuid.UUID
}

type PlacementResult struct {
	Allocated          bool       `json:"allocated"`
	RoomID             *uuid.UUID `json:"room_id,omitempty"`
	RoomNumber         string     `json:"room_number,omitempty"`
	StayID             *uuid.UUID `json:"stay_id,omitempty"`
	WaitingListEntryID *uuid.UUID `json:"waiting_list_entry_id,omitempty"`
}
