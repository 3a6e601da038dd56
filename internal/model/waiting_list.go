package model

import (
	"github.com/google/uuid"
)

type WaitingListStatus string

const (
	WaitingListStatusWaiting              WaitingListStatus = "waiting"
	WaitingListStatusAwaitingConfirmation WaitingListStatus = "awaiting_confirmation"
	WaitingListStatusApproved             WaitingListStatus = "approved"
)

// Next is the staff approval step: waiting goes to awaiting_confirmation,
// anything else goes straight to approved.
func (s WaitingListStatus) Next() WaitingListStatus {
	if s == WaitingListStatusWaiting {
		return WaitingListStatusAwaitingConfirmation
	}
	return WaitingListStatusApproved
}

func (s WaitingListStatus) Valid() bool {
	switch s {
	case WaitingListStatusWaiting, WaitingListStatusAwaitingConfirmation, WaitingListStatusApproved:
		return true
	}
	return false
}

type WaitingListEntry struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	EntryDate Date              `db:"entry_date" json:"entry_date"`
	Status    WaitingListStatus `db:"status" json:"status"`

	// Filled by list queries.
	PatientName  string `db:"patient_name" json:"patient_name,omitempty"`
	PatientPhone string `db:"patient_phone" json:"patient_phone,omitempty"`
}

type EnqueueRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
	EntryDate string `json:"entry_date" binding:"required,isodate"`
	Status    string `json:"status" binding:"omitempty,oneof=waiting awaiting_confirmation approved"`
}

type WaitingListFilters struct {
	Status          WaitingListStatus
	IncludeApproved bool
}

// AllocateRequest carries the stay details staff may add when allocating from the list.
type AllocateRequest struct {
	DurationDays  int    `json:"duration_days" binding:"min=0,max=3650"`
	Reason        string `json:"reason" binding:"max=500"`
	CompanionName string `json:"companion_name" binding:"max=200"`
}
