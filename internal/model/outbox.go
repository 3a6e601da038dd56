package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Domain event types written to the outbox.
const (
	EventPatientRegistered   = "patient.registered"
	EventWaitingListEnqueued = "waitinglist.enqueued"
	EventStayOpened          = "stay.opened"
	EventStayEnded           = "stay.ended"
	EventRoomReleased        = "room.released"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type PatientEvent struct {
	PatientID uuid.UUID `json:"patient_id"`
	Name      string    `json:"name"`
}

type WaitingListEvent struct {
	EntryID   uuid.UUID         `json:"entry_id"`
	PatientID uuid.UUID         `json:"patient_id"`
	EntryDate Date              `json:"entry_date"`
	Status    WaitingListStatus `json:"status"`
}

type StayEvent struct {
	StayID     uuid.UUID  `json:"stay_id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	RoomID     *uuid.UUID `json:"room_id,omitempty"`
	RoomNumber string     `json:"room_number,omitempty"`
	EntryDate  Date       `json:"entry_date"`
}

type RoomEvent struct {
	RoomID     uuid.UUID  `json:"room_id"`
	RoomNumber string     `json:"room_number"`
	StayID     *uuid.UUID `json:"stay_id,omitempty"`
	PatientID  *uuid.UUID `json:"patient_id,omitempty"`
}
