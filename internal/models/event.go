package models

import "time"

// Event is a one-off club happening with limited capacity.
type Event struct {
	ID                   int64      `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Description          *string    `db:"description" json:"description,omitempty"`
	StartsAt             time.Time  `db:"starts_at" json:"datetime"`
	Location             string     `db:"location" json:"location"`
	Cost                 *float64   `db:"cost" json:"cost,omitempty"`
	MaxParticipants      *int       `db:"max_participants" json:"max_participants,omitempty"`
	Status               string     `db:"status" json:"status"`
	RegistrationDeadline *time.Time `db:"registration_deadline" json:"registration_deadline,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// EventParticipant registers a participant for an event. At most one
// record may exist per (event, participant) pair.
type EventParticipant struct {
	ID               int64     `db:"id" json:"id"`
	EventID          int64     `db:"event_id" json:"event_id"`
	ParticipantID    int64     `db:"participant_id" json:"participant_id"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	Paid             bool      `db:"paid" json:"paid"`
	PaymentID        *int64    `db:"payment_id" json:"payment_id,omitempty"`
	Status           string    `db:"status" json:"status"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
}

// EventParticipationDetail joins the event context for the card view.
type EventParticipationDetail struct {
	EventParticipant
	EventName string    `db:"event_name" json:"event_name"`
	EventDate time.Time `db:"event_date" json:"event_date"`
}

// EventFilter captures listing criteria for events.
type EventFilter struct {
	Status   string
	From     *time.Time
	Page     int
	PageSize int
}
