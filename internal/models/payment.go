package models

import "time"

// Payment statuses. Only completed payments count toward spend totals.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment records money received from a participant.
type Payment struct {
	ID             int64     `db:"id" json:"id"`
	ParticipantID  int64     `db:"participant_id" json:"participant_id"`
	SubscriptionID *int64    `db:"subscription_id" json:"subscription_id,omitempty"`
	Amount         float64   `db:"amount" json:"amount"`
	PaymentDate    time.Time `db:"payment_date" json:"payment_date"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	Purpose        string    `db:"purpose" json:"purpose"`
	Status         string    `db:"status" json:"status"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PaymentFilter captures listing criteria for payments.
type PaymentFilter struct {
	ParticipantID int64
	Status        string
	Page          int
	PageSize      int
}
