package models

import "time"

// Derived locker statuses. A locker never stores its own status; it is
// recomputed from rental records on every read.
const (
	LockerStatusAvailable = "available"
	LockerStatusOccupied  = "occupied"
)

// Rental statuses that mark a rental as currently using its locker. The
// source data uses both strings for the same state, so both are honored.
const (
	RentalStatusActive   = "active"
	RentalStatusOccupied = "occupied"
	RentalStatusClosed   = "closed"
)

// Locker is a storage unit for rent. Occupancy is not a column here.
type Locker struct {
	ID                int64    `db:"id" json:"id"`
	Number            string   `db:"number" json:"number"`
	Zone              *string  `db:"zone" json:"zone,omitempty"`
	Condition         *string  `db:"condition" json:"condition,omitempty"`
	MonthlyRentalCost *float64 `db:"monthly_rental_cost" json:"monthly_rental_cost,omitempty"`
	Notes             *string  `db:"notes" json:"notes,omitempty"`
}

// LockerRental ties a locker to a participant for a period.
type LockerRental struct {
	ID            int64      `db:"id" json:"id"`
	LockerID      int64      `db:"locker_id" json:"locker_id"`
	ParticipantID int64      `db:"participant_id" json:"participant_id"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	ActualEndDate *time.Time `db:"actual_end_date" json:"actual_end_date,omitempty"`
	Status        string     `db:"status" json:"status"`
	RentalCost    float64    `db:"rental_cost" json:"rental_cost"`
	PaymentPeriod *string    `db:"payment_period" json:"payment_period,omitempty"`
	AutoRenew     bool       `db:"auto_renew" json:"auto_renew"`
	KeyIssued     bool       `db:"key_issued" json:"key_issued"`
	KeyIssueDate  *time.Time `db:"key_issue_date" json:"key_issue_date,omitempty"`
	KeyReturnDate *time.Time `db:"key_return_date" json:"key_return_date,omitempty"`
	PaymentID     *int64     `db:"payment_id" json:"payment_id,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
}

// IsOccupying reports whether the rental currently claims its locker.
func (r *LockerRental) IsOccupying() bool {
	return r != nil && (r.Status == RentalStatusActive || r.Status == RentalStatusOccupied)
}

// LockerRentalDetail joins the locker context shown on the participant card.
type LockerRentalDetail struct {
	LockerRental
	LockerNumber string  `db:"locker_number" json:"locker_number"`
	LockerZone   *string `db:"locker_zone" json:"locker_zone,omitempty"`
}

// LockerFilter narrows locker listings. Status filters the derived value
// and is applied after occupancy resolution, never pushed into SQL.
type LockerFilter struct {
	Zone      string
	Condition string
	Status    string
}
