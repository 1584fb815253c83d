package models

import "time"

// Subscription statuses. The set is closed by business rules but only
// enforced at the storage layer.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription links a participant to a tariff plan for a date range.
type Subscription struct {
	ID            int64     `db:"id" json:"id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	TariffPlanID  int64     `db:"tariff_plan_id" json:"tariff_plan_id"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	Status        string    `db:"status" json:"status"`
	AutoRenew     bool      `db:"auto_renew" json:"auto_renew"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubscriptionDetail joins the tariff plan context needed by the card view.
// TariffPrice stays nil when the plan was removed; aggregates treat that as 0.
type SubscriptionDetail struct {
	Subscription
	TariffName  *string  `db:"tariff_name" json:"tariff_name,omitempty"`
	TariffPrice *float64 `db:"tariff_price" json:"tariff_price,omitempty"`
}

// SubscriptionFilter captures listing criteria for subscriptions.
type SubscriptionFilter struct {
	ParticipantID int64
	Status        string
	Page          int
	PageSize      int
}

// TariffPlan describes a purchasable membership plan.
type TariffPlan struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Price           float64   `db:"price" json:"price"`
	DurationDays    int       `db:"duration_days" json:"duration_days"`
	WorkoutsPerWeek *int      `db:"workouts_per_week" json:"workouts_per_week,omitempty"`
	Active          bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
