package dto

import (
	"time"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// ParticipantCard is the aggregated, read-only profile view of one
// participant. Assembly never mutates stored entities.
type ParticipantCard struct {
	Participant models.Participant `json:"participant"`

	Subscriptions         []models.SubscriptionDetail `json:"subscriptions"`
	SubscriptionsByStatus SubscriptionGroups          `json:"subscriptions_by_status"`

	// RecentPayments is capped at ten entries for display; statistics and
	// notes are computed from the full payment history.
	RecentPayments []models.Payment `json:"recent_payments"`

	AttendedSessions []models.TrainingSession          `json:"attended_sessions"`
	Attendance       []models.TrainingAttendanceDetail `json:"attendance"`

	LockerRentals       []models.LockerRentalDetail `json:"locker_rentals"`
	CurrentLockerRental *models.LockerRentalDetail  `json:"current_locker_rental,omitempty"`

	EventParticipations []models.EventParticipationDetail `json:"event_participations"`

	Account *models.SystemUser `json:"account,omitempty"`

	Statistics ParticipantStatistics `json:"statistics"`
	Notes      []NoteEntry           `json:"notes"`

	Trainer *TrainerSection `json:"trainer,omitempty"`
}

// SubscriptionGroups partitions subscriptions by status.
type SubscriptionGroups struct {
	Active    []models.SubscriptionDetail `json:"active"`
	Pending   []models.SubscriptionDetail `json:"pending"`
	Expired   []models.SubscriptionDetail `json:"expired"`
	Cancelled []models.SubscriptionDetail `json:"cancelled"`
}

// ParticipantStatistics holds the derived figures for one participant.
type ParticipantStatistics struct {
	ActiveSubscriptionCost float64           `json:"active_subscription_cost"`
	AttendancePercentage   float64           `json:"attendance_percentage"`
	AverageRating          *float64          `json:"average_rating,omitempty"`
	TotalSpent             float64           `json:"total_spent"`
	Age                    int               `json:"age"`
	AttendanceSeries       []AttendancePoint `json:"attendance_series"`
}

// AttendancePoint is one day of the trailing 30-day attendance series.
// Days without sessions are omitted, not zero-filled.
type AttendancePoint struct {
	Date     string `json:"date"`
	Attended int    `json:"attended"`
	Total    int    `json:"total"`
}

// Note categories for the merged timeline.
const (
	NoteCategoryGeneral    = "general"
	NoteCategoryAttendance = "attendance"
	NoteCategoryPayment    = "payment"
)

// NoteEntry is one item of the merged notes timeline.
type NoteEntry struct {
	Date     time.Time `json:"date"`
	Content  string    `json:"content"`
	Source   string    `json:"source"`
	Category string    `json:"category"`
}

// TrainerSection extends the card for trainer participants.
type TrainerSection struct {
	LedSessions   []models.TrainingSession `json:"led_sessions"`
	UpcomingCount int                      `json:"upcoming_count"`
}
