package models

import "time"

// Participant types recognised by the aggregation layer.
const (
	ParticipantTypeMember  = "member"
	ParticipantTypeTrainer = "trainer"
	ParticipantTypeStaff   = "staff"
)

// Participant represents any person tracked by the club, member or trainer.
type Participant struct {
	ID               int64      `db:"id" json:"id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Email            *string    `db:"email" json:"email,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	BirthDate        time.Time  `db:"birth_date" json:"birth_date"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone   *string    `db:"emergency_phone" json:"emergency_phone,omitempty"`
	Address          *string    `db:"address" json:"address,omitempty"`
	JoinDate         time.Time  `db:"join_date" json:"join_date"`
	Active           bool       `db:"is_active" json:"is_active"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	ParticipantType  string     `db:"participant_type" json:"participant_type"`
	PositionID       *int64     `db:"position_id" json:"position_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTrainer reports whether the participant leads training sessions.
func (p *Participant) IsTrainer() bool {
	return p != nil && p.ParticipantType == ParticipantTypeTrainer
}

// FullName joins the name parts for display.
func (p *Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ParticipantFilter captures search parameters for listing participants.
type ParticipantFilter struct {
	Search          string
	ParticipantType string
	Active          *bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// Position is a staff job title referenced by participants.
type Position struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	SalaryRange *string   `db:"salary_range" json:"salary_range,omitempty"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
