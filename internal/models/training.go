package models

import "time"

// TrainingSession is a class led by a trainer participant.
type TrainingSession struct {
	ID              int64     `db:"id" json:"id"`
	TrainerID       int64     `db:"trainer_id" json:"trainer_id"`
	StartsAt        time.Time `db:"starts_at" json:"datetime"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Topic           string    `db:"topic" json:"topic"`
	Description     *string   `db:"description" json:"description,omitempty"`
	MaxParticipants *int      `db:"max_participants" json:"max_participants,omitempty"`
	Location        *string   `db:"location" json:"location,omitempty"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TrainingAttendance marks one participant's presence at one session.
// At most one record may exist per (participant, session) pair.
type TrainingAttendance struct {
	ID            int64     `db:"id" json:"id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	SessionID     int64     `db:"session_id" json:"session_id"`
	Attended      bool      `db:"attended" json:"attended"`
	Rating        *int      `db:"rating" json:"rating,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TrainingAttendanceDetail carries the session context the card view and
// the statistics engine read alongside the attendance mark.
type TrainingAttendanceDetail struct {
	TrainingAttendance
	SessionTopic string    `db:"session_topic" json:"session_topic"`
	SessionDate  time.Time `db:"session_date" json:"session_date"`
}

// TrainingSessionFilter captures listing criteria for sessions.
type TrainingSessionFilter struct {
	TrainerID int64
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
