package models

import "time"

// Change actions recorded in the change log.
const (
	ChangeActionCreate = "create"
	ChangeActionUpdate = "update"
	ChangeActionDelete = "delete"
)

// ChangeLog is an append-only audit record. It is write-once and exposed
// read-only through the API.
type ChangeLog struct {
	ID          int64     `db:"id" json:"id"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
	TableName   string    `db:"table_name" json:"table_name"`
	RecordID    int64     `db:"record_id" json:"record_id"`
	ActionType  string    `db:"action_type" json:"action_type"`
	ChangedData []byte    `db:"changed_data" json:"changed_data,omitempty"`
	ChangeTime  time.Time `db:"change_time" json:"change_time"`
}

// ChangeLogFilter captures listing criteria for the change log.
type ChangeLogFilter struct {
	TableName string
	RecordID  int64
	Page      int
	PageSize  int
}
