package models

import "time"

// UserRole represents system user roles.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// SystemUser is a login identity, optionally linked to a participant.
type SystemUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Role         string    `db:"role" json:"role"`
	MemberID     *int64    `db:"member_id" json:"member_id,omitempty"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveRole returns the stored role falling back to "user" when unset.
func (u *SystemUser) EffectiveRole() string {
	if u == nil || u.Role == "" {
		return string(RoleUser)
	}
	return u.Role
}

// UserFilter captures filtering criteria for listing system users.
type UserFilter struct {
	Role     string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
