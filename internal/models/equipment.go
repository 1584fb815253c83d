package models

import "time"

// Equipment is a rentable inventory item.
type Equipment struct {
	ID                  int64      `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Type                string     `db:"type" json:"type"`
	Size                *string    `db:"size" json:"size,omitempty"`
	Condition           *string    `db:"condition" json:"condition,omitempty"`
	PurchaseDate        *time.Time `db:"purchase_date" json:"purchase_date,omitempty"`
	PurchasePrice       *float64   `db:"purchase_price" json:"purchase_price,omitempty"`
	LastMaintenanceDate *time.Time `db:"last_maintenance_date" json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time `db:"next_maintenance_date" json:"next_maintenance_date,omitempty"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// EquipmentRental records a participant borrowing equipment.
type EquipmentRental struct {
	ID               int64      `db:"id" json:"id"`
	ParticipantID    int64      `db:"participant_id" json:"participant_id"`
	EquipmentID      int64      `db:"equipment_id" json:"equipment_id"`
	RentalDate       time.Time  `db:"rental_date" json:"rental_date"`
	ReturnDate       time.Time  `db:"return_date" json:"return_date"`
	ActualReturnDate *time.Time `db:"actual_return_date" json:"actual_return_date,omitempty"`
	Cost             *float64   `db:"cost" json:"cost,omitempty"`
	Status           string     `db:"status" json:"status"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// EquipmentFilter captures listing criteria for equipment.
type EquipmentFilter struct {
	Type      string
	Condition string
	Search    string
	Page      int
	PageSize  int
}
