package dto

import "github.com/fitclub-crm/fitclub-api/internal/models"

// LockerView is the immutable projection of a locker plus its derived
// occupancy. The underlying Locker row is never patched with status.
type LockerView struct {
	models.Locker

	Status   string               `json:"status"`
	Rental   *models.LockerRental `json:"rental,omitempty"`
	Occupant *models.Participant  `json:"occupant,omitempty"`
}
