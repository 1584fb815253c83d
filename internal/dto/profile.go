package dto

// ProfileResponse is the self-service profile projection for the
// authenticated principal. Unset fields carry documented placeholders
// instead of empty strings.
type ProfileResponse struct {
	Email            string `json:"email"`
	Role             string `json:"role"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	BirthDate        string `json:"birth_date"`
	JoinDate         string `json:"join_date"`
	EmergencyContact string `json:"emergency_contact"`
	Address          string `json:"address"`
}
