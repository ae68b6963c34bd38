package models

import "time"

type Role string

const (
	RoleDonor     Role = "donor"
	RoleNGO       Role = "ngo"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDonor, RoleNGO, RoleVolunteer, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Donation struct {
	ID            string     `json:"id"`
	DonorID       string     `json:"donor_id"`
	NgoID         *string    `json:"ngo_id"`
	VolunteerID   *string    `json:"volunteer_id"`
	FoodItem      string     `json:"food_item"`
	Quantity      string     `json:"quantity"`
	Description   string     `json:"description"`
	City          string     `json:"city"`
	PickupAddress string     `json:"pickup_address"`
	FoodSource    string     `json:"food_source"`
	ExpiryTime    time.Time  `json:"expiry_time"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	AcceptedAt    *time.Time `json:"accepted_at"`
	PickedUpAt    *time.Time `json:"picked_up_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

// DonationSubmission carries the donor-supplied fields of a new
// donation. Everything else (id, donor, status, timestamps) is set by
// the server.
type DonationSubmission struct {
	FoodItem      string    `json:"food_item"`
	Quantity      string    `json:"quantity"`
	Description   string    `json:"description"`
	City          string    `json:"city"`
	PickupAddress string    `json:"pickup_address"`
	FoodSource    string    `json:"food_source"`
	ExpiryTime    time.Time `json:"expiry_time"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountView is what the admin user list shows: profile plus role
// plus login email.
type AccountView struct {
	Profile
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type DashboardStats struct {
	TotalDonations      int            `json:"total_donations"`
	DonationsByStatus   map[string]int `json:"donations_by_status"`
	UsersByRole         map[string]int `json:"users_by_role"`
	OpenContactMessages int            `json:"open_contact_messages"`
}
