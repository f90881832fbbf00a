package api

import (
	"encoding/json"

	"github.com/jrsteele09/clinician-portal/profile"
)

// RegisterRequest is the body of POST /auth/register.
// The backend still names the organization field clinicianName.
type RegisterRequest struct {
	OrganizationName string  `json:"clinicianName"`
	Address          string  `json:"address"`
	PhoneNumber      string  `json:"phoneNumber"`
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	OwnerName        string  `json:"ownerName"`
	LicenseNumber    string  `json:"licenseNumber"`
	Position         string  `json:"position"`
	Website          *string `json:"website,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Profile      *profile.Profile `json:"profile"`
}

// UnmarshalJSON accepts the legacy "clinician" key for Profile.
func (a *AuthResponse) UnmarshalJSON(data []byte) error {
	type plain AuthResponse
	var raw struct {
		plain
		Clinician *profile.Profile `json:"clinician"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = AuthResponse(raw.plain)
	if a.Profile == nil {
		a.Profile = raw.Clinician
	}
	return nil
}

// Course is one entry of the backend's course lists.
// Link is only present when the viewer can open the course.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

// CoursesResponse is returned by GET /courses.
type CoursesResponse struct {
	IsStandardPaid bool     `json:"isStandardPaid"`
	IsPremiumPaid  bool     `json:"isPremiumPaid"`
	Courses        []Course `json:"courses"`    // Purchased
	AllCourses     []Course `json:"allCourses"` // Everything on offer
}

// StandardCheckoutRequest is the body of POST /payments/checkout/standard.
type StandardCheckoutRequest struct {
	Amount      int      `json:"amount"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	CourseIDs   []string `json:"courseIds"`
}

type amountRequest struct {
	Amount int `json:"amount"`
}

// CheckoutSession is the payment processor session created by the backend.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
}
