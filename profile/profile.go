package profile

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Profile is the signed-in clinician's account as returned by the backend.
// It is always replaced wholesale, never patched field by field.
type Profile struct {
	ID               string  `json:"id"`                 // Backend identifier
	Email            string  `json:"email"`              // Login email
	OrganizationName string  `json:"organizationName"`   // Practice or school name
	OwnerName        string  `json:"ownerName"`          // Account holder
	LicenseNumber    string  `json:"licenseNumber"`      // Professional licence
	Position         string  `json:"position"`           // Role within the organization
	Website          *string `json:"website,omitempty"` // Optional public site
}

// UnmarshalJSON accepts the legacy "clinicianName" key for OrganizationName.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var raw struct {
		plain
		ClinicianName string `json:"clinicianName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw.plain)
	if p.OrganizationName == "" {
		p.OrganizationName = raw.ClinicianName
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate a stored profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Website != nil {
		w := *p.Website
		c.Website = &w
	}
	return &c
}

// Initials returns up to two upper-cased initials of the organization name,
// or "S" when there is nothing to abbreviate.
func (p *Profile) Initials() string {
	if p == nil {
		return "S"
	}
	initials := make([]rune, 0, 2)
	for _, part := range strings.Fields(p.OrganizationName) {
		if len(initials) == 2 {
			break
		}
		initials = append(initials, unicode.ToUpper([]rune(part)[0]))
	}
	if len(initials) == 0 {
		return "S"
	}
	return string(initials)
}

// FirstName is the first word of the owner's name, defaulting to "Owner".
func (p *Profile) FirstName() string {
	if p == nil {
		return "Owner"
	}
	if first := strings.Split(p.OwnerName, " ")[0]; first != "" {
		return first
	}
	return "Owner"
}
