package auth

import (
	"strings"

	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/internal/utils"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupForm is the registration form, including the confirmation field.
type SignupForm struct {
	OrganizationName string `json:"organizationName" validate:"required"`
	Address          string `json:"address" validate:"required"`
	PhoneNumber      string `json:"phoneNumber" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	ConfirmPassword  string `json:"confirmPassword"`
	OwnerName        string `json:"ownerName" validate:"required"`
	LicenseNumber    string `json:"licenseNumber" validate:"required"`
	Position         string `json:"position" validate:"required"`
	Website          string `json:"website" validate:"omitempty,url"`
}

func (f LoginForm) request() api.LoginRequest {
	return api.LoginRequest{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

func (f SignupForm) request() api.RegisterRequest {
	return api.RegisterRequest{
		OrganizationName: strings.TrimSpace(f.OrganizationName),
		Address:          strings.TrimSpace(f.Address),
		PhoneNumber:      strings.TrimSpace(f.PhoneNumber),
		Email:            strings.TrimSpace(f.Email),
		Password:         f.Password,
		OwnerName:        strings.TrimSpace(f.OwnerName),
		LicenseNumber:    strings.TrimSpace(f.LicenseNumber),
		Position:         strings.TrimSpace(f.Position),
		Website:          utils.PtrOrNil(strings.TrimSpace(f.Website)),
	}
}
