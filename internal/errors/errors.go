package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal client
var (
	// Validation errors, reported inline without a network call
	ErrPasswordMismatch  = errors.New("Passwords do not match")
	ErrNoCoursesSelected = errors.New("Please select at least one course")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrInvalidPrice      = errors.New("Invalid price format. Please try again.")

	// Session errors
	ErrNotAuthenticated = errors.New("not signed in")
	ErrMalformedSession = errors.New("malformed session record")

	// Checkout errors
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrNoCheckoutURL      = errors.New("No checkout URL returned")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
