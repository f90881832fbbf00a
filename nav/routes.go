package nav

// Route is a portal view address.
type Route string

// Route constants
// All portal views are defined here to ensure consistency and prevent typos
const (
	// Entry Route - Signup & Sign-in
	RouteSignup Route = "/signup"

	// Protected Routes
	RouteDashboard Route = "/dashboard"
	RouteProfile   Route = "/profile"
	RouteCourses   Route = "/courses"

	// Pricing Route
	RoutePricing Route = "/pricing"
)

func (r Route) String() string {
	return string(r)
}

// IsProtected reports whether the view requires a signed-in session.
func (r Route) IsProtected() bool {
	switch r {
	case RouteDashboard, RouteProfile, RouteCourses:
		return true
	}
	return false
}
