package gate

import "github.com/jrsteele09/clinician-portal/session"

// State is the gate's view of the session.
type State int

const (
	// Unknown means the store has not hydrated; nothing may be decided yet.
	Unknown State = iota
	// Authenticated means an access token and a profile are both present.
	Authenticated
	// Anonymous means hydration finished without a usable session.
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Resolve maps a session snapshot to a gate state.
func Resolve(sess session.Session) State {
	if !sess.Hydrated {
		return Unknown
	}
	if sess.AccessToken != "" && sess.Profile != nil {
		return Authenticated
	}
	return Anonymous
}
