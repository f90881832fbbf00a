package session

import (
	"encoding/json"

	"github.com/jrsteele09/clinician-portal/internal/utils"
	"github.com/jrsteele09/clinician-portal/profile"
)

// Session is the client's view of who is signed in.
// Empty strings and a nil Profile mean "absent".
type Session struct {
	AccessToken  string           // Bearer token for authenticated calls
	RefreshToken string           // Opaque, stored for the backend's benefit
	Profile      *profile.Profile // Last known profile
	Hydrated     bool             // Persisted storage has been read back
	Version      uint64           // Increases with every change; zero before any
}

// HasCredentials reports whether both an access token and a profile are present.
func (s Session) HasCredentials() bool {
	return s.AccessToken != "" && s.Profile != nil
}

// Record is the persisted part of a Session. Absent values are stored as null.
type Record struct {
	AccessToken  *string          `json:"accessToken"`
	RefreshToken *string          `json:"refreshToken"`
	Profile      *profile.Profile `json:"profile"`
}

// UnmarshalJSON also reads records written under the legacy "clinician" key.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		Clinician *profile.Profile `json:"clinician"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record(raw.plain)
	if r.Profile == nil {
		r.Profile = raw.Clinician
	}
	return nil
}

func recordFrom(s Session) Record {
	return Record{
		AccessToken:  utils.PtrOrNil(s.AccessToken),
		RefreshToken: utils.PtrOrNil(s.RefreshToken),
		Profile:      s.Profile.Clone(),
	}
}

func (r Record) apply(s *Session) {
	s.AccessToken = utils.Value(r.AccessToken)
	s.RefreshToken = utils.Value(r.RefreshToken)
	s.Profile = r.Profile.Clone()
}
