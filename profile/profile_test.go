package profile_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/clinician-portal/internal/utils"
	"github.com/jrsteele09/clinician-portal/profile"
	"github.com/stretchr/testify/require"
)

func TestProfile_UnmarshalLegacyClinicianName(t *testing.T) {
	var p profile.Profile
	err := json.Unmarshal([]byte(`{"id":"c1","email":"a@b.com","clinicianName":"Bright Minds","ownerName":"Asha Rao"}`), &p)
	require.NoError(t, err)
	require.Equal(t, "c1", p.ID)
	require.Equal(t, "Bright Minds", p.OrganizationName)
	require.Nil(t, p.Website)
}

func TestProfile_UnmarshalPrefersOrganizationName(t *testing.T) {
	var p profile.Profile
	err := json.Unmarshal([]byte(`{"organizationName":"New","clinicianName":"Old","website":"https://x.org"}`), &p)
	require.NoError(t, err)
	require.Equal(t, "New", p.OrganizationName)
	require.Equal(t, "https://x.org", utils.Value(p.Website))
}

func TestProfile_Initials(t *testing.T) {
	tests := []struct {
		name string
		org  string
		want string
	}{
		{"two words", "bright minds clinic", "BM"},
		{"single word", "zenomi", "Z"},
		{"empty", "", "S"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &profile.Profile{OrganizationName: tt.org}
			require.Equal(t, tt.want, p.Initials())
		})
	}

	var nilProfile *profile.Profile
	require.Equal(t, "S", nilProfile.Initials())
}

func TestProfile_FirstName(t *testing.T) {
	require.Equal(t, "Asha", (&profile.Profile{OwnerName: "Asha Rao"}).FirstName())
	require.Equal(t, "Owner", (&profile.Profile{}).FirstName())

	var nilProfile *profile.Profile
	require.Equal(t, "Owner", nilProfile.FirstName())
}

func TestProfile_CloneIsDeep(t *testing.T) {
	p := &profile.Profile{ID: "1", Website: utils.Ptr("https://a")}
	c := p.Clone()
	*c.Website = "https://b"
	require.Equal(t, "https://a", *p.Website)
}
