// Package gate decides, for every view, whether to render or redirect
// and keeps the stored profile fresh while a session is active.
package gate

import (
	"context"

	"github.com/jrsteele09/clinician-portal/nav"
	"github.com/jrsteele09/clinician-portal/profile"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ProfileFetcher loads the current profile for an access token.
type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (*profile.Profile, error)
}

// Gate is shared by every view. Each view mounts its own Guard.
type Gate struct {
	store   *session.Store
	fetcher ProfileFetcher
	nav     nav.Navigator
}

// New creates a Gate over store.
func New(store *session.Store, fetcher ProfileFetcher, navigator nav.Navigator) (*Gate, error) {
	if store == nil {
		return nil, errors.New("[gate.New] session store is required")
	}
	if fetcher == nil {
		return nil, errors.New("[gate.New] profile fetcher is required")
	}
	if navigator == nil {
		return nil, errors.New("[gate.New] navigator is required")
	}
	return &Gate{store: store, fetcher: fetcher, nav: navigator}, nil
}

// Store returns the session store the gate reads.
func (g *Gate) Store() *session.Store {
	return g.store
}

// Protected returns a guard for a view that requires a session.
func (g *Gate) Protected() *Guard {
	return newGuard(g, protectedView)
}

// Entry returns a guard for the signup / sign-in view.
func (g *Gate) Entry() *Guard {
	return newGuard(g, entryView)
}

// RefreshProfile fetches the profile for accessToken and stores it only if
// accessToken is still the session's token. A result for a replaced or
// cleared session is dropped. Fetch errors leave the store untouched.
func (g *Gate) RefreshProfile(ctx context.Context, accessToken string) error {
	p, err := g.fetcher.Profile(ctx, accessToken)
	if err != nil {
		return errors.Wrap(err, "[Gate.RefreshProfile] fetch profile")
	}
	if !g.store.SetProfileIfToken(accessToken, p) {
		log.Debug().Msg("Session changed during profile refresh, result discarded")
	}
	return nil
}
