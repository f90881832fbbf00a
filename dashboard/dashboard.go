// Package dashboard is the signed-in home view: profile header plus the
// purchased and available course lists.
package dashboard

import (
	"context"

	"github.com/jrsteele09/clinician-portal/catalog"
	"github.com/jrsteele09/clinician-portal/gate"
	"github.com/jrsteele09/clinician-portal/profile"
	"golang.org/x/sync/errgroup"
)

// Snapshot is everything the view renders.
type Snapshot struct {
	State     gate.State
	Profile   *profile.Profile
	Catalog   catalog.Catalog
	Initials  string
	FirstName string
}

// Render reports whether the snapshot holds content to show.
func (s Snapshot) Render() bool {
	return s.State == gate.Authenticated
}

// View mounts the dashboard behind the protected guard.
type View struct {
	gate   *gate.Gate
	loader *catalog.Loader
	guard  *gate.Guard
}

// New creates an unmounted dashboard.
func New(g *gate.Gate, loader *catalog.Loader) *View {
	return &View{gate: g, loader: loader}
}

// Mount waits for the session, then refreshes the profile and loads the
// catalog side by side. An anonymous session is redirected by the guard
// and yields an empty snapshot.
func (v *View) Mount(ctx context.Context) (Snapshot, error) {
	if v.guard == nil {
		v.guard = v.gate.Protected()
	}
	state, err := v.guard.Mount(ctx)
	if err != nil {
		return Snapshot{State: state}, err
	}
	if state != gate.Authenticated {
		return Snapshot{State: state}, nil
	}

	token := v.gate.Store().Snapshot().AccessToken
	var courses catalog.Catalog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v.guard.Wait()
		return gctx.Err()
	})
	g.Go(func() error {
		courses = v.loader.Load(gctx, token)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Snapshot{State: gate.Unknown}, err
	}

	// State and content come from one snapshot so a session cleared while
	// loading never renders.
	sess := v.gate.Store().Snapshot()
	snap := Snapshot{
		State:     gate.Resolve(sess),
		Profile:   sess.Profile,
		Catalog:   courses,
		Initials:  sess.Profile.Initials(),
		FirstName: sess.Profile.FirstName(),
	}
	if !snap.Render() {
		return Snapshot{State: snap.State}, nil
	}
	return snap, nil
}

// Unmount stops the dashboard's guard.
func (v *View) Unmount() {
	if v.guard != nil {
		v.guard.Unmount()
	}
}
