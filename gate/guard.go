package gate

import (
	"context"
	"sync"

	"github.com/jrsteele09/clinician-portal/nav"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/rs/zerolog/log"
)

type viewKind int

const (
	protectedView viewKind = iota
	entryView
)

// Guard is one view's mount of the gate. It re-evaluates on every store
// change until unmounted, redirects at most once, and starts one profile
// refresh per access token.
type Guard struct {
	gate     *Gate
	kind     viewKind
	redirect *nav.Redirect

	lock           sync.Mutex
	state          State
	mounted        bool
	version        uint64 // newest session version applied this mount
	refreshedToken string
	ctx            context.Context
	cancel         context.CancelFunc
	unsubscribe    func()

	refreshes sync.WaitGroup
}

func newGuard(g *Gate, kind viewKind) *Guard {
	return &Guard{
		gate:     g,
		kind:     kind,
		redirect: nav.NewRedirect(g.nav),
	}
}

// Mount subscribes to the store and blocks until it has hydrated or ctx is
// done. It returns the state resolved after hydration. Each mount starts
// with a fresh redirect latch and refresh bookkeeping.
func (g *Guard) Mount(ctx context.Context) (State, error) {
	g.lock.Lock()
	if g.mounted {
		g.lock.Unlock()
		return g.State(), nil
	}
	g.mounted = true
	g.state = Unknown
	g.version = 0
	g.refreshedToken = ""
	g.redirect = nav.NewRedirect(g.gate.nav)
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.lock.Unlock()

	unsubscribe := g.gate.store.Subscribe(func(sess session.Session) {
		g.Evaluate(sess)
	})
	g.lock.Lock()
	g.unsubscribe = unsubscribe
	g.lock.Unlock()

	select {
	case <-g.gate.store.Hydrated():
	case <-ctx.Done():
		return Unknown, ctx.Err()
	}
	return g.Evaluate(g.gate.store.Snapshot()), nil
}

// Evaluate applies the view contract to sess. It is safe to call repeatedly;
// redirects and refreshes are not repeated. A snapshot older than one
// already applied is ignored and the current state returned.
func (g *Guard) Evaluate(sess session.Session) State {
	state := Resolve(sess)

	g.lock.Lock()
	if !g.mounted {
		g.lock.Unlock()
		return state
	}
	if sess.Version < g.version {
		current := g.state
		g.lock.Unlock()
		return current
	}
	g.version = sess.Version
	g.state = state
	startRefresh := false
	if g.kind == protectedView && state == Authenticated && sess.AccessToken != g.refreshedToken {
		g.refreshedToken = sess.AccessToken
		startRefresh = true
		g.refreshes.Add(1)
	}
	ctx, redirect := g.ctx, g.redirect
	g.lock.Unlock()

	switch g.kind {
	case protectedView:
		if state == Anonymous && redirect.To(nav.RouteSignup) {
			log.Info().Msg("No session, redirecting to signup")
		}
		if startRefresh {
			go g.refresh(ctx, sess.AccessToken)
		}
	case entryView:
		if state == Authenticated && redirect.To(nav.RouteDashboard) {
			log.Info().Msg("Session present, redirecting to dashboard")
		}
	}
	return state
}

func (g *Guard) refresh(ctx context.Context, accessToken string) {
	defer g.refreshes.Done()
	if err := g.gate.RefreshProfile(ctx, accessToken); err != nil {
		log.Warn().Err(err).Msg("Profile refresh failed, keeping stored profile")
	}
}

// State is the most recently evaluated state.
func (g *Guard) State() State {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.state
}

// ShouldRender reports whether the view's content may be shown.
// Nothing renders while the state is Unknown.
func (g *Guard) ShouldRender() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.redirect.Fired() {
		return false
	}
	switch g.kind {
	case protectedView:
		return g.state == Authenticated
	default:
		return g.state == Anonymous
	}
}

// Redirected reports whether this mount has navigated away.
func (g *Guard) Redirected() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.redirect.Fired()
}

// Wait blocks until every profile refresh started by this guard has finished.
func (g *Guard) Wait() {
	g.refreshes.Wait()
}

// Unmount stops re-evaluation and cancels in-flight refreshes.
func (g *Guard) Unmount() {
	g.lock.Lock()
	g.mounted = false
	unsubscribe, cancel := g.unsubscribe, g.cancel
	g.unsubscribe, g.cancel = nil, nil
	g.lock.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}
