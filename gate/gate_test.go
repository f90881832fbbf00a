package gate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/clinician-portal/gate"
	"github.com/jrsteele09/clinician-portal/internal/utils"
	"github.com/jrsteele09/clinician-portal/nav"
	"github.com/jrsteele09/clinician-portal/profile"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/jrsteele09/clinician-portal/session/repofakes"
	"github.com/stretchr/testify/require"
)

const testToken = "access-1"

func storedProfile() *profile.Profile {
	return &profile.Profile{ID: "clin-1", Email: "asha@example.com", OrganizationName: "Bright Minds", OwnerName: "Asha Rao"}
}

func freshProfile() *profile.Profile {
	return &profile.Profile{ID: "clin-1", Email: "asha@example.com", OrganizationName: "Bright Minds Academy", OwnerName: "Asha Rao"}
}

// fakeFetcher answers Profile calls. When block is set each call waits for
// a value on release before answering.
type fakeFetcher struct {
	lock    sync.Mutex
	profile *profile.Profile
	err     error
	calls   []string

	block   bool
	started chan struct{}
	release chan struct{}
}

func newFakeFetcher(p *profile.Profile) *fakeFetcher {
	return &fakeFetcher{profile: p, started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (f *fakeFetcher) Profile(ctx context.Context, accessToken string) (*profile.Profile, error) {
	f.lock.Lock()
	f.calls = append(f.calls, accessToken)
	block := f.block
	f.lock.Unlock()

	f.started <- struct{}{}
	if block {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	return f.profile.Clone(), f.err
}

func (f *fakeFetcher) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.calls...)
}

type testFixture struct {
	repo    *repofakes.FakeSessionRepo
	store   *session.Store
	fetcher *fakeFetcher
	nav     *nav.Recorder
	gate    *gate.Gate
}

func setupTestFixture(t *testing.T, record *session.Record) *testFixture {
	t.Helper()

	repo := repofakes.NewFakeSessionRepo()
	if record != nil {
		repo.WithRecord(*record)
	}
	f := &testFixture{
		repo:    repo,
		store:   session.NewStore(repo),
		fetcher: newFakeFetcher(freshProfile()),
		nav:     &nav.Recorder{},
	}
	g, err := gate.New(f.store, f.fetcher, f.nav)
	require.NoError(t, err)
	f.gate = g
	return f
}

func signedIn() *session.Record {
	return &session.Record{
		AccessToken:  utils.Ptr(testToken),
		RefreshToken: utils.Ptr("refresh-1"),
		Profile:      storedProfile(),
	}
}

func mount(t *testing.T, guard *gate.Guard) gate.State {
	t.Helper()
	state, err := guard.Mount(context.Background())
	require.NoError(t, err)
	t.Cleanup(guard.Unmount)
	return state
}

func TestNew_RequiresCollaborators(t *testing.T) {
	store := session.NewStore(repofakes.NewFakeSessionRepo())
	_, err := gate.New(nil, newFakeFetcher(nil), &nav.Recorder{})
	require.Error(t, err)
	_, err = gate.New(store, nil, &nav.Recorder{})
	require.Error(t, err)
	_, err = gate.New(store, newFakeFetcher(nil), nil)
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	for _, hydrated := range []bool{false, true} {
		for _, token := range []string{"", testToken} {
			for _, p := range []*profile.Profile{nil, storedProfile()} {
				sess := session.Session{Hydrated: hydrated, AccessToken: token, Profile: p}
				name := fmt.Sprintf("hydrated=%v token=%v profile=%v", hydrated, token != "", p != nil)

				t.Run(name, func(t *testing.T) {
					got := gate.Resolve(sess)
					switch {
					case !hydrated:
						require.Equal(t, gate.Unknown, got)
					case token != "" && p != nil:
						require.Equal(t, gate.Authenticated, got)
					default:
						require.Equal(t, gate.Anonymous, got)
					}
				})
			}
		}
	}
}

func TestState_String(t *testing.T) {
	require.Equal(t, "unknown", gate.Unknown.String())
	require.Equal(t, "authenticated", gate.Authenticated.String())
	require.Equal(t, "anonymous", gate.Anonymous.String())
}

func TestProtected_RendersNothingBeforeHydration(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	guard := f.gate.Protected()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := guard.Mount(ctx)
	defer guard.Unmount()

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, gate.Unknown, state)
	require.False(t, guard.ShouldRender())
	require.Empty(t, f.nav.Routes())
	require.Empty(t, f.fetcher.Calls())
}

func TestProtected_MountWaitsForHydration(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	guard := f.gate.Protected()

	result := make(chan gate.State, 1)
	go func() {
		state, _ := guard.Mount(context.Background())
		result <- state
	}()
	t.Cleanup(guard.Unmount)

	select {
	case <-result:
		t.Fatal("mount resolved before hydration")
	case <-time.After(20 * time.Millisecond):
	}

	f.store.Hydrate(context.Background())
	require.Equal(t, gate.Authenticated, <-result)
	guard.Wait()
	require.True(t, guard.ShouldRender())
	require.Empty(t, f.nav.Routes())
}

func TestProtected_AnonymousRedirectsOnce(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	require.Equal(t, gate.Anonymous, mount(t, guard))

	// Re-render storm.
	for i := 0; i < 10; i++ {
		guard.Evaluate(f.store.Snapshot())
	}
	f.store.Clear()
	f.store.Clear()

	require.Equal(t, []nav.Route{nav.RouteSignup}, f.nav.Routes())
	require.True(t, guard.Redirected())
	require.False(t, guard.ShouldRender())
	require.Empty(t, f.fetcher.Calls())
}

func TestProtected_TokenWithoutProfileIsAnonymous(t *testing.T) {
	f := setupTestFixture(t, &session.Record{AccessToken: utils.Ptr(testToken)})
	f.store.Hydrate(context.Background())

	require.Equal(t, gate.Anonymous, mount(t, f.gate.Protected()))
	require.Equal(t, []nav.Route{nav.RouteSignup}, f.nav.Routes())
}

func TestProtected_MalformedStorageIsAnonymous(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.repo.FailLoad(errors.New("unexpected end of JSON input"))
	f.store.Hydrate(context.Background())

	require.Equal(t, gate.Anonymous, mount(t, f.gate.Protected()))
	require.Equal(t, []nav.Route{nav.RouteSignup}, f.nav.Routes())
}

func TestProtected_LogoutRedirects(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	require.Equal(t, gate.Authenticated, mount(t, guard))
	guard.Wait()
	require.Empty(t, f.nav.Routes())

	f.store.Clear()
	require.Equal(t, gate.Anonymous, guard.State())
	require.Equal(t, []nav.Route{nav.RouteSignup}, f.nav.Routes())
}

func TestProtected_RefreshOverwritesProfileOnly(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	mount(t, guard)
	for i := 0; i < 5; i++ {
		guard.Evaluate(f.store.Snapshot())
	}
	guard.Wait()

	snap := f.store.Snapshot()
	require.Equal(t, testToken, snap.AccessToken)
	require.Equal(t, "refresh-1", snap.RefreshToken)
	require.Equal(t, "Bright Minds Academy", snap.Profile.OrganizationName)
	require.Equal(t, []string{testToken}, f.fetcher.Calls())
}

func TestProtected_RefreshFailureKeepsProfile(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.fetcher.err = errors.New("Failed to fetch profile")
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	require.Equal(t, gate.Authenticated, mount(t, guard))
	guard.Wait()

	snap := f.store.Snapshot()
	require.Equal(t, "Bright Minds", snap.Profile.OrganizationName)
	require.Equal(t, testToken, snap.AccessToken)
	require.Empty(t, f.nav.Routes())
	require.True(t, guard.ShouldRender())
}

func TestProtected_RefreshAfterLogoutIsDiscarded(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.fetcher.block = true
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	mount(t, guard)
	<-f.fetcher.started

	f.store.Clear()
	close(f.fetcher.release)
	guard.Wait()

	snap := f.store.Snapshot()
	require.Nil(t, snap.Profile)
	require.Empty(t, snap.AccessToken)
	stored, ok := f.repo.Stored()
	require.True(t, ok)
	require.Nil(t, stored.Profile)
}

func TestProtected_RefreshAfterReloginIsDiscarded(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.fetcher.block = true
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	mount(t, guard)
	<-f.fetcher.started

	other := &profile.Profile{ID: "clin-2", OrganizationName: "Other School"}
	f.store.SetAuth("access-2", "refresh-2", other)
	<-f.fetcher.started
	close(f.fetcher.release)
	guard.Wait()

	// Only the refresh for access-2 may land.
	require.Equal(t, []string{testToken, "access-2"}, f.fetcher.Calls())
	snap := f.store.Snapshot()
	require.Equal(t, "access-2", snap.AccessToken)
	require.Equal(t, "Bright Minds Academy", snap.Profile.OrganizationName)
}

func TestGate_RefreshProfile(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())

	t.Run("stale token is dropped", func(t *testing.T) {
		require.NoError(t, f.gate.RefreshProfile(context.Background(), "old-token"))
		require.Equal(t, "Bright Minds", f.store.Snapshot().Profile.OrganizationName)
	})

	t.Run("fetch error is returned and nothing changes", func(t *testing.T) {
		f.fetcher.lock.Lock()
		f.fetcher.err = errors.New("boom")
		f.fetcher.lock.Unlock()
		defer func() {
			f.fetcher.lock.Lock()
			f.fetcher.err = nil
			f.fetcher.lock.Unlock()
		}()

		err := f.gate.RefreshProfile(context.Background(), testToken)
		require.ErrorContains(t, err, "boom")
		require.Equal(t, "Bright Minds", f.store.Snapshot().Profile.OrganizationName)
	})

	t.Run("current token updates profile", func(t *testing.T) {
		require.NoError(t, f.gate.RefreshProfile(context.Background(), testToken))
		require.Equal(t, "Bright Minds Academy", f.store.Snapshot().Profile.OrganizationName)
	})
}

func TestEntry_RedirectsWhenSignedIn(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())
	guard := f.gate.Entry()

	mount(t, guard)
	guard.Evaluate(f.store.Snapshot())

	require.Equal(t, []nav.Route{nav.RouteDashboard}, f.nav.Routes())
	require.False(t, guard.ShouldRender())
	require.Empty(t, f.fetcher.Calls())
}

func TestEntry_RedirectsOnceAfterLogin(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.store.Hydrate(context.Background())
	guard := f.gate.Entry()

	require.Equal(t, gate.Anonymous, mount(t, guard))
	require.True(t, guard.ShouldRender())
	require.Empty(t, f.nav.Routes())

	f.store.SetAuth(testToken, "refresh-1", storedProfile())
	f.store.SetProfileIfToken(testToken, freshProfile())

	require.Equal(t, []nav.Route{nav.RouteDashboard}, f.nav.Routes())
}

func TestGuard_UnmountStopsEvaluation(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	_, err := guard.Mount(context.Background())
	require.NoError(t, err)
	guard.Wait()
	guard.Unmount()

	f.store.Clear()
	require.Empty(t, f.nav.Routes())
	require.Equal(t, gate.Authenticated, guard.State())
}

func TestGuard_IgnoresOlderSnapshots(t *testing.T) {
	f := setupTestFixture(t, signedIn())
	f.store.Hydrate(context.Background())
	guard := f.gate.Protected()

	require.Equal(t, gate.Authenticated, mount(t, guard))
	guard.Wait()
	before := f.store.Snapshot()

	f.store.Clear()
	require.Equal(t, gate.Anonymous, guard.Evaluate(before))
	require.Equal(t, gate.Anonymous, guard.State())
	require.False(t, guard.ShouldRender())
	require.Equal(t, []nav.Route{nav.RouteSignup}, f.nav.Routes())
}

func TestGuard_RemountStartsFresh(t *testing.T) {
	t.Run("redirects again", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.store.Hydrate(context.Background())
		guard := f.gate.Protected()

		require.Equal(t, gate.Anonymous, mount(t, guard))
		guard.Unmount()
		require.Equal(t, gate.Anonymous, mount(t, guard))

		require.Equal(t, []nav.Route{nav.RouteSignup, nav.RouteSignup}, f.nav.Routes())
		require.True(t, guard.Redirected())
	})

	t.Run("refreshes again", func(t *testing.T) {
		f := setupTestFixture(t, signedIn())
		f.store.Hydrate(context.Background())
		guard := f.gate.Protected()

		require.Equal(t, gate.Authenticated, mount(t, guard))
		guard.Wait()
		guard.Unmount()
		require.Equal(t, gate.Authenticated, mount(t, guard))
		guard.Wait()

		require.Equal(t, []string{testToken, testToken}, f.fetcher.Calls())
		require.Empty(t, f.nav.Routes())
	})
}

func TestEntry_TokenWithoutProfileStays(t *testing.T) {
	f := setupTestFixture(t, &session.Record{AccessToken: utils.Ptr(testToken)})
	f.store.Hydrate(context.Background())
	guard := f.gate.Entry()

	require.Equal(t, gate.Anonymous, mount(t, guard))
	require.True(t, guard.ShouldRender())
	require.Empty(t, f.nav.Routes())
}
