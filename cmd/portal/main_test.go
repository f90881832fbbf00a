package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/api/fakebackend"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/profile"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "asha@example.com"
	testPassword = "Secret123"
)

type recordingOpener struct {
	lock sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

// syncBuffer is read while a command is still writing to it.
type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

type testFixture struct {
	backend *fakebackend.Backend
	opener  *recordingOpener
	dataDir string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := fakebackend.New(t)
	backend.AddAccount(testEmail, testPassword, profile.Profile{
		OrganizationName: "Bright Minds",
		OwnerName:        "Asha Rao",
		LicenseNumber:    "LIC-42",
		Position:         "Director",
	})

	dataDir := t.TempDir()
	t.Setenv("PORTAL_API_URL", backend.URL())
	t.Setenv("PORTAL_DATA_DIR", dataDir)
	t.Setenv("LOG_LEVEL", "error")

	return &testFixture{backend: backend, opener: &recordingOpener{}, dataDir: dataDir}
}

// run executes one CLI invocation with stdin lines and returns its output.
func (f *testFixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out syncBuffer
	err := f.runTo(t, &out, stdin, args...)
	return out.String(), err
}

func (f *testFixture) runTo(t *testing.T, out *syncBuffer, stdin string, args ...string) error {
	var errOut syncBuffer
	cmd := newRootCmd(deps{
		in:           strings.NewReader(stdin),
		out:          out,
		errOut:       &errOut,
		isTerminal:   func(int) bool { return false },
		readPassword: func(int) ([]byte, error) { t.Fatal("unexpected terminal read"); return nil, nil },
		opener:       f.opener,
	})
	if args == nil {
		args = []string{} // nil would make cobra read os.Args
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestCLI_LoginSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, testPassword+"\n", "login", "--email", testEmail)
	require.NoError(t, err)
	require.Contains(t, out, "Welcome back, Asha")
	require.Contains(t, out, "→ /dashboard")

	_, err = os.Stat(filepath.Join(f.dataDir, "auth-storage.json"))
	require.NoError(t, err)

	out, err = f.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Asha Rao (as***@example.com)")
	require.Contains(t, out, "Access token: expires")

	out, err = f.run(t, "", "login")
	require.NoError(t, err)
	require.Contains(t, out, "Already signed in")

	out, err = f.run(t, "", "profile")
	require.NoError(t, err)
	require.Contains(t, out, "Organization:   Bright Minds")
	require.Contains(t, out, "License number: LIC-42")

	f.backend.SetCourses(testEmail, api.CoursesResponse{
		Courses:    []api.Course{{ID: "cmhxa9lro0000qe3ctmwl2vb2", Link: "https://x/1"}},
		AllCourses: []api.Course{{ID: "c2", Name: "Two"}},
	})
	out, err = f.run(t, "", "courses")
	require.NoError(t, err)
	require.Contains(t, out, "Hello, Asha")
	require.Contains(t, out, "Discovering the Science of Emotions")
	require.Contains(t, out, "Coming soon")

	out, err = f.run(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")

	out, err = f.run(t, "", "profile")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Contains(t, out, "→ /signup")
	require.Equal(t, "run `portal login` or `portal signup` first: not signed in", errorText(err))
}

func TestCLI_LoginInvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, testEmail+"\nwrong\n", "login")
	require.Error(t, err)
	require.Equal(t, "Invalid credentials", api.Message(err))
	require.Equal(t, "Invalid credentials", errorText(err))
	require.NotContains(t, out, "→")

	out, err = f.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in")
}

func TestCLI_Signup(t *testing.T) {
	f := setupTestFixture(t)
	args := []string{"signup",
		"--organization", "Sunrise School", "--address", "1 Main St", "--phone", "555-0100",
		"--email", "lee@example.com", "--owner", "Lee Chen", "--license", "LIC-7", "--position", "Principal",
	}

	_, err := f.run(t, "Password1\nPassword2\n", args...)
	require.ErrorIs(t, err, apperrors.ErrPasswordMismatch)
	require.Zero(t, f.backend.Calls(api.PathRegister))

	out, err := f.run(t, "Password1\nPassword1\n", args...)
	require.NoError(t, err)
	require.Contains(t, out, "Welcome, Lee")
	require.Equal(t, 1, f.backend.Calls(api.PathRegister))
}

func TestCLI_Buy(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "", "buy", "premium")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	_, err = f.run(t, testPassword+"\n", "login", "--email", testEmail)
	require.NoError(t, err)

	_, err = f.run(t, "", "buy", "standard")
	require.ErrorIs(t, err, apperrors.ErrNoCoursesSelected)
	require.Empty(t, f.backend.Checkouts())

	out, err := f.run(t, "", "buy", "standard", "--course", "a", "--course", "b")
	require.NoError(t, err)
	require.Contains(t, out, "Total: ₹998")
	require.Contains(t, out, "Checkout opened: "+fakebackend.CheckoutHost)

	out, err = f.run(t, "", "subscribe", "premium")
	require.NoError(t, err)
	require.Contains(t, out, "Premium plan: ₹19,999 / year")

	calls := f.backend.Checkouts()
	require.Len(t, calls, 2)
	require.Equal(t, api.PathCheckoutStandard, calls[0].Path)
	require.Equal(t, api.PathCheckout, calls[1].Path)
	require.Equal(t, float64(19999), calls[1].Body["amount"])
	require.Len(t, f.opener.urls, 2)

	_, err = f.run(t, "", "subscribe", "gold")
	require.ErrorIs(t, err, apperrors.ErrInvalidPlan)
}

func TestCLI_DashboardWatchEndsOnLogoutElsewhere(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.run(t, testPassword+"\n", "login", "--email", testEmail)
	require.NoError(t, err)

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- f.runTo(t, &out, "", "dashboard", "--watch")
	}()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching session")
	}, 5*time.Second, 10*time.Millisecond)
	require.Contains(t, out.String(), "Hello, Asha")

	// The file watch starts just after the banner line; repeat until it is seen.
	require.Eventually(t, func() bool {
		if _, err := f.run(t, "", "logout"); err != nil {
			return false
		}
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	require.Contains(t, out.String(), "Signed out elsewhere")
	require.Contains(t, out.String(), "→ /signup")
}

func TestCLI_RootShowsBannerAndStatus(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in")
	require.Greater(t, strings.Count(out, "\n"), 3)
}

func TestCLI_Version(t *testing.T) {
	f := setupTestFixture(t)
	out, err := f.run(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "portal version "+Version+"\n", out)
}
