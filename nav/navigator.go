package nav

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

// Navigator replaces the current view.
type Navigator interface {
	Replace(to Route)
}

// Opener hands a URL to a new browsing context.
type Opener interface {
	Open(url string) error
}

// Redirect issues at most one navigation for its lifetime. A view creates
// one per mount; later calls are no-ops while the first is in flight.
type Redirect struct {
	nav   Navigator
	fired atomic.Bool
}

// NewRedirect creates an unfired latch over nav.
func NewRedirect(nav Navigator) *Redirect {
	return &Redirect{nav: nav}
}

// To navigates to route the first time it is called and reports whether it did.
func (r *Redirect) To(route Route) bool {
	if !r.fired.CompareAndSwap(false, true) {
		return false
	}
	r.nav.Replace(route)
	return true
}

// Fired reports whether the latch has been used.
func (r *Redirect) Fired() bool {
	return r.fired.Load()
}

// Recorder is a Navigator that remembers every route it was sent to.
// The CLI uses it to report where a command would land.
type Recorder struct {
	lock   sync.Mutex
	routes []Route
}

var _ Navigator = (*Recorder)(nil)

func (r *Recorder) Replace(to Route) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.routes = append(r.routes, to)
}

// Routes returns the navigation history, oldest first.
func (r *Recorder) Routes() []Route {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Route(nil), r.routes...)
}

// Current is the last route navigated to, or "" if none.
func (r *Recorder) Current() Route {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

// BrowserOpener opens URLs in the system browser.
type BrowserOpener struct{}

var _ Opener = BrowserOpener{}

func (BrowserOpener) Open(url string) error {
	log.Debug().Str("url", url).Msg("Opening browser")
	return browser.OpenURL(url)
}
