// Package catalog turns the backend's course lists into display entries.
package catalog

import (
	"context"

	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Entry is one course as shown to the user. An entry without a link is locked.
type Entry struct {
	ID    string
	Title string
	Link  string
}

// Locked reports whether the viewer cannot open the course.
func (e Entry) Locked() bool {
	return e.Link == ""
}

// Status is the text shown in place of the link.
func (e Entry) Status() string {
	if e.Locked() {
		return ComingSoon
	}
	return e.Link
}

// Catalog is the normalized result of one course fetch.
type Catalog struct {
	Purchased    []Entry
	Available    []Entry
	StandardPaid bool
	PremiumPaid  bool
	Loaded       bool // Set once a fetch has finished, whatever its outcome
}

// Entitled reports whether any paid plan is held.
func (c Catalog) Entitled() bool {
	return c.StandardPaid || c.PremiumPaid
}

// CourseFetcher loads the raw course lists.
type CourseFetcher interface {
	Courses(ctx context.Context, accessToken string) (*api.CoursesResponse, error)
}

// Loader fetches and normalizes the catalog.
type Loader struct {
	fetcher      CourseFetcher
	allAccessURL string
}

// NewLoader creates a Loader. cfg supplies the link any paid plan unlocks.
func NewLoader(fetcher CourseFetcher, cfg config.CatalogConfig) *Loader {
	return &Loader{fetcher: fetcher, allAccessURL: cfg.GetAllAccessURL()}
}

// Fetch loads the catalog for accessToken and returns any error.
func (l *Loader) Fetch(ctx context.Context, accessToken string) (Catalog, error) {
	resp, err := l.fetcher.Courses(ctx, accessToken)
	if err != nil {
		return Catalog{Purchased: []Entry{}, Available: []Entry{}, Loaded: true}, errors.Wrap(err, "[Loader.Fetch] fetch courses")
	}
	return Build(resp, l.allAccessURL), nil
}

// Load is Fetch for background use: failures are logged and yield an empty,
// loaded catalog.
func (l *Loader) Load(ctx context.Context, accessToken string) Catalog {
	c, err := l.Fetch(ctx, accessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch courses")
	}
	return c
}

// Build normalizes a courses response. Any paid plan collapses both lists
// to the single all-access entry.
func Build(resp *api.CoursesResponse, allAccessURL string) Catalog {
	c := Catalog{Loaded: true}
	if resp == nil {
		c.Purchased, c.Available = []Entry{}, []Entry{}
		return c
	}
	c.StandardPaid = resp.IsStandardPaid
	c.PremiumPaid = resp.IsPremiumPaid

	if c.Entitled() {
		allAccess := Entry{ID: AllAccessID, Title: AllAccessTitle, Link: allAccessURL}
		c.Purchased = []Entry{allAccess}
		c.Available = []Entry{allAccess}
		return c
	}

	c.Purchased = entries(resp.Courses)
	c.Available = entries(resp.AllCourses)
	return c
}

func entries(courses []api.Course) []Entry {
	out := make([]Entry, 0, len(courses))
	for _, course := range courses {
		out = append(out, Entry{
			ID:    course.ID,
			Title: Title(course.ID, course.Name),
			Link:  course.Link,
		})
	}
	return out
}
