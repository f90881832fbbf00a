// Package checkout collects a plan and course selection and hands off to
// the payment processor's hosted page.
package checkout

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/internal/config"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/nav"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Plan is a purchasable tier.
type Plan string

const (
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// ParsePlan accepts "standard" or "premium".
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanStandard, PlanPremium:
		return Plan(s), nil
	}
	return "", errors.Wrapf(apperrors.ErrInvalidPlan, "%q", s)
}

// Backend is the subset of the API client used for checkout.
type Backend interface {
	CheckoutStandard(ctx context.Context, accessToken string, req api.StandardCheckoutRequest) (*api.CheckoutSession, error)
	CheckoutPremium(ctx context.Context, accessToken string, amount int) (*api.CheckoutSession, error)
	CheckoutPlan(ctx context.Context, accessToken string, amount int) (*api.CheckoutSession, error)
}

// Flow is the checkout form state. One checkout may be outstanding at a time.
type Flow struct {
	backend Backend
	store   *session.Store
	opener  nav.Opener
	pricing config.PricingConfig

	lock     sync.Mutex
	plan     Plan
	selected map[string]struct{}
	inFlight bool
}

// NewFlow creates an empty checkout form.
func NewFlow(backend Backend, store *session.Store, opener nav.Opener, pricing config.PricingConfig) *Flow {
	return &Flow{
		backend:  backend,
		store:    store,
		opener:   opener,
		pricing:  pricing,
		selected: make(map[string]struct{}),
	}
}

// SelectPlan starts a fresh selection for plan.
func (f *Flow) SelectPlan(plan Plan) error {
	if _, err := ParsePlan(string(plan)); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.plan = plan
	f.selected = make(map[string]struct{})
	return nil
}

// ToggleCourse adds id to the selection, or removes it if already selected.
// Only the standard plan takes a course selection.
func (f *Flow) ToggleCourse(id string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.plan != PlanStandard {
		return errors.Wrap(apperrors.ErrInvalidPlan, "[Flow.ToggleCourse] course selection needs the standard plan")
	}
	if _, ok := f.selected[id]; ok {
		delete(f.selected, id)
	} else {
		f.selected[id] = struct{}{}
	}
	return nil
}

// Plan is the selected plan, or "" if none.
func (f *Flow) Plan() Plan {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.plan
}

// Selected returns the selected course ids in sorted order.
func (f *Flow) Selected() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return slices.Sorted(maps.Keys(f.selected))
}

// InFlight reports whether a checkout request is outstanding.
func (f *Flow) InFlight() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.inFlight
}

// Amount is what Submit would charge for the current selection.
func (f *Flow) Amount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.amountLocked()
}

func (f *Flow) amountLocked() int {
	switch f.plan {
	case PlanStandard:
		return f.pricing.GetCoursePrice() * len(f.selected)
	case PlanPremium:
		return f.pricing.GetPremiumPrice()
	}
	return 0
}

// Submit requests a checkout session for the selection and opens its URL.
// A standard plan with no courses fails validation without a network call.
// On failure the selection is kept for a retry; on success it is cleared.
// A call made while another is outstanding returns ErrCheckoutInProgress and
// does nothing else.
func (f *Flow) Submit(ctx context.Context) (*api.CheckoutSession, error) {
	f.lock.Lock()
	if f.inFlight {
		f.lock.Unlock()
		return nil, apperrors.ErrCheckoutInProgress
	}
	plan := f.plan
	if plan == "" {
		f.lock.Unlock()
		return nil, apperrors.ErrInvalidPlan
	}
	if plan == PlanStandard && len(f.selected) == 0 {
		f.lock.Unlock()
		return nil, apperrors.ErrNoCoursesSelected
	}
	courseIDs := slices.Sorted(maps.Keys(f.selected))
	amount := f.amountLocked()
	f.inFlight = true
	f.lock.Unlock()

	cs, err := f.request(ctx, plan, amount, courseIDs)

	f.lock.Lock()
	defer f.lock.Unlock()
	f.inFlight = false
	if err != nil {
		return nil, err
	}
	f.plan = ""
	f.selected = make(map[string]struct{})
	return cs, nil
}

func (f *Flow) request(ctx context.Context, plan Plan, amount int, courseIDs []string) (*api.CheckoutSession, error) {
	token := f.store.Snapshot().AccessToken
	var (
		cs  *api.CheckoutSession
		err error
	)
	switch plan {
	case PlanStandard:
		cs, err = f.backend.CheckoutStandard(ctx, token, api.StandardCheckoutRequest{
			Amount:      amount,
			Currency:    f.pricing.GetCurrency(),
			Description: fmt.Sprintf("Standard plan - %d course(s)", len(courseIDs)),
			CourseIDs:   courseIDs,
		})
	default:
		cs, err = f.backend.CheckoutPremium(ctx, token, amount)
	}
	if err != nil {
		log.Warn().Err(err).Str("plan", string(plan)).Msg("Checkout failed")
		return nil, errors.Wrap(err, "[Flow.Submit] create checkout session")
	}
	return f.open(cs)
}

// PurchasePlan subscribes to a plan at amount through the generic checkout
// endpoint. It shares the in-flight guard with Submit.
func (f *Flow) PurchasePlan(ctx context.Context, amount int) (*api.CheckoutSession, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}

	f.lock.Lock()
	if f.inFlight {
		f.lock.Unlock()
		return nil, apperrors.ErrCheckoutInProgress
	}
	f.inFlight = true
	f.lock.Unlock()

	defer func() {
		f.lock.Lock()
		f.inFlight = false
		f.lock.Unlock()
	}()

	cs, err := f.backend.CheckoutPlan(ctx, f.store.Snapshot().AccessToken, amount)
	if err != nil {
		log.Warn().Err(err).Int("amount", amount).Msg("Plan checkout failed")
		return nil, errors.Wrap(err, "[Flow.PurchasePlan] create checkout session")
	}
	return f.open(cs)
}

func (f *Flow) open(cs *api.CheckoutSession) (*api.CheckoutSession, error) {
	if cs.URL == "" {
		return nil, apperrors.ErrNoCheckoutURL
	}
	if err := f.opener.Open(cs.URL); err != nil {
		return nil, errors.Wrap(err, "[Flow] open checkout page")
	}
	log.Info().Str("session_id", cs.SessionID).Int("amount", cs.Amount).Msg("Checkout opened")
	return cs, nil
}
