package repofakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/clinician-portal/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	lock    sync.RWMutex
	record  *session.Record
	loadErr error
	saveErr error
	saves   int
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// WithRecord seeds the repo as if a previous run had saved record.
func (r *FakeSessionRepo) WithRecord(record session.Record) *FakeSessionRepo {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = &record
	return r
}

// FailLoad makes every Load return err.
func (r *FakeSessionRepo) FailLoad(err error) *FakeSessionRepo {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.loadErr = err
	return r
}

// FailSave makes every Save return err.
func (r *FakeSessionRepo) FailSave(err error) *FakeSessionRepo {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saveErr = err
	return r
}

func (r *FakeSessionRepo) Load(_ context.Context) (session.Record, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.loadErr != nil {
		return session.Record{}, false, r.loadErr
	}
	if r.record == nil {
		return session.Record{}, false, nil
	}
	return *r.record, true, nil
}

func (r *FakeSessionRepo) Save(_ context.Context, record session.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.record = &record
	return nil
}

// Stored returns the last saved record, if any.
func (r *FakeSessionRepo) Stored() (session.Record, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.record == nil {
		return session.Record{}, false
	}
	return *r.record, true
}

// Saves counts Save calls, including failed ones.
func (r *FakeSessionRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}
