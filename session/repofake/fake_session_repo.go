package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-task-client/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps the session record in memory. Records are stored by
// value so callers cannot mutate them after Save.
type FakeSessionRepo struct {
	record *session.Credential
	saves  int
	lock   sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// NewFakeSessionRepoWith starts with cred already persisted
func NewFakeSessionRepoWith(cred session.Credential) *FakeSessionRepo {
	return &FakeSessionRepo{record: &cred}
}

func (r *FakeSessionRepo) Load(_ context.Context) (*session.Credential, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.record == nil {
		return nil, nil
	}
	c := *r.record
	return &c, nil
}

func (r *FakeSessionRepo) Save(_ context.Context, cred session.Credential) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = &cred
	r.saves++
	return nil
}

func (r *FakeSessionRepo) Remove(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = nil
	return nil
}

// Saves returns how many times Save has been called
func (r *FakeSessionRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}
