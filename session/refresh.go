package session

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
)

// refreshState is the single-flight state machine. The only transition out of
// refreshIdle is enqueueWaiter, under refreshMu.
type refreshState int

const (
	refreshIdle refreshState = iota
	refreshInFlight
)

type refreshResult struct {
	token string
	err   error
}

// RefreshShared obtains a new access token, sharing one server call between
// every caller that arrives while it is in flight. Callers are queued in
// arrival order and all receive the same outcome: the new token, or a
// *errors.RefreshError after which the session has been cleared.
//
// The server call runs detached from ctx so one caller giving up cannot fail
// it for the others; ctx only bounds how long this caller waits.
func (s *Store) RefreshShared(ctx context.Context) (string, error) {
	ch := make(chan refreshResult, 1)
	if s.enqueueWaiter(func(r refreshResult) { ch <- r }) {
		go s.runRefresh(context.WithoutCancel(ctx))
	}

	select {
	case r := <-ch:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Refreshing reports whether a refresh call is in flight
func (s *Store) Refreshing() bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh == refreshInFlight
}

// Waiting returns how many callers are queued on the in-flight refresh
func (s *Store) Waiting() int {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return len(s.waiters)
}

// enqueueWaiter appends fn to the waiter queue and reports whether the caller
// moved the state machine from idle to in-flight and so owns the server call.
func (s *Store) enqueueWaiter(fn func(refreshResult)) (leader bool) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.waiters = append(s.waiters, fn)
	if s.refresh == refreshInFlight {
		return false
	}
	s.refresh = refreshInFlight
	return true
}

// settle drains every waiter in FIFO order, then returns to idle. Both happen
// under refreshMu so no caller can join a refresh that has already settled.
func (s *Store) settle(r refreshResult) int {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	waiters := s.waiters
	s.waiters = nil
	for _, w := range waiters {
		w(r)
	}
	s.refresh = refreshIdle
	return len(waiters)
}

func (s *Store) runRefresh(ctx context.Context) {
	start := s.nowTime()
	callCtx := ctx
	if s.refreshTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.refreshTimeout)
		defer cancel()
	}

	cred, err := s.auth.Refresh(callCtx)
	if err == nil {
		cred, err = s.completeIdentity(cred)
	}

	if err != nil {
		refreshErr := &apperrors.RefreshError{Cause: err}
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("failed to remove session record after refresh failure")
		}
		n := s.settle(refreshResult{err: refreshErr})
		s.logger.Warn().Err(err).Int("waiters", n).Msg("session refresh failed, session cleared")
		return
	}

	if persistErr := s.SetCredential(ctx, *cred); persistErr != nil {
		s.logger.Warn().Err(persistErr).Msg("refreshed session not persisted")
	}
	n := s.settle(refreshResult{token: cred.AccessToken})
	s.logger.Debug().Int("waiters", n).Dur("took", s.nowTime().Sub(start).Round(time.Millisecond)).Msg("session refreshed")
}

// completeIdentity fills in the identity when the refresh response carried
// only a token, keeping the user the session already had.
func (s *Store) completeIdentity(cred *Credential) (*Credential, error) {
	if cred == nil || cred.AccessToken == "" {
		return nil, ErrPartialCredential
	}
	if cred.User.ID == "" {
		current, ok := s.Credential()
		if !ok {
			return nil, ErrPartialCredential
		}
		cred.User = current.User
	}
	return cred, nil
}
