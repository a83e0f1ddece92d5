package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Status is the tri-state view of the session. Unknown lasts until the first
// restore, login or clear resolves it, so a momentary absence is never
// mistaken for a logged out user.
type Status int

const (
	StatusUnknown Status = iota
	StatusAbsent
	StatusPresent
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusPresent:
		return "present"
	}
	return "unknown"
}

// State is a snapshot handed to subscribers
type State struct {
	Status     Status
	Credential *Credential
}

type subscriber struct {
	id int
	fn func(State)
}

// Store is the single source of truth for the current credential. It owns the
// persisted record, the subscriber list and the single-flight refresh state.
type Store struct {
	auth           Authenticator
	repo           Repo
	logger         zerolog.Logger
	nowTime        func() time.Time
	refreshTimeout time.Duration

	// writeMu serialises mutations so that memory, the persisted record and
	// subscriber notifications always happen in the same order.
	writeMu sync.Mutex

	mu          sync.RWMutex
	cred        *Credential
	status      Status
	subscribers []subscriber
	nextSubID   int

	refreshMu sync.Mutex
	refresh   refreshState
	waiters   []func(refreshResult)

	restoreOnce sync.Once
	restoreErr  error
	ready       chan struct{}
	readyOnce   sync.Once
}

// Option configures the Store
type Option func(*Store)

// WithLogger sets the logger used for session events
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithRefreshTimeout bounds each refresh call. Zero, the default, waits for
// the server indefinitely.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.refreshTimeout = d
	}
}

// New creates a Store. The session starts in StatusUnknown; call Restore once
// at startup.
func New(auth Authenticator, repo Repo, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, errors.New("[session.New] authenticator is required")
	}
	if repo == nil {
		return nil, errors.New("[session.New] repo is required")
	}

	s := &Store{
		auth:    auth,
		repo:    repo,
		logger:  log.With().Str("component", "session").Logger(),
		nowTime: time.Now,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the persisted record into memory without contacting the server.
// Records with a partial identity or an expired JWT are discarded. Status is
// not changed; only Restore, Login and Clear resolve it.
func (s *Store) Load(ctx context.Context) (*Credential, error) {
	cred, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Store.Load] failed to read session record")
	}
	if cred == nil {
		return nil, nil
	}

	if !cred.Valid() || cred.Expired(s.nowTime()) {
		s.logger.Info().Msg("discarding stale session record")
		if err := s.repo.Remove(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to remove stale session record")
		}
		return nil, nil
	}

	s.writeMu.Lock()
	s.mu.Lock()
	c := *cred
	s.cred = &c
	s.mu.Unlock()
	s.writeMu.Unlock()
	return cred, nil
}

// Restore recovers the session at startup: it loads the persisted record and
// then asks the server for a fresh access token using only the refresh cookie.
// It runs once per Store; later and concurrent calls get the first outcome.
// A failed refresh leaves the session absent and is not an error. If ctx ends
// first the status stays unknown until the in-flight refresh settles.
func (s *Store) Restore(ctx context.Context) error {
	s.restoreOnce.Do(func() {
		if _, err := s.Load(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("ignoring unreadable session record")
		}

		if _, err := s.RefreshShared(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.restoreErr = ctxErr
			}
			s.logger.Debug().Err(err).Msg("no session to restore")
		}
	})
	return s.restoreErr
}

// Ready is closed once the session status has been resolved
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the status is resolved or ctx ends
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login exchanges credentials for a session. On failure any existing session
// is left untouched.
func (s *Store) Login(ctx context.Context, req LoginRequest) (*Credential, error) {
	cred, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if cred == nil || !cred.Valid() {
		return nil, apperrors.Wrapf(ErrPartialCredential, "[Store.Login]")
	}
	if err := s.SetCredential(ctx, *cred); err != nil {
		s.logger.Warn().Err(err).Msg("session not persisted after login")
	}
	s.logger.Info().Str("user_id", cred.User.ID).Str("role", string(cred.User.Role)).Msg("logged in")
	return cred, nil
}

// Register creates an account. It never changes the session.
func (s *Store) Register(ctx context.Context, req RegisterRequest) error {
	return s.auth.Register(ctx, req)
}

// Logout tells the server to drop the refresh cookie and clears the local
// session whatever the server says.
func (s *Store) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
	if err := s.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remove session record")
	}
	s.logger.Info().Msg("logged out")
}

// SetCredential replaces the current credential, persists it and notifies
// subscribers. Partial credentials are rejected. A persistence failure is
// returned but the in-memory session is still updated.
func (s *Store) SetCredential(ctx context.Context, cred Credential) error {
	if !cred.Valid() {
		return ErrPartialCredential
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	persistErr := s.repo.Save(ctx, cred)

	s.mu.Lock()
	c := cred
	s.cred = &c
	s.status = StatusPresent
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.notify()
	return apperrors.Wrapf(persistErr, "[Store.SetCredential] failed to persist session")
}

// Clear drops the credential and the persisted record and notifies
// subscribers. The in-memory session is cleared even if removal fails.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	removeErr := s.repo.Remove(ctx)

	s.mu.Lock()
	s.cred = nil
	s.status = StatusAbsent
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.notify()
	return apperrors.Wrapf(removeErr, "[Store.Clear] failed to remove session record")
}

// Credential returns a copy of the current credential
func (s *Store) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

// AccessToken returns the current access token or "" when absent
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.AccessToken
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns a snapshot of the status and credential
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	st := State{Status: s.status}
	if s.cred != nil {
		c := *s.cred
		st.Credential = &c
	}
	return st
}

var _ oauth2.TokenSource = (*Store)(nil)

// Token implements oauth2.TokenSource over the current credential
func (s *Store) Token() (*oauth2.Token, error) {
	cred, ok := s.Credential()
	if !ok {
		return nil, ErrNoSession
	}
	return cred.OAuth2Token(), nil
}

// Subscribe registers fn to be called after every change to the session.
// Callbacks run synchronously in subscription order and must not mutate the
// Store. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notify must be called with writeMu held
func (s *Store) notify() {
	s.mu.RLock()
	st := s.stateLocked()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(st)
	}
}

func (s *Store) String() string {
	st := s.State()
	if st.Credential == nil {
		return fmt.Sprintf("session(%s)", st.Status)
	}
	return fmt.Sprintf("session(%s user=%s role=%s)", st.Status, st.Credential.User.ID, st.Credential.User.Role)
}
