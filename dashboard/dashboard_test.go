package dashboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/dashboard"
	"github.com/jrsteele09/go-task-client/session"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	ready chan struct{}
	cred  *session.Credential
}

func (s *fakeSession) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSession) Credential() (session.Credential, bool) {
	if s.cred == nil {
		return session.Credential{}, false
	}
	return *s.cred, true
}

func resolved(cred *session.Credential) *fakeSession {
	s := &fakeSession{ready: make(chan struct{}), cred: cred}
	close(s.ready)
	return s
}

type fakeAPI struct {
	listErr  error
	own      []*tasks.Task
	all      []*tasks.Task
	assigned []*tasks.Task
}

func (f *fakeAPI) List(context.Context) ([]*tasks.Task, error)      { return f.own, f.listErr }
func (f *fakeAPI) AdminList(context.Context) ([]*tasks.Task, error) { return f.all, nil }
func (f *fakeAPI) Assigned(context.Context) ([]*tasks.Task, error)  { return f.assigned, nil }

type fakeUsers struct {
	page *users.Page
}

func (f fakeUsers) List(_ context.Context, page, limit int) (*users.Page, error) {
	if page != 1 || limit != dashboard.AdminUsersPageSize {
		return nil, errors.New("unexpected page")
	}
	return f.page, nil
}

func TestLoadAdmin(t *testing.T) {
	sess := resolved(&session.Credential{AccessToken: "T", User: session.Identity{ID: "a1", Role: users.RoleAdmin}})
	api := &fakeAPI{all: []*tasks.Task{
		{ID: "1", Status: tasks.StatusPending, AssignmentStatus: tasks.AssignmentAssigned},
		{ID: "2", Status: tasks.StatusCompleted},
	}}
	page := &users.Page{TotalUsers: 2, TotalPages: 1, CurrentPage: 1}

	view, err := dashboard.Load(context.Background(), sess, fakeUsers{page: page}, api)
	require.NoError(t, err)
	require.Equal(t, page, view.Users)
	require.Len(t, view.Tasks, 2)
	require.Nil(t, view.Assigned)
	require.Equal(t, dashboard.Stats{Total: 2, Pending: 1, Completed: 1, AwaitingResponse: 1}, view.Stats)
}

func TestLoadUser(t *testing.T) {
	sess := resolved(&session.Credential{AccessToken: "T", User: session.Identity{ID: "u1", Role: users.RoleUser}})
	api := &fakeAPI{
		own:      []*tasks.Task{{ID: "1", Status: tasks.StatusStarted}},
		assigned: []*tasks.Task{{ID: "2", Status: tasks.StatusPending, AssignmentStatus: tasks.AssignmentAssigned}},
	}

	view, err := dashboard.Load(context.Background(), sess, fakeUsers{}, api)
	require.NoError(t, err)
	require.Nil(t, view.Users)
	require.Len(t, view.Tasks, 1)
	require.Len(t, view.Assigned, 1)
	require.Equal(t, 1, view.Stats.Started)
}

func TestLoadAbsentSession(t *testing.T) {
	_, err := dashboard.Load(context.Background(), resolved(nil), fakeUsers{}, &fakeAPI{})
	require.ErrorIs(t, err, dashboard.ErrNotAuthenticated)
}

func TestLoadWaitsForRestore(t *testing.T) {
	sess := &fakeSession{ready: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := dashboard.Load(ctx, sess, fakeUsers{}, &fakeAPI{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	sess := resolved(&session.Credential{AccessToken: "T", User: session.Identity{ID: "u1", Role: users.RoleUser}})

	_, err := dashboard.Load(context.Background(), sess, fakeUsers{}, &fakeAPI{listErr: boom})
	require.ErrorIs(t, err, boom)
}
