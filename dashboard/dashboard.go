package dashboard

import (
	"context"

	"github.com/jrsteele09/go-task-client/session"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
	"golang.org/x/sync/errgroup"
)

// ErrNotAuthenticated is returned when the restored session is absent
var ErrNotAuthenticated = session.ErrNoSession

// AdminUsersPageSize is how many users an admin dashboard lists
const AdminUsersPageSize = 10

type Session interface {
	WaitReady(ctx context.Context) error
	Credential() (session.Credential, bool)
}

type UserLister interface {
	List(ctx context.Context, page, limit int) (*users.Page, error)
}

type TaskLister interface {
	List(ctx context.Context) ([]*tasks.Task, error)
	AdminList(ctx context.Context) ([]*tasks.Task, error)
	Assigned(ctx context.Context) ([]*tasks.Task, error)
}

// Stats counts tasks by progress
type Stats struct {
	Total            int
	Pending          int
	Started          int
	Completed        int
	AwaitingResponse int
}

// View is everything a dashboard shows for one identity
type View struct {
	User     session.Identity
	Users    *users.Page   // admin only
	Tasks    []*tasks.Task // all tasks for an admin, own tasks otherwise
	Assigned []*tasks.Task // user only
	Stats    Stats
}

// Load waits for the session to be resolved and fetches the dashboard for
// its role. The requests run concurrently; the first failure cancels the rest.
func Load(ctx context.Context, sess Session, userAPI UserLister, taskAPI TaskLister) (*View, error) {
	if err := sess.WaitReady(ctx); err != nil {
		return nil, err
	}
	cred, ok := sess.Credential()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	view := &View{User: cred.User}
	g, gctx := errgroup.WithContext(ctx)

	if cred.User.IsAdmin() {
		g.Go(func() (err error) {
			view.Users, err = userAPI.List(gctx, 1, AdminUsersPageSize)
			return err
		})
		g.Go(func() (err error) {
			view.Tasks, err = taskAPI.AdminList(gctx)
			return err
		})
	} else {
		g.Go(func() (err error) {
			view.Tasks, err = taskAPI.List(gctx)
			return err
		})
		g.Go(func() (err error) {
			view.Assigned, err = taskAPI.Assigned(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	view.Stats = Count(view.Tasks)
	return view, nil
}

// Count tallies tasks by status
func Count(list []*tasks.Task) Stats {
	s := Stats{Total: len(list)}
	for _, t := range list {
		switch t.Status {
		case tasks.StatusPending:
			s.Pending++
		case tasks.StatusStarted:
			s.Started++
		case tasks.StatusCompleted:
			s.Completed++
		}
		if t.AssignmentStatus == tasks.AssignmentAssigned {
			s.AwaitingResponse++
		}
	}
	return s
}
