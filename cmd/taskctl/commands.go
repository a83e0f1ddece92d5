package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jrsteele09/go-task-client/dashboard"
	"github.com/jrsteele09/go-task-client/internal/utils"
	"github.com/jrsteele09/go-task-client/session"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

type command struct {
	needsSession bool
	run          func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var commands = map[string]command{
	"login":     {run: loginCmd},
	"register":  {run: registerCmd},
	"logout":    {needsSession: true, run: logoutCmd},
	"whoami":    {needsSession: true, run: whoamiCmd},
	"dashboard": {needsSession: true, run: dashboardCmd},
	"tasks":     {needsSession: true, run: tasksCmd},
	"users":     {needsSession: true, run: usersCmd},
}

var errUsage = errors.New("invalid arguments")

func loginCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cred, err := a.store.Login(ctx, session.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", cred.User.Username, cred.User.Role)
	return nil
}

func registerCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.store.Register(ctx, session.RegisterRequest{Username: *username, Email: *email, Password: *password}); err != nil {
		return err
	}
	fmt.Fprintln(out, "registered, now run: taskctl login")
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string, out io.Writer) error {
	a.store.Logout(ctx)
	fmt.Fprintln(out, "logged out")
	return nil
}

func whoamiCmd(_ context.Context, a *app, _ []string, out io.Writer) error {
	cred, ok := a.store.Credential()
	if !ok {
		return session.ErrNoSession
	}
	fmt.Fprintf(out, "%s <%s> role=%s id=%s\n", cred.User.Username, cred.User.Email, cred.User.Role, cred.User.ID)
	return nil
}

func dashboardCmd(ctx context.Context, a *app, _ []string, out io.Writer) error {
	view, err := dashboard.Load(ctx, a.store, a.users, a.tasks)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Welcome, %s\n\n", view.User.Username)
	s := view.Stats
	fmt.Fprintf(out, "tasks: %d  pending: %d  started: %d  completed: %d  awaiting response: %d\n\n",
		s.Total, s.Pending, s.Started, s.Completed, s.AwaitingResponse)

	if view.Users != nil {
		fmt.Fprintf(out, "users (%d total)\n", view.Users.TotalUsers)
		printUsers(out, view.Users.Users)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "tasks")
	printTasks(out, view.Tasks)
	if view.Assigned != nil {
		fmt.Fprintln(out, "\nassigned to you")
		printTasks(out, view.Assigned)
	}
	return nil
}

func tasksCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("tasks: %w: missing subcommand", errUsage)
	}
	sub, args := args[0], args[1:]
	fs := flag.NewFlagSet("tasks "+sub, flag.ContinueOnError)

	switch sub {
	case "list":
		all := fs.Bool("all", false, "every task (admin)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list := a.tasks.List
		if *all {
			list = a.tasks.AdminList
		}
		found, err := list(ctx)
		if err != nil {
			return err
		}
		printTasks(out, found)

	case "assigned":
		list, err := a.tasks.Assigned(ctx)
		if err != nil {
			return err
		}
		printTasks(out, list)

	case "create":
		title := fs.String("title", "", "task title")
		desc := fs.String("description", "", "task description")
		due := fs.String("due", "", "due date, YYYY-MM-DD")
		status := fs.String("status", "", "pending, started or completed")
		if err := fs.Parse(args); err != nil {
			return err
		}
		task, err := a.tasks.Create(ctx, tasks.Input{Title: *title, Description: *desc, DueDate: *due, Status: tasks.Status(*status)})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", task.ID)

	case "update":
		id := fs.String("id", "", "task id")
		admin := fs.Bool("admin", false, "update any task (admin)")
		title := fs.String("title", "", "new title")
		desc := fs.String("description", "", "new description")
		due := fs.String("due", "", "new due date, YYYY-MM-DD")
		status := fs.String("status", "", "new status")
		if err := fs.Parse(args); err != nil {
			return err
		}
		u := changedFields(fs, title, desc, due, status)
		update := a.tasks.Update
		if *admin {
			update = a.tasks.AdminUpdate
		}
		task, err := update(ctx, *id, u)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s status=%s\n", task.ID, task.Status)

	case "delete":
		id := fs.String("id", "", "task id")
		admin := fs.Bool("admin", false, "delete any task (admin)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		del := a.tasks.Delete
		if *admin {
			del = a.tasks.AdminDelete
		}
		if err := del(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", *id)

	case "assign":
		user := fs.String("user", "", "assignee user id")
		title := fs.String("title", "", "task title")
		desc := fs.String("description", "", "task description")
		due := fs.String("due", "", "due date, YYYY-MM-DD")
		if err := fs.Parse(args); err != nil {
			return err
		}
		task, err := a.tasks.Assign(ctx, tasks.Assignment{Title: *title, Description: *desc, DueDate: *due, UserID: *user})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "assigned %s to %s\n", task.ID, utils.Value(task.AssignedTo).Username)

	case "respond":
		id := fs.String("id", "", "task id")
		response := fs.String("response", "", "accepted or rejected")
		if err := fs.Parse(args); err != nil {
			return err
		}
		task, err := a.tasks.Respond(ctx, *id, tasks.AssignmentStatus(*response))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", task.AssignmentStatus, task.ID)

	default:
		return fmt.Errorf("tasks %s: %w", sub, errUsage)
	}
	return nil
}

// changedFields builds an update from the flags given on the command line only
func changedFields(fs *flag.FlagSet, title, desc, due, status *string) tasks.Update {
	var u tasks.Update
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			u.Title = utils.Ptr(*title)
		case "description":
			u.Description = utils.Ptr(*desc)
		case "due":
			u.DueDate = utils.Ptr(*due)
		case "status":
			u.Status = utils.Ptr(tasks.Status(*status))
		}
	})
	return u
}

func usersCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("users: %w: missing subcommand", errUsage)
	}
	sub, args := args[0], args[1:]
	fs := flag.NewFlagSet("users "+sub, flag.ContinueOnError)

	switch sub {
	case "list":
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", dashboard.AdminUsersPageSize, "users per page")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := a.users.List(ctx, *page, *limit)
		if err != nil {
			return err
		}
		printUsers(out, p.Users)
		fmt.Fprintf(out, "page %d of %d (%d users)\n", p.CurrentPage, p.TotalPages, p.TotalUsers)

	case "create":
		username := fs.String("username", "", "display name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		role := fs.String("role", string(users.RoleUser), "user or admin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		u, err := a.users.Create(ctx, users.Input{Username: *username, Email: *email, Password: *password, Role: users.RoleType(*role)})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", u.ID)

	case "delete":
		id := fs.String("id", "", "user id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.users.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", *id)

	default:
		return fmt.Errorf("users %s: %w", sub, errUsage)
	}
	return nil
}

func printTasks(out io.Writer, list []*tasks.Task) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDUE\tASSIGNMENT\tFROM")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.DueDate, t.AssignmentStatus, utils.Value(t.AssignedBy).Username)
	}
	_ = w.Flush()
}

func printUsers(out io.Writer, list []*users.User) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	_ = w.Flush()
}
