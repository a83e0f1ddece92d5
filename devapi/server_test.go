package devapi_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/authapi"
	"github.com/jrsteele09/go-task-client/dashboard"
	"github.com/jrsteele09/go-task-client/devapi"
	"github.com/jrsteele09/go-task-client/internal/config"
	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/internal/utils"
	"github.com/jrsteele09/go-task-client/session"
	fakesessionrepo "github.com/jrsteele09/go-task-client/session/repofake"
	"github.com/jrsteele09/go-task-client/tasks"
	faketaskrepo "github.com/jrsteele09/go-task-client/tasks/repofake"
	refreshrepofake "github.com/jrsteele09/go-task-client/token/refresh/repofake"
	"github.com/jrsteele09/go-task-client/transport"
	"github.com/jrsteele09/go-task-client/users"
	fakeuserrepo "github.com/jrsteele09/go-task-client/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin1234"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testClient is one logged-in (or not) user of the API with the full client stack
type testClient struct {
	store   *session.Store
	users   *users.Client
	tasks   *tasks.Client
	jar     http.CookieJar
	metrics *transport.Metrics
}

func setupServer(t *testing.T) (*httptest.Server, *clock) {
	t.Helper()
	clk := &clock{now: time.Now()}
	srv, err := devapi.New(config.New(), devapi.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Tasks:         faketaskrepo.NewFakeTaskRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, devapi.WithLogger(zerolog.Nop()), devapi.WithNowFunc(clk.Now))
	require.NoError(t, err)

	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)
	return server, clk
}

func newClient(t *testing.T, baseURL string, jar http.CookieJar) *testClient {
	t.Helper()
	if jar == nil {
		var err error
		jar, err = cookiejar.New(nil)
		require.NoError(t, err)
	}

	auth, err := authapi.New(apiclient.New(baseURL, apiclient.WithDoer(&http.Client{Jar: jar})))
	require.NoError(t, err)
	store, err := session.New(auth, fakesessionrepo.NewFakeSessionRepo(), session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	metrics := transport.NewMetrics(prometheus.NewRegistry(), "taskclient")
	httpClient, err := transport.NewHTTPClient(store, jar,
		transport.WithMetrics(metrics),
		transport.WithRefreshPath(auth.RefreshPath()),
		transport.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	api := apiclient.New(baseURL, apiclient.WithDoer(httpClient))
	return &testClient{store: store, users: users.NewClient(api), tasks: tasks.NewClient(api), jar: jar, metrics: metrics}
}

func login(t *testing.T, c *testClient, email, password string) {
	t.Helper()
	_, err := c.store.Login(context.Background(), session.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
}

func refreshCookie(t *testing.T, jar http.CookieJar, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL + devapi.RouteAuthRefresh)
	require.NoError(t, err)
	for _, c := range jar.Cookies(u) {
		if c.Name == "refreshToken" {
			return c.Value
		}
	}
	return ""
}

func TestAdminDashboard(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	admin := newClient(t, server.URL, nil)
	login(t, admin, adminEmail, adminPassword)

	bob, err := admin.users.Create(ctx, users.Input{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, users.RoleUser, bob.Role)

	_, err = admin.tasks.Create(ctx, tasks.Input{Title: "Write report", DueDate: "2025-07-01"})
	require.NoError(t, err)

	view, err := dashboard.Load(ctx, admin.store, admin.users, admin.tasks)
	require.NoError(t, err)
	require.True(t, view.User.IsAdmin())
	require.Equal(t, 2, view.Users.TotalUsers)
	require.Len(t, view.Tasks, 1)
	require.Equal(t, 1, view.Stats.Pending)
}

func TestExpiredAccessTokenIsRefreshedAndCookieRotated(t *testing.T) {
	server, clk := setupServer(t)
	ctx := context.Background()
	admin := newClient(t, server.URL, nil)
	login(t, admin, adminEmail, adminPassword)

	firstToken := admin.store.AccessToken()
	oldCookie := refreshCookie(t, admin.jar, server.URL)
	require.NotEmpty(t, oldCookie)

	clk.Advance(16 * time.Minute)

	view, err := dashboard.Load(ctx, admin.store, admin.users, admin.tasks)
	require.NoError(t, err)
	require.NotNil(t, view.Users)

	require.NotEqual(t, firstToken, admin.store.AccessToken())
	require.Equal(t, session.StatusPresent, admin.store.Status())
	require.Equal(t, 2.0, testutil.ToFloat64(admin.metrics.Unauthorized))
	require.Equal(t, 2.0, testutil.ToFloat64(admin.metrics.Replay.WithLabelValues("success")))

	newCookie := refreshCookie(t, admin.jar, server.URL)
	require.NotEmpty(t, newCookie)
	require.NotEqual(t, oldCookie, newCookie)

	// the rotated-out refresh token is dead
	req, err := http.NewRequest(http.MethodPost, server.URL+devapi.RouteAuthRefresh, strings.NewReader("{}"))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: oldCookie})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpiredRefreshTokenLogsOut(t *testing.T) {
	server, clk := setupServer(t)
	admin := newClient(t, server.URL, nil)
	login(t, admin, adminEmail, adminPassword)

	clk.Advance(8 * 24 * time.Hour)

	_, err := admin.tasks.AdminList(context.Background())
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, session.StatusAbsent, admin.store.Status())
}

func TestAssignAndRespond(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	admin := newClient(t, server.URL, nil)
	login(t, admin, adminEmail, adminPassword)

	bobUser, err := admin.users.Create(ctx, users.Input{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	bob := newClient(t, server.URL, nil)
	login(t, bob, "bob@example.com", "password123")

	assigned, err := admin.tasks.Assign(ctx, tasks.Assignment{Title: "Review PR", UserID: bobUser.ID})
	require.NoError(t, err)
	require.Equal(t, tasks.AssignmentAssigned, assigned.AssignmentStatus)
	require.Equal(t, "admin", assigned.AssignedBy.Username)

	view, err := dashboard.Load(ctx, bob.store, bob.users, bob.tasks)
	require.NoError(t, err)
	require.Empty(t, view.Tasks)
	require.Len(t, view.Assigned, 1)

	_, err = bob.tasks.Respond(ctx, assigned.ID, tasks.AssignmentSelfCreated)
	require.ErrorIs(t, err, tasks.ErrInvalidResponse)

	accepted, err := bob.tasks.Respond(ctx, assigned.ID, tasks.AssignmentAccepted)
	require.NoError(t, err)
	require.Equal(t, tasks.AssignmentAccepted, accepted.AssignmentStatus)

	_, err = bob.tasks.Respond(ctx, assigned.ID, tasks.AssignmentRejected)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err := bob.tasks.Update(ctx, assigned.ID, tasks.Update{Status: utils.Ptr(tasks.StatusStarted)})
	require.NoError(t, err)
	require.Equal(t, tasks.StatusStarted, updated.Status)

	own, err := bob.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
}

func TestUserCannotUseAdminRoutes(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	bob := newClient(t, server.URL, nil)
	require.NoError(t, bob.store.Register(ctx, session.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password123"}))
	login(t, bob, "bob@example.com", "password123")

	_, err := bob.users.List(ctx, 1, 10)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = bob.tasks.AdminList(ctx)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Equal(t, 0.0, testutil.ToFloat64(bob.metrics.Unauthorized))

	me, err := bob.users.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob", me.Username)
}

func TestRegisterValidation(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	c := newClient(t, server.URL, nil)

	err := c.store.Register(ctx, session.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "short"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	err = c.store.Register(ctx, session.RegisterRequest{Username: "bob", Email: adminEmail, Password: "password123"})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = c.store.Login(ctx, session.LoginRequest{Email: adminEmail, Password: "wrong-password"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, session.StatusUnknown, c.store.Status())
}

func TestRestoreUsesRefreshCookie(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	first := newClient(t, server.URL, nil)
	login(t, first, adminEmail, adminPassword)

	// a second process sharing the cookie jar recovers the session
	second := newClient(t, server.URL, first.jar)
	require.NoError(t, second.store.Restore(ctx))
	require.Equal(t, session.StatusPresent, second.store.Status())
	cred, ok := second.store.Credential()
	require.True(t, ok)
	require.Equal(t, adminEmail, cred.User.Email)
	require.True(t, cred.User.IsAdmin())

	second.store.Logout(ctx)
	require.Equal(t, session.StatusAbsent, second.store.Status())

	third := newClient(t, server.URL, first.jar)
	require.NoError(t, third.store.Restore(ctx))
	require.Equal(t, session.StatusAbsent, third.store.Status())
}

func TestCorsPreflight(t *testing.T) {
	server, _ := setupServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+devapi.RouteTasks, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
