package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/authapi"
	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/session"
	fakesessionrepo "github.com/jrsteele09/go-task-client/session/repofake"
	"github.com/jrsteele09/go-task-client/transport"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// pipeline is a store, its auth client and an authenticated API client, all
// pointed at one test server
type pipeline struct {
	store  *session.Store
	api    *apiclient.Client
	server *httptest.Server

	refreshGate   chan struct{}
	refreshStatus int
	refreshCalls  atomic.Int32
	tasks         *recorder
	ok            *recorder
	wait          func()
}

func newPipeline(t *testing.T, refreshStatus int) *pipeline {
	t.Helper()
	p := &pipeline{
		refreshGate:   make(chan struct{}),
		refreshStatus: refreshStatus,
		tasks:         &recorder{accept: "T2"},
		ok:            &recorder{accept: "T1"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+authapi.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
		p.refreshCalls.Add(1)
		<-p.refreshGate
		if p.refreshStatus != http.StatusOK {
			w.WriteHeader(p.refreshStatus)
			_, _ = w.Write([]byte(`{"message":"Invalid refresh token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "T2"})
	})
	mux.Handle("/api/tasks", p.tasks)
	mux.Handle("/api/users/me", p.ok)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	auth, err := authapi.New(apiclient.New(p.server.URL, apiclient.WithDoer(&http.Client{Jar: jar})))
	require.NoError(t, err)
	p.store, err = session.New(auth, fakesessionrepo.NewFakeSessionRepo(), session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NoError(t, p.store.SetCredential(context.Background(), session.Credential{
		AccessToken: "T1",
		User:        session.Identity{ID: "u1", Role: users.RoleUser},
	}))

	httpClient, err := transport.NewHTTPClient(p.store, jar,
		transport.WithRefreshPath(auth.RefreshPath()),
		transport.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	p.api = apiclient.New(p.server.URL, apiclient.WithDoer(httpClient))
	return p
}

func (p *pipeline) concurrentGets(n int) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.api.Get(context.Background(), "/api/tasks", nil)
		}(i)
	}
	p.wait = wg.Wait
	return errs
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	p := newPipeline(t, http.StatusOK)

	errs := p.concurrentGets(3)
	require.Eventually(t, func() bool { return p.store.Waiting() == 3 }, 2*time.Second, time.Millisecond)
	close(p.refreshGate)
	p.wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), p.refreshCalls.Load())
	require.Equal(t, "T2", p.store.AccessToken())

	var first, replays int
	for _, a := range p.tasks.Attempts() {
		switch a.auth {
		case "Bearer T1":
			first++
		case "Bearer T2":
			replays++
		}
	}
	require.Equal(t, 3, first)
	require.Equal(t, 3, replays)
}

func TestRefreshFailureFailsEveryWaiterAndLogsOut(t *testing.T) {
	p := newPipeline(t, http.StatusUnauthorized)

	var last session.State
	p.store.Subscribe(func(st session.State) { last = st })

	errs := p.concurrentGets(3)
	require.Eventually(t, func() bool { return p.store.Waiting() == 3 }, 2*time.Second, time.Millisecond)
	close(p.refreshGate)
	p.wait()

	for _, err := range errs {
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
	require.Equal(t, int32(1), p.refreshCalls.Load())
	require.Equal(t, session.StatusAbsent, p.store.Status())
	require.Equal(t, session.StatusAbsent, last.Status)
	require.Len(t, p.tasks.Attempts(), 3)
}

func TestCallWithout401KeepsItsTokenWhileRefreshInFlight(t *testing.T) {
	p := newPipeline(t, http.StatusOK)

	errs := p.concurrentGets(2)
	require.Eventually(t, func() bool { return p.store.Waiting() == 2 }, 2*time.Second, time.Millisecond)

	// completes while the refresh is still parked on the gate
	require.NoError(t, p.api.Get(context.Background(), "/api/users/me", nil))
	require.True(t, p.store.Refreshing())
	require.Equal(t, 2, p.store.Waiting())

	attempts := p.ok.Attempts()
	require.Len(t, attempts, 1)
	require.Equal(t, "Bearer T1", attempts[0].auth)

	close(p.refreshGate)
	p.wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), p.refreshCalls.Load())
}
