package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/authapi"
	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/session"
	"github.com/jrsteele09/go-task-client/session/filerepo"
	"github.com/jrsteele09/go-task-client/session/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-task-client/session/repofake"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/transport"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is the client stack for one CLI invocation
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	store   *session.Store
	users   *users.Client
	tasks   *tasks.Client
	metrics *prometheus.Registry
	closers []func() error
}

func newApp(cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: prometheus.NewRegistry()}

	repo, err := a.sessionRepo()
	if err != nil {
		return nil, err
	}

	jar, err := newFileJar(filepath.Join(filepath.Dir(cfg.GetSessionFile()), "cookies.json"), logger)
	if err != nil {
		return nil, fmt.Errorf("[newApp] failed to open cookie jar: %w", err)
	}

	baseURL := cfg.GetAPIBaseURL()
	auth, err := authapi.New(
		apiclient.New(baseURL, apiclient.WithDoer(&http.Client{Jar: jar, Timeout: cfg.GetRequestTimeout()})),
		authapi.WithRefreshPath(cfg.GetRefreshPath()),
	)
	if err != nil {
		return nil, err
	}

	a.store, err = session.New(auth, repo,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithRefreshTimeout(cfg.GetRefreshTimeout()),
	)
	if err != nil {
		return nil, err
	}

	httpClient, err := transport.NewHTTPClient(a.store, jar,
		transport.WithRefreshPath(cfg.GetRefreshPath()),
		transport.WithMetrics(transport.NewMetrics(a.metrics, "taskclient")),
		transport.WithLogger(logger.With().Str("component", "transport").Logger()),
	)
	if err != nil {
		return nil, err
	}
	httpClient.Timeout = cfg.GetRequestTimeout()

	api := apiclient.New(baseURL, apiclient.WithDoer(httpClient))
	a.users = users.NewClient(api)
	a.tasks = tasks.NewClient(api)
	return a, nil
}

func (a *app) sessionRepo() (session.Repo, error) {
	switch a.cfg.GetSessionStore() {
	case config.StoreMemory:
		return fakesessionrepo.NewFakeSessionRepo(), nil
	case config.StoreFile:
		return filerepo.New(a.cfg.GetSessionFile(), a.cfg.GetSessionKey())
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.GetRedisAddr(),
			Password: a.cfg.GetRedisPassword(),
			DB:       a.cfg.GetRedisDB(),
		})
		a.closers = append(a.closers, client.Close)
		return redisrepo.New(client, a.cfg.GetRedisPrefix(), a.cfg.GetSessionKey(), redisrepo.WithTTL(a.cfg.GetRedisTTL()))
	}
	return nil, fmt.Errorf("[app.sessionRepo] unknown session store %q", a.cfg.GetSessionStore())
}

// restore resolves the session before any command runs
func (a *app) restore(ctx context.Context) error {
	if err := a.store.Restore(ctx); err != nil {
		return err
	}
	a.logger.Debug().Stringer("session", a.store).Msg("session restored")
	return nil
}

// dumpMetrics logs the non-zero transport counters
func (a *app) dumpMetrics() {
	families, err := a.metrics.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if v := m.GetCounter().GetValue(); v > 0 {
				ev := a.logger.Debug().Str("metric", mf.GetName()).Float64("value", v)
				for _, l := range m.GetLabel() {
					ev = ev.Str(l.GetName(), l.GetValue())
				}
				ev.Msg("transport")
			}
		}
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
}
