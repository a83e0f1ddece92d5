package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/token"
	"github.com/jrsteele09/go-task-client/token/refresh"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is the part of the application config the dev API reads
type Config interface {
	config.EnvConfig
	config.DevAPIConfig
	config.CorsConfig
}

// Repos holds the stores behind the API
type Repos struct {
	Users         users.UserRepo
	Tasks         tasks.Repo
	RefreshTokens refresh.Repo
}

// Server is an in-memory stand-in for the task management REST API. It is
// meant for local development and end-to-end tests of the client.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  Config
	repos   Repos
	tokens  *token.Manager
	refresh *refresh.Manager
	logger  zerolog.Logger
	nowFunc func() time.Time
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithNowFunc sets the clock used for tokens and timestamps (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(cfg Config, repos Repos, opts ...Option) (*Server, error) {
	if repos.Users == nil || repos.Tasks == nil || repos.RefreshTokens == nil {
		return nil, errors.New("[devapi.New] users, tasks and refresh token repos are required")
	}
	if len(cfg.GetJWTSecret()) == 0 {
		return nil, errors.New("[devapi.New] jwt secret is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		repos:   repos,
		logger:  log.With().Str("component", "devapi").Logger(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.tokens, err = token.NewManager(token.NewHMACSigner(string(cfg.GetJWTSecret())), cfg.GetAccessTokenExpiry(),
		token.WithNowFunc(s.nowFunc))
	if err != nil {
		return nil, fmt.Errorf("[devapi.New] failed to create token manager: %w", err)
	}
	s.refresh = refresh.NewManager(repos.RefreshTokens, cfg.GetRefreshTokenExpiry()).WithNowFunc(s.nowFunc)

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[devapi.New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}

// getScheme determines the scheme (http/https) the client used
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
