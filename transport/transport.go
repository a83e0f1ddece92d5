package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	HeaderRequestID = "X-Request-ID"

	DefaultRefreshPath = "/api/auth/refresh"

	// maxDrain is how much of a 401 body is read before closing it so the
	// connection can be reused
	maxDrain = 4 << 10
)

// Session is what the transport needs from the session store
type Session interface {
	oauth2.TokenSource
	RefreshShared(ctx context.Context) (string, error)
}

// Transport attaches the session's bearer token to outgoing requests and, on
// a 401, waits for the shared refresh and replays the request once with the
// new token. Requests to the refresh endpoint pass through untouched.
type Transport struct {
	session     Session
	base        http.RoundTripper
	refreshPath string
	metrics     *Metrics
	logger      zerolog.Logger
}

var _ http.RoundTripper = (*Transport)(nil)

// Option configures the Transport
type Option func(*Transport)

// WithBase sets the RoundTripper requests are sent on
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithRefreshPath sets the path of the refresh endpoint relative to the API
// base URL. A request whose path ends in it is never intercepted, so an API
// mounted under a prefix such as /v1 still matches.
func WithRefreshPath(path string) Option {
	return func(t *Transport) {
		if path != "" {
			t.refreshPath = path
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

func New(session Session, opts ...Option) (*Transport, error) {
	if session == nil {
		return nil, errors.New("[transport.New] session is required")
	}
	t := &Transport{
		session:     session,
		base:        http.DefaultTransport,
		refreshPath: DefaultRefreshPath,
		logger:      log.With().Str("component", "transport").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// NewHTTPClient returns an http.Client whose requests go through the
// Transport and share jar, the cookie jar holding the refresh cookie.
func NewHTTPClient(session Session, jar http.CookieJar, opts ...Option) (*http.Client, error) {
	t, err := New(session, opts...)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: t, Jar: jar}, nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isRefresh(req) {
		return t.base.RoundTrip(req)
	}

	first, err := t.prepare(req)
	if err != nil {
		closeBody(req)
		return nil, err
	}
	if first.Header.Get("Authorization") == "" {
		if tok, err := t.session.Token(); err == nil {
			tok.SetAuthHeader(first)
		}
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	t.metrics.unauthorized()
	drain(resp)

	reqLog := t.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", first.Header.Get(HeaderRequestID)).
		Logger()
	reqLog.Debug().Msg("401 received, waiting for session refresh")

	token, err := t.session.RefreshShared(req.Context())
	t.metrics.refreshed(err)
	if err != nil {
		reqLog.Debug().Err(err).Msg("refresh failed, not replaying")
		return nil, err
	}

	replay, err := t.replay(first, token)
	if err != nil {
		return nil, err
	}
	resp, err = t.base.RoundTrip(replay)
	switch {
	case err != nil:
		t.metrics.replayed(outcomeError)
	case resp.StatusCode == http.StatusUnauthorized:
		t.metrics.replayed(outcomeUnauthorized)
		reqLog.Warn().Msg("replay rejected with 401")
	default:
		t.metrics.replayed(outcomeSuccess)
	}
	return resp, err
}

func (t *Transport) isRefresh(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, t.refreshPath)
}

// prepare clones req, stamps a request id and makes the body replayable
func (t *Transport) prepare(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}

	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return r, nil
	}
	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	return r, nil
}

// replay builds the second attempt carrying token, whatever credential the
// first attempt had
func (t *Transport) replay(first *http.Request, token string) (*http.Request, error) {
	r := first.Clone(first.Context())
	if first.GetBody != nil {
		body, err := first.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(r)
	return r, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
