package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// savedCookie is a cookie together with the URL that set it
type savedCookie struct {
	URL    string       `json:"url"`
	Cookie *http.Cookie `json:"cookie"`
}

// fileJar keeps the refresh cookie across CLI invocations, which a browser
// does for free. Every SetCookies rewrites the file. Cookies are keyed by
// name, domain and path like the jar itself keys them.
type fileJar struct {
	*cookiejar.Jar
	path   string
	logger zerolog.Logger

	mu    sync.Mutex
	saved map[string]savedCookie
}

func newFileJar(path string, logger zerolog.Logger) (*fileJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &fileJar{Jar: inner, path: path, logger: logger, saved: map[string]savedCookie{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("ignoring unreadable cookie jar")
		return j, nil
	}
	now := time.Now()
	for _, sc := range saved {
		u, err := url.Parse(sc.URL)
		if err != nil || sc.Cookie == nil {
			continue
		}
		if !sc.Cookie.Expires.IsZero() && sc.Cookie.Expires.Before(now) {
			continue
		}
		// MaxAge is relative to when the cookie was received
		sc.Cookie.MaxAge = 0
		j.Jar.SetCookies(u, []*http.Cookie{sc.Cookie})
		j.saved[cookieKey(u, sc.Cookie)] = sc
	}
	return j, nil
}

func (j *fileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		key := cookieKey(u, c)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.saved, key)
			continue
		}
		cc := *c
		if cc.MaxAge > 0 {
			cc.Expires = now.Add(time.Duration(cc.MaxAge) * time.Second)
		}
		j.saved[key] = savedCookie{URL: u.String(), Cookie: &cc}
	}
	if err := j.save(); err != nil {
		// the next run will start logged out
		j.logger.Error().Err(err).Str("path", j.path).Msg("failed to persist cookie jar")
	}
}

// cookieKey is name, domain and path, falling back to the host and the
// request's default path the way a jar scopes a cookie without them
func cookieKey(u *url.URL, c *http.Cookie) string {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	p := c.Path
	if p == "" || p[0] != '/' {
		p = path.Dir(u.Path)
		if p == "." {
			p = "/"
		}
	}
	return c.Name + ";" + domain + ";" + p
}

// save must be called with mu held
func (j *fileJar) save() error {
	list := make([]savedCookie, 0, len(j.saved))
	for _, sc := range j.saved {
		list = append(list, sc)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
