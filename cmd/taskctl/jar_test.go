package main

import (
	"bytes"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func cookieValue(j *fileJar, u *url.URL, name string) string {
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestFileJarKeepsSameNameCookiesApart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar, err := newFileJar(path, zerolog.Nop())
	require.NoError(t, err)

	jar.SetCookies(mustURL(t, "http://api.example.com/api/auth/login"),
		[]*http.Cookie{{Name: "refreshToken", Value: "auth", Path: "/api/auth", MaxAge: 3600}})
	jar.SetCookies(mustURL(t, "http://api.example.com/api/other/login"),
		[]*http.Cookie{{Name: "refreshToken", Value: "other", Path: "/api/other", MaxAge: 3600}})
	jar.SetCookies(mustURL(t, "http://files.example.com/api/auth/login"),
		[]*http.Cookie{{Name: "refreshToken", Value: "files", Path: "/api/auth", MaxAge: 3600}})

	reopened, err := newFileJar(path, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "auth", cookieValue(reopened, mustURL(t, "http://api.example.com/api/auth/refresh"), "refreshToken"))
	require.Equal(t, "other", cookieValue(reopened, mustURL(t, "http://api.example.com/api/other/x"), "refreshToken"))
	require.Equal(t, "files", cookieValue(reopened, mustURL(t, "http://files.example.com/api/auth/refresh"), "refreshToken"))

	// logout clears only the matching cookie
	reopened.SetCookies(mustURL(t, "http://api.example.com/api/auth/logout"),
		[]*http.Cookie{{Name: "refreshToken", Path: "/api/auth", MaxAge: -1}})
	again, err := newFileJar(path, zerolog.Nop())
	require.NoError(t, err)
	require.Empty(t, cookieValue(again, mustURL(t, "http://api.example.com/api/auth/refresh"), "refreshToken"))
	require.Equal(t, "other", cookieValue(again, mustURL(t, "http://api.example.com/api/other/x"), "refreshToken"))
}

func TestFileJarLogsSaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	var logs bytes.Buffer
	jar, err := newFileJar(filepath.Join(dir, "cookies.json"), zerolog.New(&logs))
	require.NoError(t, err)

	// a plain file where the directory should be
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))

	u := mustURL(t, "http://api.example.com/api/auth/refresh")
	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "rotated", Path: "/api/auth"}})

	require.Contains(t, logs.String(), "failed to persist cookie jar")
	require.Equal(t, "rotated", cookieValue(jar, u, "refreshToken"))
}
