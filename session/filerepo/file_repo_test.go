package filerepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-task-client/session"
	"github.com/jrsteele09/go-task-client/session/filerepo"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/stretchr/testify/require"
)

func TestFileRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	repo, err := filerepo.New(path, "auth")
	require.NoError(t, err)

	cred, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, cred)

	want := session.Credential{
		AccessToken: "T1",
		User:        session.Identity{ID: "u1", Username: "alice", Role: users.RoleAdmin},
	}
	require.NoError(t, repo.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second repo on the same file sees the record
	other, err := filerepo.New(path, "auth")
	require.NoError(t, err)
	got, err := other.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	require.NoError(t, repo.Remove(ctx))
	got, err = other.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFileRepoKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	a, err := filerepo.New(path, "auth")
	require.NoError(t, err)
	b, err := filerepo.New(path, "auth-staging")
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, session.Credential{AccessToken: "A", User: session.Identity{ID: "1"}}))
	require.NoError(t, b.Save(ctx, session.Credential{AccessToken: "B", User: session.Identity{ID: "2"}}))
	require.NoError(t, a.Remove(ctx))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "B", got.AccessToken)
}

func TestFileRepoReadsDocumentStyleIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	raw := `{"auth":{"accessToken":"T1","user":{"_id":"64f1","username":"alice","role":"user"}}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	repo, err := filerepo.New(path, "auth")
	require.NoError(t, err)
	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "64f1", got.User.ID)
	require.True(t, got.Valid())
}

func TestFileRepoCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	repo, err := filerepo.New(path, "auth")
	require.NoError(t, err)
	_, err = repo.Load(context.Background())
	require.Error(t, err)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := filerepo.New("", "auth")
	require.Error(t, err)
	_, err = filerepo.New("session.json", "")
	require.Error(t, err)
}
