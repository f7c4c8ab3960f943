package securestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitsync-app/fitsync/internal/backend"
)

func openStore(t *testing.T, path, passphrase string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, passphrase)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetRoundtrip(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"), "pass")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("secret value")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("secret value"), got)

	// overwrite
	require.NoError(t, s.Set(ctx, "k", []byte("updated")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("updated"), got)
}

func TestGet_MissingKeyIsNil(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"), "pass")

	got, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDelete(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"), "pass")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Delete(ctx, "k")) // idempotent
}

func TestWrongPassphraseFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	ctx := context.Background()

	s1 := openStore(t, path, "correct horse")
	require.NoError(t, s1.Set(ctx, "k", []byte("v")))
	require.NoError(t, s1.Close())

	s2 := openStore(t, path, "battery staple")
	_, err := s2.Get(ctx, "k")
	require.Error(t, err)
}

func TestSessionPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	ctx := context.Background()

	sess := &backend.Session{
		AccessToken:  "at",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		RefreshToken: "rt",
		User:         &backend.User{ID: "user-1", Email: "a@example.test"},
	}

	s1 := openStore(t, path, "pass")
	require.NoError(t, s1.SaveSession(ctx, sess))
	require.NoError(t, s1.Close())

	s2 := openStore(t, path, "pass")
	got, err := s2.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, sess, got)

	require.NoError(t, s2.ClearSession(ctx))
	got, err = s2.LoadSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}
