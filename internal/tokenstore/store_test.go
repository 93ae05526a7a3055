package tokenstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/favx/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	shared.ConfigureDatabase(db, 1, 1)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	return NewSQLiteStore(db)
}

// exercise runs the same contract against every backend.
func exercise(t *testing.T, s Store) {
	t.Helper()

	tok, ok, err := s.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tok)

	require.NoError(t, s.Remove(), "remove on empty store")

	require.NoError(t, s.Set("first"))
	tok, ok, err = s.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", tok)

	require.NoError(t, s.Set("second"))
	tok, _, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	require.NoError(t, s.Remove())
	_, ok, err = s.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackends(t *testing.T) {
	t.Run("MemoryStore", func(t *testing.T) {
		exercise(t, NewMemoryStore())
	})

	t.Run("FileStore", func(t *testing.T) {
		exercise(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "token")))
	})

	t.Run("SQLiteStore", func(t *testing.T) {
		exercise(t, newSQLiteStore(t))
	})
}

func TestFileStore(t *testing.T) {
	t.Run("Permissions", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".favx")
		s := NewFileStore(filepath.Join(dir, "token"))
		require.NoError(t, s.Set("secret"))

		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		dirInfo, err := os.Stat(dir)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
	})

	t.Run("Blank File Reads As Absent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

		_, ok, err := NewFileStore(path).Get()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Trims Whitespace", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("abc\n"), 0600))

		tok, ok, err := NewFileStore(path).Get()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc", tok)
	})

	t.Run("Unreadable Path", func(t *testing.T) {
		dir := t.TempDir()

		_, _, err := NewFileStore(dir).Get()
		assert.True(t, errors.Is(err, shared.ErrTokenStore))
	})
}

func TestEnvStore(t *testing.T) {
	t.Run("Env Wins On Read", func(t *testing.T) {
		inner := NewMemoryStore()
		require.NoError(t, inner.Set("persisted"))

		s := NewEnvStore(inner)
		s.lookup = func(string) string { return "from-env" }

		tok, ok, err := s.Get()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "from-env", tok)
		assert.True(t, s.FromEnv())
	})

	t.Run("Falls Back To Store", func(t *testing.T) {
		inner := NewMemoryStore()
		require.NoError(t, inner.Set("persisted"))

		s := NewEnvStore(inner)
		s.lookup = func(string) string { return "" }

		tok, _, err := s.Get()
		require.NoError(t, err)
		assert.Equal(t, "persisted", tok)
		assert.False(t, s.FromEnv())
	})

	t.Run("Writes Go To Store", func(t *testing.T) {
		inner := NewMemoryStore()
		s := NewEnvStore(inner)
		s.lookup = func(string) string { return "" }

		require.NoError(t, s.Set("written"))
		tok, _, _ := inner.Get()
		assert.Equal(t, "written", tok)

		require.NoError(t, s.Remove())
		_, ok, _ := inner.Get()
		assert.False(t, ok)
	})

	t.Run("Remove Does Not Clear Env Token", func(t *testing.T) {
		inner := NewMemoryStore()
		require.NoError(t, inner.Set("persisted"))
		s := NewEnvStore(inner)
		s.lookup = func(string) string { return "from-env" }

		require.NoError(t, s.Remove())
		_, ok, _ := inner.Get()
		assert.False(t, ok, "persisted token removed")

		tok, ok, err := s.Get()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "from-env", tok)
		assert.True(t, s.FromEnv())
	})
}

func TestOpen(t *testing.T) {
	t.Setenv(EnvVar, "")

	t.Run("Memory", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Backend = "memory"

		s, closeFn, err := Open(cfg)
		require.NoError(t, err)
		defer closeFn()

		env, ok := s.(*EnvStore)
		require.True(t, ok)
		assert.IsType(t, &MemoryStore{}, env.Store)
	})

	t.Run("File", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.TokenPath = filepath.Join(t.TempDir(), "token")

		s, closeFn, err := Open(cfg)
		require.NoError(t, err)
		defer closeFn()

		exercise(t, s)
	})

	t.Run("SQLite", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Backend = "sqlite"
		cfg.Database.Path = filepath.Join(t.TempDir(), "favx.db")

		s, closeFn, err := Open(cfg)
		require.NoError(t, err)
		defer closeFn()

		exercise(t, s)
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Backend = "s3"

		_, _, err := Open(cfg)
		assert.True(t, errors.Is(err, shared.ErrInvalidConfig))
	})
}
