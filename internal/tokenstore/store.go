// Package tokenstore persists the session token under a single fixed key.
//
// Backends:
//   - [FileStore] : ~/.favx/token, readable only by the owner
//   - [SQLiteStore] : the kv table in the local database
//   - [MemoryStore] : in-process, for tests and ephemeral sessions
//
// [EnvStore] wraps any backend so FAVX_TOKEN takes precedence on read.
package tokenstore

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/favx/internal/shared"
)

// Key is the fixed key the token is stored under.
const Key = "token"

// EnvVar overrides the persisted token when set.
const EnvVar = "FAVX_TOKEN"

// Store holds at most one token string.
//
// Get reports ok=false when no token is stored. Remove on an absent token is not an error.
type Store interface {
	Get() (token string, ok bool, err error)
	Set(token string) error
	Remove() error
}

// Open returns the backend selected by cfg.Storage.Backend, wrapped in an [EnvStore].
//
// The sqlite backend opens cfg.Database.Path and runs migrations; the returned close func releases it.
func Open(cfg *shared.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case "memory":
		return NewEnvStore(NewMemoryStore()), noop, nil
	case "file", "":
		path, err := shared.ExpandPath(cfg.Storage.TokenPath)
		if err != nil {
			return nil, noop, err
		}
		return NewEnvStore(NewFileStore(path)), noop, nil
	case "sqlite":
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return NewEnvStore(NewSQLiteStore(db)), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: storage backend %q", shared.ErrInvalidConfig, cfg.Storage.Backend)
	}
}

func openDatabase(cfg shared.DatabaseConfig) (*sql.DB, error) {
	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return db, nil
}
