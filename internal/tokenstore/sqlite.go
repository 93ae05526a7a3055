package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/favx/internal/repositories"
	"github.com/desertthunder/favx/internal/shared"
)

// SQLiteStore keeps the token in the kv table.
type SQLiteStore struct {
	kv *repositories.KVRepository
}

// NewSQLiteStore creates a [SQLiteStore] on a migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{kv: repositories.NewKVRepository(db)}
}

func (s *SQLiteStore) Get() (string, bool, error) {
	tok, err := s.kv.Get(Key)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return tok, tok != "", nil
}

func (s *SQLiteStore) Set(token string) error {
	if err := s.kv.Put(Key, token); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return nil
}

func (s *SQLiteStore) Remove() error {
	if err := s.kv.Delete(Key); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return nil
}
