package tokenstore

import (
	"os"
	"strings"
)

// EnvStore reads the token from [EnvVar] before falling back to the wrapped store.
//
// Writes always go to the wrapped store, so while [EnvVar] is set Get keeps
// returning the environment token even after Remove.
type EnvStore struct {
	Store
	lookup func(string) string
}

// NewEnvStore wraps s with an environment override.
func NewEnvStore(s Store) *EnvStore {
	return &EnvStore{Store: s, lookup: os.Getenv}
}

// Get returns the environment token when set, otherwise the persisted one.
func (s *EnvStore) Get() (string, bool, error) {
	if tok := strings.TrimSpace(s.lookup(EnvVar)); tok != "" {
		return tok, true, nil
	}
	return s.Store.Get()
}

// FromEnv reports whether the current token comes from the environment.
func (s *EnvStore) FromEnv() bool {
	return strings.TrimSpace(s.lookup(EnvVar)) != ""
}
