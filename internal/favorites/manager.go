// Package favorites owns the client-side collection of favorite items.
//
// [Manager] mirrors the server list in arrival order. Adds are deduplicated by
// (external_id, type) before any request is made, and a conflict answer from the
// server is reported as [Duplicate] rather than an error.
//
// Network calls run outside the state lock, so concurrent operations complete in
// whatever order their responses arrive; the last writer wins.
package favorites

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/tokenstore"
	"github.com/desertthunder/favx/internal/validation"
)

const (
	msgFetchFailed  = "Failed to fetch favorites"
	msgAddFailed    = "Failed to add favorite"
	msgUpdateFailed = "Failed to update favorite"
	msgDeleteFailed = "Failed to delete favorite"
)

// API is the subset of [services.Client] the collection needs.
type API interface {
	ListFavorites(ctx context.Context, token string) ([]models.FavoriteItem, error)
	CreateFavorite(ctx context.Context, token string, in models.FavoriteInput) (*models.FavoriteItem, bool, error)
	UpdateFavorite(ctx context.Context, token string, id models.FlexID, in models.FavoriteInput) (*models.FavoriteItem, error)
	DeleteFavorite(ctx context.Context, token string, id models.FlexID) error
}

// TokenSource supplies the bearer token for each call.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to [TokenSource].
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// StoreSource reads the token from s on every call. Read errors yield an empty token.
func StoreSource(s tokenstore.Store) TokenSource {
	return TokenFunc(func() string {
		tok, _, err := s.Get()
		if err != nil {
			return ""
		}
		return tok
	})
}

// Outcome classifies a successful [Manager.Add].
type Outcome int

const (
	// Added means a new record was stored.
	Added Outcome = iota + 1
	// Duplicate means an item with the same key already existed.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// AddResult is returned by [Manager.Add].
//
// For a Duplicate, Item is the existing record when one is known locally.
type AddResult struct {
	Item    models.FavoriteItem
	Outcome Outcome
}

// UpdateResult is returned by [Manager.Update].
//
// Applied is false when the server accepted the update but no local item had the id.
type UpdateResult struct {
	Item    models.FavoriteItem
	Applied bool
}

// Manager holds the favorites collection. It is safe for concurrent use.
type Manager struct {
	api       API
	tokens    TokenSource
	validator *validation.Validator
	logger    *log.Logger

	mu       sync.RWMutex
	items    []models.FavoriteItem
	inFlight int
	err      string
}

// NewManager creates a [Manager]. A nil logger discards.
func NewManager(api API, tokens TokenSource, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Manager{
		api:       api,
		tokens:    tokens,
		validator: validation.New(),
		logger:    logger,
		items:     []models.FavoriteItem{},
	}
}

// Fetch replaces the collection with the server list.
func (m *Manager) Fetch(ctx context.Context) error {
	done := m.begin()
	defer done()

	items, err := m.api.ListFavorites(ctx, m.tokens.Token())
	if err != nil {
		m.fail(services.Message(err, msgFetchFailed))
		return err
	}

	m.mu.Lock()
	m.items = append([]models.FavoriteItem{}, items...)
	m.mu.Unlock()

	m.logger.Debug("fetched favorites", "count", len(items))
	return nil
}

// Add stores in unless an item with the same (external_id, type) is already known.
//
// Inputs without an external id skip the local check. A 409 answer, or a 200 answer
// carrying an id already in the collection, reports [Duplicate] with a nil error.
func (m *Manager) Add(ctx context.Context, in models.FavoriteInput) (*AddResult, error) {
	done := m.begin()
	defer done()

	in = in.WithDefaults()
	if err := m.validator.Validate(in); err != nil {
		m.fail(err.Error())
		return nil, err
	}

	key := in.Key()
	if key.Valid() {
		if existing, ok := m.findByKey(key); ok {
			m.logger.Debug("favorite already tracked", "key", key)
			return &AddResult{Item: existing, Outcome: Duplicate}, nil
		}
	}

	item, created, err := m.api.CreateFavorite(ctx, m.tokens.Token(), in)
	if services.IsStatus(err, http.StatusConflict) {
		var existing models.FavoriteItem
		if key.Valid() {
			existing, _ = m.findByKey(key)
		}
		m.logger.Debug("server reported duplicate", "key", key)
		return &AddResult{Item: existing, Outcome: Duplicate}, nil
	}
	if err != nil {
		m.fail(services.Message(err, msgAddFailed))
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !created {
		if i := m.indexOf(item.ID); i >= 0 {
			return &AddResult{Item: m.items[i], Outcome: Duplicate}, nil
		}
	}

	m.items = append(m.items, *item)
	return &AddResult{Item: *item, Outcome: Added}, nil
}

// Update sends the editable fields of in for favorite id and replaces the local copy.
//
// in may be partial: fields it leaves empty keep the local item's values, or are
// omitted from the request when the item is not in the collection. When no local
// item has the id the collection is left alone and Applied is false.
func (m *Manager) Update(ctx context.Context, id models.FlexID, in models.FavoriteInput) (*UpdateResult, error) {
	done := m.begin()
	defer done()

	if id == "" {
		err := fmt.Errorf("%w: favorite id", shared.ErrMissingArgument)
		m.fail(err.Error())
		return nil, err
	}

	payload := in
	if cur, ok := m.Get(id); ok {
		payload = in.Over(cur)
	}
	if err := m.validator.ValidatePartial(payload, payload.Unset()...); err != nil {
		m.fail(err.Error())
		return nil, err
	}

	item, err := m.api.UpdateFavorite(ctx, m.tokens.Token(), id, payload)
	if err != nil {
		m.fail(services.Message(err, msgUpdateFailed))
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		m.logger.Debug("updated favorite not in collection", "id", id)
		return &UpdateResult{Item: *item, Applied: false}, nil
	}
	m.items[i] = *item
	return &UpdateResult{Item: *item, Applied: true}, nil
}

// Delete removes favorite id on the server and then locally.
//
// A 404 answer counts as already deleted. The result reports whether a local item was removed.
func (m *Manager) Delete(ctx context.Context, id models.FlexID) (bool, error) {
	done := m.begin()
	defer done()

	if id == "" {
		err := fmt.Errorf("%w: favorite id", shared.ErrMissingArgument)
		m.fail(err.Error())
		return false, err
	}

	err := m.api.DeleteFavorite(ctx, m.tokens.Token(), id)
	if err != nil && !services.IsStatus(err, http.StatusNotFound) {
		m.fail(services.Message(err, msgDeleteFailed))
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m.items = append(m.items[:i:i], m.items[i+1:]...)
	return true, nil
}

// Get returns the local item with id.
func (m *Manager) Get(id models.FlexID) (models.FavoriteItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(id); i >= 0 {
		return m.items[i], true
	}
	return models.FavoriteItem{}, false
}

// Items returns a copy of the collection.
func (m *Manager) Items() []models.FavoriteItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.FavoriteItem{}, m.items...)
}

// Len returns the number of items.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Clear empties the collection and its error.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = []models.FavoriteItem{}
	m.err = ""
}

// Snapshot returns a copy of the collection state.
func (m *Manager) Snapshot() models.FavoritesCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.FavoritesCollection{
		Items:   append([]models.FavoriteItem{}, m.items...),
		Loading: m.inFlight > 0,
		Error:   m.err,
	}
}

func (m *Manager) findByKey(key models.Key) (models.FavoriteItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.Key() == key {
			return item, true
		}
	}
	return models.FavoriteItem{}, false
}

// indexOf must be called with mu held.
func (m *Manager) indexOf(id models.FlexID) int {
	for i, item := range m.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) begin() func() {
	m.mu.Lock()
	m.inFlight++
	m.err = ""
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}
}

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = msg
}
