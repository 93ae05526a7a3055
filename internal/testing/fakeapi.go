package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/favx/internal/models"
)

// DuplicateMode selects how [FakeAPI] answers a create whose (external_id, type) already exists.
type DuplicateMode int

const (
	// DuplicateAllow stores the duplicate as a new record.
	DuplicateAllow DuplicateMode = iota
	// DuplicateConflict answers 409.
	DuplicateConflict
	// DuplicateExisting answers 200 with the existing record.
	DuplicateExisting
)

// RecordedRequest is one request seen by [FakeAPI].
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type failure struct {
	status  int
	message string
}

// FakeAPI is an in-memory favorites API served over [httptest.Server].
//
// Favorites are scoped per user and ids are assigned sequentially from 1.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	mode       DuplicateMode
	passwords  map[string]string
	userIDs    map[string]int
	tokens     map[string]string
	items      map[string][]models.FavoriteItem
	catalog    []models.SearchResult
	failures   map[string]failure
	requests   []RecordedRequest
	nextID     int
	nextUserID int
	noToken    bool
}

// NewFakeAPI starts a [FakeAPI] that is closed when t finishes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		passwords: make(map[string]string),
		userIDs:   make(map[string]int),
		tokens:    make(map[string]string),
		items:     make(map[string][]models.FavoriteItem),
		failures:  make(map[string]failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", f.register)
	mux.HandleFunc("POST /api/auth/login", f.login)
	mux.HandleFunc("GET /api/auth/me", f.authed(f.me))
	mux.HandleFunc("GET /api/favorites", f.authed(f.list))
	mux.HandleFunc("POST /api/favorites", f.authed(f.create))
	mux.HandleFunc("PUT /api/favorites/{id}", f.authed(f.update))
	mux.HandleFunc("DELETE /api/favorites/{id}", f.authed(f.remove))
	mux.HandleFunc("GET /api/search", f.authed(f.search))

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL.
func (f *FakeAPI) URL() string { return f.Server.URL }

// SetDuplicateMode changes how duplicate creates are answered.
func (f *FakeAPI) SetDuplicateMode(m DuplicateMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
}

// OmitLoginToken makes login succeed without a token in the payload.
func (f *FakeAPI) OmitLoginToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noToken = true
}

// AddUser registers username directly and returns a valid token for it.
func (f *FakeAPI) AddUser(username, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addUser(username, password)
	return f.issueToken(username)
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// Seed stores items for username, assigning ids, and returns the stored copies.
func (f *FakeAPI) Seed(username string, items ...models.FavoriteItem) []models.FavoriteItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.FavoriteItem, 0, len(items))
	for _, item := range items {
		f.nextID++
		item.ID = models.FlexID(strconv.Itoa(f.nextID))
		f.items[username] = append(f.items[username], item)
		out = append(out, item)
	}
	return out
}

// SetCatalog sets the results the search endpoint filters by title.
func (f *FakeAPI) SetCatalog(results ...models.SearchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = results
}

// Items returns a copy of the favorites stored for username.
func (f *FakeAPI) Items(username string) []models.FavoriteItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FavoriteItem(nil), f.items[username]...)
}

// Fail makes every request matching method and path answer status with message until [FakeAPI.Recover].
//
// Path is matched exactly against the request path, e.g. "/api/favorites/3".
func (f *FakeAPI) Fail(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover clears every injected failure.
func (f *FakeAPI) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]failure)
}

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestCount returns how many requests were received.
func (f *FakeAPI) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		fail, ok := f.failures[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if ok {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username string)

func (f *FakeAPI) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		username, known := f.tokens[tok]
		f.mu.Unlock()

		if !ok || !known {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h(w, r, username)
	}
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[creds.Username]; exists {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	f.addUser(creds.Username, creds.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully"})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[creds.Username]; !ok || pw != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if f.noToken {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": f.issueToken(creds.Username)})
}

func (f *FakeAPI) me(w http.ResponseWriter, _ *http.Request, username string) {
	f.mu.Lock()
	id := f.userIDs[username]
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "username": username})
}

func (f *FakeAPI) list(w http.ResponseWriter, _ *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.items[username]))
	for _, item := range f.items[username] {
		out = append(out, wireItem(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request, username string) {
	var in models.FavoriteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == "" || in.Type == "" {
		writeError(w, http.StatusBadRequest, "Title and type are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if key := in.Key(); key.Valid() {
		for _, existing := range f.items[username] {
			if existing.Key() != key {
				continue
			}
			switch f.mode {
			case DuplicateConflict:
				writeError(w, http.StatusConflict, "Item already exists")
				return
			case DuplicateExisting:
				writeJSON(w, http.StatusOK, wireItem(existing))
				return
			}
		}
	}

	in = in.WithDefaults()
	f.nextID++
	item := models.FavoriteItem{
		ID:          models.FlexID(strconv.Itoa(f.nextID)),
		ExternalID:  in.ExternalID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		PosterPath:  in.PosterPath,
		Status:      in.Status,
		Rating:      in.Rating,
		Notes:       in.Notes,
	}
	f.items[username] = append(f.items[username], item)
	writeJSON(w, http.StatusCreated, wireItem(item))
}

func (f *FakeAPI) update(w http.ResponseWriter, r *http.Request, username string) {
	var in models.FavoriteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := models.FlexID(r.PathValue("id"))
	for i, item := range f.items[username] {
		if item.ID != id {
			continue
		}
		// Fields missing from the body keep their stored values.
		merged := in.Over(item)
		item.Title, item.Type, item.ExternalID = merged.Title, merged.Type, merged.ExternalID
		item.Description, item.PosterPath, item.Notes = merged.Description, merged.PosterPath, merged.Notes
		item.Status, item.Rating = merged.Status, merged.Rating
		f.items[username][i] = item
		writeJSON(w, http.StatusOK, wireItem(item))
		return
	}
	writeError(w, http.StatusNotFound, "Favorite not found")
}

func (f *FakeAPI) remove(w http.ResponseWriter, r *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := models.FlexID(r.PathValue("id"))
	items := f.items[username]
	for i, item := range items {
		if item.ID == id {
			f.items[username] = append(items[:i:i], items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"message": "Favorite deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Favorite not found")
}

func (f *FakeAPI) search(w http.ResponseWriter, r *http.Request, _ string) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	results := []models.SearchResult{}

	f.mu.Lock()
	defer f.mu.Unlock()
	if query != "" {
		for _, res := range f.catalog {
			if strings.Contains(strings.ToLower(res.Title), query) {
				results = append(results, res)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (f *FakeAPI) addUser(username, password string) {
	f.nextUserID++
	f.passwords[username] = password
	f.userIDs[username] = f.nextUserID
}

func (f *FakeAPI) issueToken(username string) string {
	tok := fmt.Sprintf("token-%s-%d", username, len(f.tokens)+1)
	f.tokens[tok] = username
	return tok
}

// wireItem encodes an item the way the server does, with a numeric id.
func wireItem(item models.FavoriteItem) map[string]any {
	out := map[string]any{
		"id":          item.ID.String(),
		"external_id": item.ExternalID.String(),
		"type":        item.Type,
		"title":       item.Title,
		"description": item.Description,
		"poster_path": item.PosterPath,
		"status":      item.Status,
		"rating":      item.Rating,
		"notes":       item.Notes,
	}
	if n, err := strconv.Atoi(item.ID.String()); err == nil {
		out["id"] = n
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
