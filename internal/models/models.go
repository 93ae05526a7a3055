package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FlexID is an identifier that decodes from either a JSON string or a JSON number.
//
// It always encodes as a JSON string.
type FlexID string

// UnmarshalJSON implements [json.Unmarshaler].
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flex id: %w", err)
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex id: expected string or number, got %s", string(data))
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// IsZero reports whether the id is absent.
func (f FlexID) IsZero() bool { return strings.TrimSpace(string(f)) == "" }

// MediaType is the kind of media a favorite refers to.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaShow  MediaType = "show"
	MediaBook  MediaType = "book"
	MediaGame  MediaType = "game"
)

// MediaTypes lists the known media types in display order.
var MediaTypes = []MediaType{MediaMovie, MediaShow, MediaBook, MediaGame}

// Status is the user's progress with a favorite.
type Status string

const (
	StatusWatching    Status = "watching"
	StatusCompleted   Status = "completed"
	StatusPlanToWatch Status = "plan_to_watch"
)

// Statuses lists the known statuses in cycle order.
var Statuses = []Status{StatusPlanToWatch, StatusWatching, StatusCompleted}

// Next returns the status that follows s in [Statuses], wrapping around.
//
// Unknown statuses move to the first entry.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return Statuses[0]
}

// User is the account returned by the current-user endpoint.
type User struct {
	ID       FlexID `json:"id"`
	Username string `json:"username"`
}

// FavoriteItem is a user-tracked reference to an external media entity.
type FavoriteItem struct {
	ID          FlexID    `json:"id"`
	ExternalID  FlexID    `json:"external_id,omitempty"`
	Type        MediaType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PosterPath  string    `json:"poster_path,omitempty"`
	Status      Status    `json:"status,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// Key returns the duplicate-detection key of the item.
func (f FavoriteItem) Key() Key {
	return NewKey(f.ExternalID, f.Type)
}

// Input returns the editable fields of the item.
func (f FavoriteItem) Input() FavoriteInput {
	return FavoriteInput{
		Title:       f.Title,
		Type:        f.Type,
		Description: f.Description,
		ExternalID:  f.ExternalID,
		PosterPath:  f.PosterPath,
		Status:      f.Status,
		Rating:      f.Rating,
		Notes:       f.Notes,
	}
}

// FavoriteInput is the payload for creating or updating a favorite.
type FavoriteInput struct {
	Title       string    `json:"title,omitempty" validate:"required,max=200"`
	Type        MediaType `json:"type,omitempty" validate:"required,max=50"`
	Description string    `json:"description,omitempty"`
	ExternalID  FlexID    `json:"external_id,omitempty" validate:"max=100"`
	PosterPath  string    `json:"poster_path,omitempty" validate:"max=200"`
	Status      Status    `json:"status,omitempty" validate:"omitempty,oneof=watching completed plan_to_watch"`
	Rating      *float64  `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Notes       string    `json:"notes,omitempty"`
}

// Over returns base's editable fields with every field set in f applied on top.
//
// Empty strings and a nil rating count as unset, so a partial update cannot clear a field.
func (f FavoriteInput) Over(base FavoriteItem) FavoriteInput {
	out := base.Input()
	if f.Title != "" {
		out.Title = f.Title
	}
	if f.Type != "" {
		out.Type = f.Type
	}
	if f.Description != "" {
		out.Description = f.Description
	}
	if f.ExternalID != "" {
		out.ExternalID = f.ExternalID
	}
	if f.PosterPath != "" {
		out.PosterPath = f.PosterPath
	}
	if f.Status != "" {
		out.Status = f.Status
	}
	if f.Rating != nil {
		out.Rating = f.Rating
	}
	if f.Notes != "" {
		out.Notes = f.Notes
	}
	return out
}

// Unset names the required fields of f that are empty.
func (f FavoriteInput) Unset() []string {
	var fields []string
	if f.Title == "" {
		fields = append(fields, "Title")
	}
	if f.Type == "" {
		fields = append(fields, "Type")
	}
	return fields
}

// Key returns the duplicate-detection key of the input.
func (f FavoriteInput) Key() Key {
	return NewKey(f.ExternalID, f.Type)
}

// WithDefaults fills the status with plan_to_watch when it is empty.
func (f FavoriteInput) WithDefaults() FavoriteInput {
	if f.Status == "" {
		f.Status = StatusPlanToWatch
	}
	return f
}

// Key identifies a favorite by its source-system id and media type.
type Key struct {
	ExternalID string
	Type       MediaType
}

// NewKey builds a [Key], trimming the external id.
func NewKey(externalID FlexID, t MediaType) Key {
	return Key{ExternalID: strings.TrimSpace(string(externalID)), Type: t}
}

// Valid reports whether the key can be used for duplicate detection.
func (k Key) Valid() bool {
	return k.ExternalID != "" && k.Type != ""
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.ExternalID
}

// SearchResult is one candidate returned by the search endpoint.
type SearchResult struct {
	ID          FlexID   `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}

// AsInput converts a search result into a movie favorite input.
func (s SearchResult) AsInput() FavoriteInput {
	return FavoriteInput{
		Title:       s.Title,
		Type:        MediaMovie,
		Description: s.Overview,
		ExternalID:  s.ID,
		PosterPath:  s.PosterPath,
	}.WithDefaults()
}

// SearchResponse is the envelope returned by the search endpoint.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// AuthResponse is the payload returned by the login and register endpoints.
//
// Extra carries any fields the server sends besides token and message.
type AuthResponse struct {
	Token   string         `json:"token,omitempty"`
	Message string         `json:"message,omitempty"`
	Extra   map[string]any `json:"-"`
}

// UnmarshalJSON keeps unrecognized fields in Extra.
func (a *AuthResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if tok, ok := raw["token"].(string); ok {
		a.Token = tok
	}
	if msg, ok := raw["message"].(string); ok {
		a.Message = msg
	}
	delete(raw, "token")
	delete(raw, "message")
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}

// MarshalJSON writes Extra back alongside token and message.
func (a AuthResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+2)
	for k, v := range a.Extra {
		out[k] = v
	}
	if a.Token != "" {
		out["token"] = a.Token
	}
	if a.Message != "" {
		out["message"] = a.Message
	}
	return json.Marshal(out)
}

// Credentials is the body sent to the login and register endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is a snapshot of the authentication state.
type Session struct {
	Token   string
	User    *User
	Loading bool
	Error   string
}

// IsAuthenticated reports whether a token is present.
func (s Session) IsAuthenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// FavoritesCollection is a snapshot of the favorites state.
type FavoritesCollection struct {
	Items   []FavoriteItem
	Loading bool
	Error   string
}

// Float returns a pointer to v, for optional rating fields.
func Float(v float64) *float64 { return &v }

// ImportRun records one bulk import into the local database.
type ImportRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Total      int        `json:"total"`
	Added      int        `json:"added"`
	Duplicates int        `json:"duplicates"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
