package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/favx/internal/models"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", "", creds, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", "", creds, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Me returns the profile the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &out, nil
}

// ListFavorites returns every favorite of the authenticated user.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]models.FavoriteItem, error) {
	var out []models.FavoriteItem
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/favorites", token, nil, &out); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if out == nil {
		out = []models.FavoriteItem{}
	}
	return out, nil
}

// CreateFavorite stores a new favorite.
//
// created is true for a 201 response. Servers that answer a duplicate with the existing
// record use 200, which reports created=false.
func (c *Client) CreateFavorite(ctx context.Context, token string, in models.FavoriteInput) (item *models.FavoriteItem, created bool, err error) {
	var out models.FavoriteItem
	status, err := c.doRequest(ctx, http.MethodPost, "/api/favorites", token, in, &out)
	if err != nil {
		return nil, false, fmt.Errorf("create favorite: %w", err)
	}
	merged := mergeItem(out, in)
	return &merged, status == http.StatusCreated, nil
}

// UpdateFavorite replaces the editable fields of favorite id.
func (c *Client) UpdateFavorite(ctx context.Context, token string, id models.FlexID, in models.FavoriteInput) (*models.FavoriteItem, error) {
	var out models.FavoriteItem
	if _, err := c.doRequest(ctx, http.MethodPut, favoritePath(id), token, in, &out); err != nil {
		return nil, fmt.Errorf("update favorite %s: %w", id, err)
	}
	if out.ID.IsZero() {
		out.ID = id
	}
	merged := mergeItem(out, in)
	return &merged, nil
}

// DeleteFavorite removes favorite id.
func (c *Client) DeleteFavorite(ctx context.Context, token string, id models.FlexID) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, favoritePath(id), token, nil, nil); err != nil {
		return fmt.Errorf("delete favorite %s: %w", id, err)
	}
	return nil
}

// Search looks up candidate media by title. An empty query returns no results without a request.
func (c *Client) Search(ctx context.Context, token, query string) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.SearchResponse{Results: []models.SearchResult{}}, nil
	}

	params := url.Values{}
	params.Set("query", query)

	var out models.SearchResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/search?"+params.Encode(), token, nil, &out); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if out.Results == nil {
		out.Results = []models.SearchResult{}
	}
	return &out, nil
}

func favoritePath(id models.FlexID) string {
	return "/api/favorites/" + url.PathEscape(id.String())
}

// mergeItem fills fields the server left out of its response from the submitted input.
//
// Some deployments answer a create with only {"id": n}.
func mergeItem(out models.FavoriteItem, in models.FavoriteInput) models.FavoriteItem {
	if out.Title == "" {
		out.Title = in.Title
	}
	if out.Type == "" {
		out.Type = in.Type
	}
	if out.ExternalID.IsZero() {
		out.ExternalID = in.ExternalID
	}
	if out.Description == "" {
		out.Description = in.Description
	}
	if out.PosterPath == "" {
		out.PosterPath = in.PosterPath
	}
	if out.Status == "" {
		out.Status = in.Status
	}
	if out.Rating == nil {
		out.Rating = in.Rating
	}
	if out.Notes == "" {
		out.Notes = in.Notes
	}
	return out
}
