// Package models defines domain entities for the favx favorites client.
//
// The package contains two categories of types:
//
// 1. Wire types: structs decoded from and encoded to the favorites API
//   - [User] : the authenticated account returned by /api/auth/me
//   - [FavoriteItem] : one tracked media entry with user metadata
//   - [FavoriteInput] : the editable subset sent on create and update
//   - [SearchResult] : a candidate returned by /api/search
//
// 2. State snapshots: copies of the state owned by the session and favorites managers
//   - [Session] : token, user, loading flag and last error
//   - [FavoritesCollection] : ordered items, loading flag and last error
//
// Server ids and external ids arrive as either JSON strings or numbers, so both use [FlexID].
// Duplicate detection is keyed by [Key], the (external_id, type) pair.
package models
