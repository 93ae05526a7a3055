// Package services is the HTTP client adapter for the favorites API.
//
// # Client
//
// [Client] issues JSON requests against the API base URL. Every authorized call takes the bearer
// token as an explicit argument; the client never holds a token of its own, so a logout cannot race
// with an in-flight request through shared header state. An empty token sends no Authorization header.
//
// Each request carries a fresh X-Request-ID, passes through an optional rate limiter and is logged at
// debug level with its method, path, status and duration.
//
// # Endpoints
//
//   - POST /api/auth/register, POST /api/auth/login : [Client.Register], [Client.Login]
//   - GET /api/auth/me : [Client.Me]
//   - GET, POST /api/favorites : [Client.ListFavorites], [Client.CreateFavorite]
//   - PUT, DELETE /api/favorites/{id} : [Client.UpdateFavorite], [Client.DeleteFavorite]
//   - GET /api/search : [Client.Search]
//
// [Client.Get] is a raw passthrough returning a [RawResponse] for arbitrary paths.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : transport failure, unreadable or undecodable response
//   - [*HTTPError] : non-2xx response, with the server's "error" message when present
//
// [IsStatus] matches an HTTP status through wrapping and [Message] reduces an error to the text shown to users.
package services
