// Package services implements the read-only Spotify Web API client behind the dashboard.
//
// # Service Interface
//
// [Service] covers the endpoints the dashboard reads: profile, top tracks and artists per [TimeRange],
// playlists, a single track, its audio features, and search.
//
// # Spotify Implementation
//
// [SpotifyService] is authorized with a bare access token wrapped in an [oauth2.StaticTokenSource].
// It never refreshes on its own: refreshing is the token service's job, reached through the client package.
// Each request is bounded by a timeout (10s by default, see [WithTimeout]).
//
// Responses are validated at the fetch boundary: list entries without an id are dropped and a profile
// without an id is rejected.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrTokenExpired] : the API answered 401, the caller should clear the token
//   - [shared.ErrTrackNotFound] : track id not found
//   - [shared.ErrTimeout] : request exceeded its deadline
//   - [shared.ErrAPIRequest] : any other non-2xx or transport failure
package services
