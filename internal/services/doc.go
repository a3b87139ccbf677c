// Package services resolves playable byte sources for tracks.
//
// # Resolution Order
//
// The [Resolver] picks the first usable source for a track:
//   - an offline copy (when the track is marked offline and carries a blob id)
//   - an owned blob ([models.LocalBlob])
//   - a cloud drive file ([models.CloudRef]), downloaded through the configured [Fetcher]
//   - a remote URL ([models.RemoteURL]), streamed on demand through [RemoteService]
//
// Failures are reported as [SourceUnavailableError] with one of three reasons:
//   - [ReasonOffline] : cloud reference requested while offline mode is on
//   - [ReasonFetchFailed] : the provider or blob store returned an error
//   - [ReasonNoSource] : the track carries no source at all
//
// # Handles
//
// Resolve returns a [Source] handle. The resolver keeps at most one handle alive;
// issuing a new one releases the previous. Release is idempotent.
//
// # Cloud Drive
//
// [CloudDriveService] talks to a Drive-style REST API with externally supplied OAuth2 tokens.
// The [oauth2.Client] refreshes expired tokens using the refresh token.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called, or the API rejected the token
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrSourceUnavailable] : matched by every [SourceUnavailableError]
package services
