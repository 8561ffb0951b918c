// Package services implements the Subsonic REST API client behind the [Library] interface.
//
// # Authentication
//
// Requests use token authentication: t = md5(password + s) with a random salt s.
// A password in the config is hashed once per process with [TokenFromPassword];
// a precomputed hash/salt pair is used as is. See [CredentialsFromConfig].
//
// # Requests
//
// Every URL has the form
//
//	<server>/rest/<endpoint>?f=json&u=<user>&t=<hash>&s=<salt>&v=1.16.1&c=knuckles
//
// followed by endpoint parameters. Calls are paced by a [rate.Limiter] and bounded by
// the configured timeout. Song streams are exempt from the timeout.
//
// # Streaming
//
// [SubsonicClient.Stream] sends the request on a [stream.Runtime] and returns a
// [stream.SongStream] over the body. The body is only read as the caller reads or
// seeks forward, so a song can be probed or relayed before it has finished downloading.
//
// # Error Handling
//
// Failed responses decode into [*APIError], which matches:
//   - [shared.ErrAPIRequest] : always
//   - [shared.ErrAuthFailed] : codes 40, 41, 50
//   - [shared.ErrMissingArgument] : code 10
//
// Not-found responses from Album, Song and Stream are reported as [shared.ErrAlbumNotFound]
// or [shared.ErrSongNotFound]. A response without an expected element fails with
// [shared.ErrMissingAttribute].
package services
