// Package models defines domain entities and persistence interfaces for the knuckles Subsonic client.
//
// The package contains three categories of types:
//
// 1. Strong string types: request parameters that must not be mixed up
//   - [ServerURL], [Username], [Password], [PasswordHash], [Salt]
//   - [AlbumID], [SongID]
//   - [TokenInfo] : the hash/salt pair used for token authentication
//
// 2. Data Transfer Objects (DTOs): Subsonic response entities
//   - [AlbumListItem] : One entry of getAlbumList2
//   - [Album] : Album metadata with its songs (getAlbum)
//   - [Song] : Track metadata (getSong, album children)
//
// 3. Persistent Entities: rows in the local library cache
//   - [PersistedAlbum] : Cached albums keyed by server + remote ID
//   - [PersistedSong] : Cached songs linked to their album
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
