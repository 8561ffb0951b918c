// Package repositories implements the SQLite library cache of albums and songs fetched from Subsonic servers.
//
// Each repository handles CRUD operations with atomic sequence generation for stable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries.
//
// Key Implementations:
//   - [AlbumRepository] : Cached albums, unique per server and remote ID
//   - [SongRepository] : Cached songs linked to their album row
//   - [LibraryCacheAdapter] : Upserts whole albums for the sync task and records sync totals
//
// The [NextSequence] function atomically increments per-table counters kept in albums_sequence and songs_sequence.
package repositories
