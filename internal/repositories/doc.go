// Package repositories implements persistence for songs, artists and genres.
//
// Two interchangeable backends satisfy models.Backend:
//   - [SQLiteStore] : embedded SQLite through sqlx. Artist and genre names carry a UNIQUE constraint; resolution inserts
//     with ON CONFLICT DO NOTHING and reads back the existing row when nothing was inserted.
//   - [DatastoreStore] : Google Cloud Datastore. Artist and genre entities are keyed by their names, so a resolve is a
//     deterministic Put that overwrites in place.
//
// The two backends do not share identifier formats: SQLite refs are integers, Datastore refs are names.
// Song ids are int64 in both.
//
// [Open] picks the backend named by the configuration and applies [SQLiteStore.EnsureSchema] or its no-op Datastore
// counterpart.
package repositories
