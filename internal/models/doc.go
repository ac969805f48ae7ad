// Package models defines domain types and the storage contract for the songbook catalog.
//
// The package contains two categories of types:
//
// 1. Caller-facing records:
//   - [SongInput] : the mutable fields of a song, with normalization and validation
//   - [SongView] : a song joined with its artist and genre names
//   - [Ref] : a backend-scoped artist or genre identity
//
// 2. The [Backend] interface implemented by the SQLite and Cloud Datastore repositories.
//
// Artists and genres are never created directly. They appear as a side effect of creating or updating a song.
package models
