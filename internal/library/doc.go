// Package library persists imported cards in SQLite, keyed by record id.
//
// The store is an opaque id-to-record mapping: it holds the post-normalization
// card JSON plus import metadata, and writes asset blobs to a per-record
// directory beside the database. The conversion core never depends on it.
//
// A flock beside the database guards against concurrent writers from separate
// processes; schema changes bump the version in schema.go and users clear the
// database to adopt the new schema.
package library
