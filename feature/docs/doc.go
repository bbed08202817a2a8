// Package docs implements the persistent document store.
//
// It owns the GORM models for documents and everything hanging off them:
// aliases, per-namespace lifecycle states, tags, the append-only event
// history, directed document relationships, and tagged URLs.
//
// # Store
//
// The Store type implements the capability interface the sync core consumes
// (feature/rfced.Store): lookups by name or alias, state and tag mutation,
// and SaveWithHistory, which commits a document's field changes together
// with its new events as one transaction.
//
// # Archive Mover
//
// ArchiveMover relocates a document's draft files in object storage once the
// document reaches published state, implementing the rfced.Archiver
// capability on top of core/storage.
package docs
