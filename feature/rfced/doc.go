// Package rfced implements synchronization with the RFC Editor's feeds.
//
// It reconciles three external sources against the document store:
//  1. Queue XML: drafts moving through the RFC Editor's editing pipeline.
//  2. Index XML: published RFC metadata, relationships and secondary standards.
//  3. Errata dataset: post-publication correction records.
//
// # Parsers
//
// ParseQueue and ParseIndex are pure, side-effect-free transformations from
// streamed XML into per-run tuples. Parsing is fail-fast: the first
// malformed node aborts the parse, because no partial feed is trusted.
//
// # Reconcilers
//
// UpdateDraftsFromQueue and UpdateDocsFromIndex merge parsed entries into
// the document graph idempotently: every mutation is change-gated, edges
// are deduplicated per (source, target, kind), and the publication event is
// synthesized at most once per document. Re-running on unchanged input
// produces no changes. Reconciliation-level unknowns (document, state code,
// section label) degrade to warnings and skip the entry; store failures are
// fatal to the run.
//
// # Outbound Notification
//
// PostApprovedDraft tells the RFC Editor a draft was approved. Transport
// and protocol failures never leak: callers observe failure only through
// the returned error string.
package rfced
