package rfced

import (
	"context"

	"doc-sync/feature/docs"
)

// Store is the document-store capability the reconcilers mutate documents
// through. feature/docs provides the gorm-backed implementation.
type Store interface {
	// DraftsByNames returns draft documents reachable from the given names
	// via their aliases, keyed by document name.
	DraftsByNames(ctx context.Context, names []string) (map[string]*docs.Document, error)
	// DocumentByName returns the named document, or nil if absent.
	DocumentByName(ctx context.Context, name string) (*docs.Document, error)
	// LookupAlias resolves an alias to its document, or nil if absent.
	LookupAlias(ctx context.Context, name string) (*docs.Document, error)
	// AliasExists reports whether the alias exists.
	AliasExists(ctx context.Context, name string) (bool, error)
	// RFCAliasesFor returns rfc-prefixed aliases of documents carrying the
	// given alias.
	RFCAliasesFor(ctx context.Context, alias string) ([]string, error)
	// CreateDocument creates a new draft-type document.
	CreateDocument(ctx context.Context, name string) (*docs.Document, error)
	// EnsureAlias creates the alias if missing and attaches it to doc.
	EnsureAlias(ctx context.Context, name string, doc *docs.Document) error

	// GetState returns the current state slug in a namespace, "" if none.
	GetState(ctx context.Context, doc *docs.Document, stateType string) (string, error)
	// SetState sets the current state in a namespace.
	SetState(ctx context.Context, doc *docs.Document, stateType, slug string) error
	// UnsetState removes the current state in a namespace.
	UnsetState(ctx context.Context, doc *docs.Document, stateType string) error

	// Tags returns all tag slugs on the document.
	Tags(ctx context.Context, doc *docs.Document) ([]string, error)
	// HasTag reports whether the document carries the tag.
	HasTag(ctx context.Context, doc *docs.Document, slug string) (bool, error)
	// AddTag attaches the tag if not already present.
	AddTag(ctx context.Context, doc *docs.Document, slug string) error
	// RemoveTags detaches the given tags.
	RemoveTags(ctx context.Context, doc *docs.Document, slugs ...string) error
	// SetTags replaces the document's whole tag set.
	SetTags(ctx context.Context, doc *docs.Document, slugs []string) error

	// HasEvent reports whether the document has an event of the given type.
	HasEvent(ctx context.Context, doc *docs.Document, eventType string) (bool, error)

	// UpsertDocURL creates or updates the tagged URL on the document.
	UpsertDocURL(ctx context.Context, doc *docs.Document, tag, url string) error
	// DeleteDocURL removes the tagged URL.
	DeleteDocURL(ctx context.Context, doc *docs.Document, tag string) error

	// RelationExists reports whether the edge triple already exists.
	RelationExists(ctx context.Context, doc *docs.Document, targetAlias, relationship string) (bool, error)
	// CreateRelation creates the directed edge.
	CreateRelation(ctx context.Context, doc *docs.Document, targetAlias, relationship string) error

	// StaleQueueDocuments returns documents holding an RFC Editor queue
	// state that no longer appear in the current queue.
	StaleQueueDocuments(ctx context.Context, activeNames []string) ([]*docs.Document, error)

	// SaveWithHistory persists field changes and appends events atomically.
	SaveWithHistory(ctx context.Context, doc *docs.Document, events []*docs.DocEvent) error
}

// Archiver relocates a published document's draft files.
type Archiver interface {
	MoveDraftFilesToArchive(ctx context.Context, doc *docs.Document) error
}

// Mailer delivers outbound notification mails.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}
