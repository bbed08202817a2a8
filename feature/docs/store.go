package docs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the gorm-backed document store. The sync core consumes it through
// the rfced.Store interface.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a new document store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates or updates the document tables. Used by tests and
// first-time setups; production schemas are managed externally.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&Document{}, &DocAlias{}, &DocState{}, &DocTag{},
		&DocEvent{}, &RelatedDocument{}, &DocURL{},
	)
}

// DraftsByNames returns draft documents reachable from any of the given
// names via their aliases, keyed by document name.
func (s *Store) DraftsByNames(ctx context.Context, names []string) (map[string]*Document, error) {
	out := make(map[string]*Document)
	if len(names) == 0 {
		return out, nil
	}

	var found []*Document
	err := s.db.WithContext(ctx).
		Table("documents").
		Distinct("documents.*").
		Joins("JOIN doc_aliases ON doc_aliases.document_id = documents.id").
		Where("documents.type = ? AND doc_aliases.name IN ?", "draft", names).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts by names: %w", err)
	}

	for _, d := range found {
		out[d.Name] = d
	}
	return out, nil
}

// DocumentByName returns the document with the given name, or nil if absent.
func (s *Store) DocumentByName(ctx context.Context, name string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document %s: %w", name, err)
	}
	return &doc, nil
}

// LookupAlias resolves an alias to its document, or nil if the alias does
// not exist.
func (s *Store) LookupAlias(ctx context.Context, name string) (*Document, error) {
	var alias DocAlias
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&alias).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up alias %s: %w", name, err)
	}

	var doc Document
	if err := s.db.WithContext(ctx).First(&doc, alias.DocumentID).Error; err != nil {
		return nil, fmt.Errorf("failed to load document for alias %s: %w", name, err)
	}
	return &doc, nil
}

// AliasExists reports whether an alias with the given name exists.
func (s *Store) AliasExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&DocAlias{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check alias %s: %w", name, err)
	}
	return count > 0, nil
}

// RFCAliasesFor returns the rfc-prefixed aliases of every document that also
// carries the given alias. Used to translate legacy identifiers (NIC, IEN,
// STD, RTR) into RFC aliases through the alias chain.
func (s *Store) RFCAliasesFor(ctx context.Context, alias string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Table("doc_aliases AS a").
		Joins("JOIN doc_aliases AS b ON b.document_id = a.document_id").
		Where("b.name = ? AND a.name LIKE 'rfc%'", alias).
		Order("a.name").
		Pluck("a.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rfc aliases for %s: %w", alias, err)
	}
	return names, nil
}

// CreateDocument creates a new draft-type document record.
func (s *Store) CreateDocument(ctx context.Context, name string) (*Document, error) {
	doc := &Document{Name: name, Type: "draft"}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document %s: %w", name, err)
	}
	return doc, nil
}

// EnsureAlias creates the alias if missing and attaches it to the document.
func (s *Store) EnsureAlias(ctx context.Context, name string, doc *Document) error {
	alias := DocAlias{}
	err := s.db.WithContext(ctx).
		Where(DocAlias{Name: name}).
		Attrs(DocAlias{DocumentID: doc.ID}).
		FirstOrCreate(&alias).Error
	if err != nil {
		return fmt.Errorf("failed to ensure alias %s: %w", name, err)
	}
	return nil
}

// GetState returns the document's current state slug in the given state-type
// namespace, or "" if it has none.
func (s *Store) GetState(ctx context.Context, doc *Document, stateType string) (string, error) {
	var st DocState
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND type = ?", doc.ID, stateType).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s state for %s: %w", stateType, doc.Name, err)
	}
	return st.Slug, nil
}

// SetState sets the document's current state in the given namespace.
func (s *Store) SetState(ctx context.Context, doc *Document, stateType, slug string) error {
	st := DocState{}
	err := s.db.WithContext(ctx).
		Where(DocState{DocumentID: doc.ID, Type: stateType}).
		Assign(DocState{Slug: slug}).
		FirstOrCreate(&st).Error
	if err != nil {
		return fmt.Errorf("failed to set %s state for %s: %w", stateType, doc.Name, err)
	}
	return nil
}

// UnsetState removes the document's state in the given namespace.
func (s *Store) UnsetState(ctx context.Context, doc *Document, stateType string) error {
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND type = ?", doc.ID, stateType).
		Delete(&DocState{}).Error
	if err != nil {
		return fmt.Errorf("failed to unset %s state for %s: %w", stateType, doc.Name, err)
	}
	return nil
}

// Tags returns all tag slugs currently attached to the document.
func (s *Store) Tags(ctx context.Context, doc *Document) ([]string, error) {
	var slugs []string
	err := s.db.WithContext(ctx).
		Model(&DocTag{}).
		Where("document_id = ?", doc.ID).
		Order("slug").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", doc.Name, err)
	}
	return slugs, nil
}

// HasTag reports whether the document carries the given tag.
func (s *Store) HasTag(ctx context.Context, doc *Document, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&DocTag{}).
		Where("document_id = ? AND slug = ?", doc.ID, slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s for %s: %w", slug, doc.Name, err)
	}
	return count > 0, nil
}

// AddTag attaches the tag if not already present.
func (s *Store) AddTag(ctx context.Context, doc *Document, slug string) error {
	tag := DocTag{}
	err := s.db.WithContext(ctx).
		Where(DocTag{DocumentID: doc.ID, Slug: slug}).
		FirstOrCreate(&tag).Error
	if err != nil {
		return fmt.Errorf("failed to add tag %s to %s: %w", slug, doc.Name, err)
	}
	return nil
}

// RemoveTags detaches the given tags; absent tags are ignored.
func (s *Store) RemoveTags(ctx context.Context, doc *Document, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND slug IN ?", doc.ID, slugs).
		Delete(&DocTag{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove tags from %s: %w", doc.Name, err)
	}
	return nil
}

// SetTags replaces the document's whole tag set.
func (s *Store) SetTags(ctx context.Context, doc *Document, slugs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", doc.ID).Delete(&DocTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear tags for %s: %w", doc.Name, err)
		}
		for _, slug := range slugs {
			if err := tx.Create(&DocTag{DocumentID: doc.ID, Slug: slug}).Error; err != nil {
				return fmt.Errorf("failed to set tag %s for %s: %w", slug, doc.Name, err)
			}
		}
		return nil
	})
}

// HasEvent reports whether the document has at least one event of the type.
func (s *Store) HasEvent(ctx context.Context, doc *Document, eventType string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&DocEvent{}).
		Where("document_id = ? AND type = ?", doc.ID, eventType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s event for %s: %w", eventType, doc.Name, err)
	}
	return count > 0, nil
}

// UpsertDocURL creates or updates the tagged URL on the document.
func (s *Store) UpsertDocURL(ctx context.Context, doc *Document, tag, url string) error {
	u := DocURL{}
	err := s.db.WithContext(ctx).
		Where(DocURL{DocumentID: doc.ID, Tag: tag}).
		Assign(DocURL{URL: url}).
		FirstOrCreate(&u).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %s url for %s: %w", tag, doc.Name, err)
	}
	return nil
}

// DeleteDocURL removes the tagged URL from the document if present.
func (s *Store) DeleteDocURL(ctx context.Context, doc *Document, tag string) error {
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND tag = ?", doc.ID, tag).
		Delete(&DocURL{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s url for %s: %w", tag, doc.Name, err)
	}
	return nil
}

// RelationExists reports whether the (source, target, relationship) edge
// already exists.
func (s *Store) RelationExists(ctx context.Context, doc *Document, targetAlias, relationship string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&RelatedDocument{}).
		Where("source_id = ? AND target_alias = ? AND relationship = ?", doc.ID, targetAlias, relationship).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s relation for %s: %w", relationship, doc.Name, err)
	}
	return count > 0, nil
}

// CreateRelation creates the directed edge. Callers check RelationExists
// first; the unique index backs that up.
func (s *Store) CreateRelation(ctx context.Context, doc *Document, targetAlias, relationship string) error {
	rel := RelatedDocument{SourceID: doc.ID, TargetAlias: targetAlias, Relationship: relationship}
	if err := s.db.WithContext(ctx).Create(&rel).Error; err != nil {
		return fmt.Errorf("failed to create %s relation %s -> %s: %w", relationship, doc.Name, targetAlias, err)
	}
	return nil
}

// StaleQueueDocuments returns documents still holding an RFC Editor queue
// state whose aliases no longer appear in the current queue.
func (s *Store) StaleQueueDocuments(ctx context.Context, activeNames []string) ([]*Document, error) {
	q := s.db.WithContext(ctx).
		Table("documents").
		Distinct("documents.*").
		Joins("JOIN doc_states ON doc_states.document_id = documents.id AND doc_states.type = ?", StateTypeRFCEditor)

	if len(activeNames) > 0 {
		sub := s.db.Table("doc_aliases").Select("document_id").Where("name IN ?", activeNames)
		q = q.Where("documents.id NOT IN (?)", sub)
	}

	var out []*Document
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale queue documents: %w", err)
	}
	return out, nil
}

// SaveWithHistory persists the document's fields and appends the given
// events in one transaction. Partial application is not an outcome: either
// the fields and every event land, or nothing does.
func (s *Store) SaveWithHistory(ctx context.Context, doc *Document, events []*DocEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.Name, err)
		}
		for _, e := range events {
			e.DocumentID = doc.ID
			if err := tx.Create(e).Error; err != nil {
				return fmt.Errorf("failed to append %s event for %s: %w", e.Type, doc.Name, err)
			}
		}
		return nil
	})
}
