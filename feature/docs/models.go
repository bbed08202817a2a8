package docs

import "time"

// State type namespaces tracked per document. Each namespace holds at most
// one current state slug.
const (
	StateTypeDraft      = "draft"
	StateTypeIESG       = "draft-iesg"
	StateTypeRFCEditor  = "draft-rfceditor"
	StateTypeStreamIAB  = "draft-stream-iab"
	StateTypeStreamIRTF = "draft-stream-irtf"
	StateTypeStreamISE  = "draft-stream-ise"
)

// State slugs used by the sync.
const (
	StateAnnounced = "ann"
	StateRFCQueue  = "rfcqueue"
	StateRFC       = "rfc"
	StatePub       = "pub"
	StateIDExists  = "idexists"
)

// Tag slugs used by the sync.
const (
	TagIANA           = "iana"
	TagRef            = "ref"
	TagErrata         = "errata"
	TagVerifiedErrata = "verified-errata"
)

// Event types appended by the sync.
const (
	EventReceivedAnnouncement = "rfc_editor_received_announcement"
	EventPublished            = "published_rfc"
	EventSyncFromRFCEditor    = "sync_from_rfc_editor"
	EventStateChanged         = "changed_state"
	EventChangedActionHolders = "changed_action_holders"
)

// Relationship slugs for directed document edges.
const (
	RelObsoletes = "obs"
	RelUpdates   = "updates"
)

// URLTagAuth48 marks the AUTH48 status page URL attached to a document.
const URLTagAuth48 = "auth48"

// SystemActor is the recorded author of machine-generated events.
const SystemActor = "(System)"

// GroupIndividualSubmissions is the fallback group for documents the RFC
// Editor reports without a meaningful working group.
const GroupIndividualSubmissions = "none"

// Document is the mutable record tracking one draft/RFC. Its storage is
// owned by this package; the sync core mutates it only through the Store.
type Document struct {
	ID            uint   `gorm:"column:id;primaryKey"`
	Name          string `gorm:"column:name;uniqueIndex"`
	Type          string `gorm:"column:type"` // "draft"
	Rev           string `gorm:"column:rev"`
	Title         string `gorm:"column:title"`
	Abstract      string `gorm:"column:abstract"`
	Pages         int    `gorm:"column:pages"`
	StdLevel      string `gorm:"column:std_level"`
	Stream        string `gorm:"column:stream"`
	Group         string `gorm:"column:group_acronym"`
	ActionHolders string `gorm:"column:action_holders"`
}

func (Document) TableName() string {
	return "documents"
}

// DocAlias is an alternate identifier (draft name, rfc number,
// secondary-standard number) resolving to one document.
type DocAlias struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	Name       string `gorm:"column:name;uniqueIndex"`
	DocumentID uint   `gorm:"column:document_id;index"`
}

func (DocAlias) TableName() string {
	return "doc_aliases"
}

// DocState is the current state of a document in one state-type namespace.
type DocState struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	DocumentID uint   `gorm:"column:document_id;index:idx_doc_state_type,unique"`
	Type       string `gorm:"column:type;index:idx_doc_state_type,unique"`
	Slug       string `gorm:"column:slug"`
}

func (DocState) TableName() string {
	return "doc_states"
}

// DocTag attaches one tag slug to a document.
type DocTag struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	DocumentID uint   `gorm:"column:document_id;index:idx_doc_tag,unique"`
	Slug       string `gorm:"column:slug;index:idx_doc_tag,unique"`
}

func (DocTag) TableName() string {
	return "doc_tags"
}

// DocEvent is an immutable append-only history entry. Events are only ever
// created, never updated.
type DocEvent struct {
	ID         uint      `gorm:"column:id;primaryKey"`
	DocumentID uint      `gorm:"column:document_id;index"`
	Rev        string    `gorm:"column:rev"`
	By         string    `gorm:"column:by"`
	Type       string    `gorm:"column:type;index"`
	Time       time.Time `gorm:"column:time"`
	Desc       string    `gorm:"column:description"`
}

func (DocEvent) TableName() string {
	return "doc_events"
}

// RelatedDocument is a directed edge from a document to a target alias.
// At most one edge exists per (source, target, relationship) triple.
type RelatedDocument struct {
	ID           uint   `gorm:"column:id;primaryKey"`
	SourceID     uint   `gorm:"column:source_id;index:idx_rel_triple,unique"`
	TargetAlias  string `gorm:"column:target_alias;index:idx_rel_triple,unique"`
	Relationship string `gorm:"column:relationship;index:idx_rel_triple,unique"`
}

func (RelatedDocument) TableName() string {
	return "related_documents"
}

// DocURL is a tagged URL attached to a document (e.g. the AUTH48 page).
type DocURL struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	DocumentID uint   `gorm:"column:document_id;index:idx_doc_url_tag,unique"`
	Tag        string `gorm:"column:tag;index:idx_doc_url_tag,unique"`
	URL        string `gorm:"column:url"`
}

func (DocURL) TableName() string {
	return "doc_urls"
}

// StateTypeLabel returns the human form of a state-type namespace used in
// change notes and event descriptions.
func StateTypeLabel(stateType string) string {
	switch stateType {
	case StateTypeDraft:
		return "Draft state"
	case StateTypeIESG:
		return "IESG state"
	case StateTypeRFCEditor:
		return "RFC Editor state"
	case StateTypeStreamIAB:
		return "IAB stream state"
	case StateTypeStreamIRTF:
		return "IRTF stream state"
	case StateTypeStreamISE:
		return "ISE stream state"
	default:
		return stateType
	}
}
