package docs

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open sqlite db: %v", err)
	}

	store := NewStore(db, zap.NewNop())
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store, db
}

func mustCreate(t *testing.T, store *Store, name string) *Document {
	t.Helper()
	doc, err := store.CreateDocument(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return doc
}

func TestStoreAliases(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	doc := mustCreate(t, store, "draft-ietf-example")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-ietf-example", doc))
	assert.NoError(t, store.EnsureAlias(ctx, "rfc1234", doc))
	// Repeat call is a no-op, not a duplicate.
	assert.NoError(t, store.EnsureAlias(ctx, "rfc1234", doc))

	exists, err := store.AliasExists(ctx, "rfc1234")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.AliasExists(ctx, "rfc9999")
	assert.NoError(t, err)
	assert.False(t, exists)

	resolved, err := store.LookupAlias(ctx, "rfc1234")
	assert.NoError(t, err)
	if assert.NotNil(t, resolved) {
		assert.Equal(t, doc.ID, resolved.ID)
	}

	missing, err := store.LookupAlias(ctx, "rfc9999")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = store.DocumentByName(ctx, "draft-nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreDraftsByNames(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	a := mustCreate(t, store, "draft-a")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-a", a))
	assert.NoError(t, store.EnsureAlias(ctx, "rfc1111", a))
	b := mustCreate(t, store, "draft-b")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-b", b))

	found, err := store.DraftsByNames(ctx, []string{"draft-a", "rfc1111", "draft-missing"})
	assert.NoError(t, err)
	assert.Len(t, found, 1, "Both aliases resolve to the same document")
	assert.Contains(t, found, "draft-a")

	found, err = store.DraftsByNames(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestStoreRFCAliasesFor(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	doc := mustCreate(t, store, "rfc822")
	assert.NoError(t, store.EnsureAlias(ctx, "rfc822", doc))
	assert.NoError(t, store.EnsureAlias(ctx, "std11", doc))

	aliases, err := store.RFCAliasesFor(ctx, "std11")
	assert.NoError(t, err)
	assert.Equal(t, []string{"rfc822"}, aliases)

	aliases, err = store.RFCAliasesFor(ctx, "std12")
	assert.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestStoreStates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doc := mustCreate(t, store, "draft-ietf-example")

	slug, err := store.GetState(ctx, doc, StateTypeRFCEditor)
	assert.NoError(t, err)
	assert.Equal(t, "", slug)

	assert.NoError(t, store.SetState(ctx, doc, StateTypeRFCEditor, "edit"))
	assert.NoError(t, store.SetState(ctx, doc, StateTypeIESG, StateAnnounced))

	slug, err = store.GetState(ctx, doc, StateTypeRFCEditor)
	assert.NoError(t, err)
	assert.Equal(t, "edit", slug)

	// Setting again replaces instead of stacking.
	assert.NoError(t, store.SetState(ctx, doc, StateTypeRFCEditor, "auth48"))
	slug, _ = store.GetState(ctx, doc, StateTypeRFCEditor)
	assert.Equal(t, "auth48", slug)

	assert.NoError(t, store.UnsetState(ctx, doc, StateTypeRFCEditor))
	slug, _ = store.GetState(ctx, doc, StateTypeRFCEditor)
	assert.Equal(t, "", slug)

	// The other namespace is untouched.
	slug, _ = store.GetState(ctx, doc, StateTypeIESG)
	assert.Equal(t, StateAnnounced, slug)
}

func TestStoreTags(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doc := mustCreate(t, store, "draft-ietf-example")

	assert.NoError(t, store.AddTag(ctx, doc, TagIANA))
	assert.NoError(t, store.AddTag(ctx, doc, TagIANA))
	assert.NoError(t, store.AddTag(ctx, doc, TagRef))

	tags, err := store.Tags(ctx, doc)
	assert.NoError(t, err)
	assert.Equal(t, []string{TagIANA, TagRef}, tags)

	has, err := store.HasTag(ctx, doc, TagIANA)
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, store.SetTags(ctx, doc, []string{TagErrata}))
	tags, _ = store.Tags(ctx, doc)
	assert.Equal(t, []string{TagErrata}, tags)

	assert.NoError(t, store.RemoveTags(ctx, doc, TagErrata, TagRef))
	tags, _ = store.Tags(ctx, doc)
	assert.Empty(t, tags)
}

func TestStoreRelations(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doc := mustCreate(t, store, "rfc9999")

	exists, err := store.RelationExists(ctx, doc, "rfc1000", RelObsoletes)
	assert.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.CreateRelation(ctx, doc, "rfc1000", RelObsoletes))

	exists, err = store.RelationExists(ctx, doc, "rfc1000", RelObsoletes)
	assert.NoError(t, err)
	assert.True(t, exists)

	// Same target under a different relationship is a distinct edge.
	exists, err = store.RelationExists(ctx, doc, "rfc1000", RelUpdates)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreStaleQueueDocuments(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	inQueue := mustCreate(t, store, "draft-in-queue")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-in-queue", inQueue))
	assert.NoError(t, store.SetState(ctx, inQueue, StateTypeRFCEditor, "edit"))

	leftQueue := mustCreate(t, store, "draft-left-queue")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-left-queue", leftQueue))
	assert.NoError(t, store.SetState(ctx, leftQueue, StateTypeRFCEditor, "auth48"))

	noState := mustCreate(t, store, "draft-no-state")
	assert.NoError(t, store.EnsureAlias(ctx, "draft-no-state", noState))

	stale, err := store.StaleQueueDocuments(ctx, []string{"draft-in-queue"})
	assert.NoError(t, err)
	if assert.Len(t, stale, 1) {
		assert.Equal(t, "draft-left-queue", stale[0].Name)
	}
}

func TestStoreSaveWithHistory(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	doc := mustCreate(t, store, "draft-ietf-example")

	doc.Title = "An Example"
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	events := []*DocEvent{
		{Rev: doc.Rev, By: SystemActor, Type: EventPublished, Time: now, Desc: "RFC published"},
		{Rev: doc.Rev, By: SystemActor, Type: EventSyncFromRFCEditor, Time: now, Desc: "Received changes through RFC Editor sync"},
	}
	assert.NoError(t, store.SaveWithHistory(ctx, doc, events))

	reloaded, err := store.DocumentByName(ctx, "draft-ietf-example")
	assert.NoError(t, err)
	assert.Equal(t, "An Example", reloaded.Title)

	var count int64
	assert.NoError(t, db.Model(&DocEvent{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	has, err := store.HasEvent(ctx, doc, EventPublished)
	assert.NoError(t, err)
	assert.True(t, has)
}

func TestStoreDocURLs(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	doc := mustCreate(t, store, "draft-ietf-example")

	assert.NoError(t, store.UpsertDocURL(ctx, doc, URLTagAuth48, "http://example.com/one"))
	assert.NoError(t, store.UpsertDocURL(ctx, doc, URLTagAuth48, "http://example.com/two"))

	var urls []DocURL
	assert.NoError(t, db.Where("document_id = ?", doc.ID).Find(&urls).Error)
	if assert.Len(t, urls, 1, "Upsert replaces, never duplicates") {
		assert.Equal(t, "http://example.com/two", urls[0].URL)
	}

	assert.NoError(t, store.DeleteDocURL(ctx, doc, URLTagAuth48))
	assert.NoError(t, db.Where("document_id = ?", doc.ID).Find(&urls).Error)
	assert.Empty(t, urls)

	// Deleting an absent URL is fine.
	assert.NoError(t, store.DeleteDocURL(ctx, doc, URLTagAuth48))
}
