package rfced

import (
	"context"
	"testing"
	"time"

	"doc-sync/feature/docs"
	"doc-sync/feature/rfced/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func testIndexDeps(store *docs.Store, archiver Archiver, now time.Time) IndexDeps {
	return IndexDeps{
		Store:     store,
		Archiver:  archiver,
		Clock:     fixedClock{t: now},
		Logger:    zap.NewNop(),
		StdLevels: StdLevels(),
		Streams:   Streams(),
		Zone:      time.UTC,
	}
}

func indexEntryFixture() IndexEntry {
	return IndexEntry{
		RFCNumber: 9999,
		Title:     "An Example Protocol",
		Published: time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
		Status:    "Proposed Standard",
		Stream:    "IETF",
		Pages:     12,
		Abstract:  "This document describes an example protocol.",
	}
}

func TestUpdateDocsFromIndexCreatesDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	archiver := new(mocks.Archiver)
	archiver.On("MoveDraftFilesToArchive", mock.Anything, mock.Anything).Return(nil)

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{indexEntryFixture()}, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.Published)
	assert.Contains(t, res.Changes, "created document RFC 9999")
	assert.Contains(t, res.Changes, "created alias RFC 9999")
	assert.Contains(t, res.Changes, "changed title to 'An Example Protocol'")
	assert.Contains(t, res.Changes, "changed standardization level to ps")
	assert.Contains(t, res.Changes, "changed state to RFC")
	assert.Contains(t, res.Changes, "changed stream to ietf")
	archiver.AssertExpectations(t)

	doc, err := store.LookupAlias(ctx, "rfc9999")
	assert.NoError(t, err)
	if assert.NotNil(t, doc) {
		assert.Equal(t, "rfc9999", doc.Name)
		assert.Equal(t, 12, doc.Pages)
		assert.Equal(t, docs.GroupIndividualSubmissions, doc.Group)

		draftState, _ := store.GetState(ctx, doc, docs.StateTypeDraft)
		assert.Equal(t, docs.StateRFC, draftState)
		iesgState, _ := store.GetState(ctx, doc, docs.StateTypeIESG)
		assert.Equal(t, docs.StateIDExists, iesgState, "Unknown approval history gets initialized")

		published, _ := store.HasEvent(ctx, doc, docs.EventPublished)
		assert.True(t, published)
		synced, _ := store.HasEvent(ctx, doc, docs.EventSyncFromRFCEditor)
		assert.True(t, synced)
	}
}

func TestUpdateDocsFromIndexIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	archiver := new(mocks.Archiver)
	archiver.On("MoveDraftFilesToArchive", mock.Anything, mock.Anything).Return(nil)

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	entries := []IndexEntry{indexEntryFixture()}

	_, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now), entries, nil, nil)
	assert.NoError(t, err)

	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now), entries, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, results, "Second pass over identical data should be a no-op")
}

func TestUpdateDocsFromIndexResolvesDraft(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doc := seedDraft(t, store, "draft-ietf-example-protocol")
	assert.NoError(t, store.SetState(ctx, doc, docs.StateTypeIESG, docs.StateRFCQueue))

	archiver := new(mocks.Archiver)
	archiver.On("MoveDraftFilesToArchive", mock.Anything, mock.Anything).Return(nil)

	entry := indexEntryFixture()
	entry.Draft = "draft-ietf-example-protocol"

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{entry}, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "draft-ietf-example-protocol", results[0].Doc.Name,
		"The RFC attaches to the existing draft, not a new document")
	assert.NotContains(t, results[0].Changes, "created document RFC 9999")
	assert.Contains(t, results[0].Changes, "created alias RFC 9999")

	resolved, err := store.LookupAlias(ctx, "rfc9999")
	assert.NoError(t, err)
	if assert.NotNil(t, resolved) {
		assert.Equal(t, doc.ID, resolved.ID)

		iesgState, _ := store.GetState(ctx, resolved, docs.StateTypeIESG)
		assert.Equal(t, docs.StatePub, iesgState, "Approval track follows the publication")
	}
}

func TestUpdateDocsFromIndexRelations(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	old := seedDraft(t, store, "rfc1000")
	assert.NoError(t, store.EnsureAlias(ctx, "std99", old))

	archiver := new(mocks.Archiver)
	archiver.On("MoveDraftFilesToArchive", mock.Anything, mock.Anything).Return(nil)

	entry := indexEntryFixture()
	entry.Obsoletes = []string{"RFC1000", "STD99", "RFC424242"}
	entry.AlsoKnownAs = []string{"BCP99"}

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{entry}, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Changes, "created obsoletes relation between RFC 9999 and RFC 1000")
	assert.Contains(t, results[0].Changes, "created alias BCP 99")

	doc := results[0].Doc
	exists, err := store.RelationExists(ctx, doc, "rfc1000", docs.RelObsoletes)
	assert.NoError(t, err)
	assert.True(t, exists)

	// STD99 resolves through the alias chain back to rfc1000, which is
	// already linked; RFC424242 is unknown and dropped.
	assert.Equal(t, int64(1), countRelations(t, store, doc))

	// Second pass must not duplicate the edge.
	results, err = UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{entry}, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func countRelations(t *testing.T, store *docs.Store, doc *docs.Document) int64 {
	t.Helper()
	// RelationExists covers the known edge; the total comes from probing the
	// only candidates the fixture could have produced.
	var n int64
	for _, target := range []string{"rfc1000", "std99", "rfc424242"} {
		exists, err := store.RelationExists(context.Background(), doc, target, docs.RelObsoletes)
		assert.NoError(t, err)
		if exists {
			n++
		}
	}
	return n
}

func TestUpdateDocsFromIndexErrataTags(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	archiver := new(mocks.Archiver)
	archiver.On("MoveDraftFilesToArchive", mock.Anything, mock.Anything).Return(nil)

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	entry := indexEntryFixture()
	entry.HasErrata = true
	errata := []Erratum{
		{DocID: "RFC9999", Status: "Reported"},
		{DocID: "RFC9999", Status: ErrataVerified},
	}

	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{entry}, errata, nil)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Changes, "added Errata tag")
	assert.Contains(t, results[0].Changes, "added Verified Errata tag")

	doc := results[0].Doc
	tags, err := store.Tags(ctx, doc)
	assert.NoError(t, err)
	assert.Equal(t, []string{docs.TagErrata, docs.TagVerifiedErrata}, tags)

	// All errata rejected: both tags come off.
	errata = []Erratum{{DocID: "RFC9999", Status: ErrataRejected}}
	results, err = UpdateDocsFromIndex(ctx, testIndexDeps(store, archiver, now),
		[]IndexEntry{entry}, errata, nil)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Changes, "removed Errata tag (all errata rejected)")
	assert.Contains(t, results[0].Changes, "removed Verified Errata tag")

	tags, err = store.Tags(ctx, doc)
	assert.NoError(t, err)
	assert.Empty(t, tags)
}

func TestUpdateDocsFromIndexSkipOlderThan(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cutoff := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	results, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, new(mocks.Archiver), now),
		[]IndexEntry{indexEntryFixture()}, nil, &cutoff)
	assert.NoError(t, err)
	assert.Empty(t, results, "Entries published before the cutoff are skipped")
}

func TestUpdateDocsFromIndexUnknownStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	entry := indexEntryFixture()
	entry.Status = "Shiny New Level"

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	_, err := UpdateDocsFromIndex(ctx, testIndexDeps(store, new(mocks.Archiver), now),
		[]IndexEntry{entry}, nil, nil)
	assert.ErrorContains(t, err, "unknown standardization level")
}

func TestSynthesizePublicationTime(t *testing.T) {
	zone := time.UTC
	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("FarInThePast", func(t *testing.T) {
		now := time.Date(2024, time.September, 15, 10, 0, 0, 0, zone)
		got := synthesizePublicationTime(march, now, zone)
		assert.Equal(t, march, got, "Old publications pin to day 1")
	})

	t.Run("RecentPast", func(t *testing.T) {
		now := time.Date(2024, time.April, 5, 10, 0, 0, 0, zone)
		got := synthesizePublicationTime(march, now, zone)
		assert.Equal(t, time.March, got.Month())
		assert.Equal(t, 31, got.Day(), "Walking back from early April lands on the last of March")
	})

	t.Run("NearFuture", func(t *testing.T) {
		now := time.Date(2024, time.February, 20, 10, 0, 0, 0, zone)
		got := synthesizePublicationTime(march, now, zone)
		assert.Equal(t, time.March, got.Month())
		assert.Equal(t, 1, got.Day())
	})

	t.Run("SameMonth", func(t *testing.T) {
		now := time.Date(2024, time.March, 12, 10, 0, 0, 0, zone)
		got := synthesizePublicationTime(march, now, zone)
		assert.Equal(t, now, got, "Inside the published month, now is the best guess")
	})
}

func TestGroupErrata(t *testing.T) {
	grouped := GroupErrata([]Erratum{
		{DocID: "RFC0020", Status: "Reported"},
		{DocID: "RFC0020", Status: ErrataVerified},
		{DocID: "RFC9999", Status: ErrataRejected},
	})
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["RFC0020"], 2)
	assert.Len(t, grouped["RFC9999"], 1)
}
