package rfced

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"doc-sync/feature/docs"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fixedClock pins reconciler time in tests.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

// newTestStore creates a migrated document store over an in-memory sqlite
// database unique to the test. The raw handle is returned too so tests can
// assert on rows the store does not read back.
func newTestStore(t *testing.T) (*docs.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open sqlite db: %v", err)
	}

	store := docs.NewStore(db, zap.NewNop())
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store, db
}

// seedDraft creates a draft document with its name alias.
func seedDraft(t *testing.T, store *docs.Store, name string) *docs.Document {
	t.Helper()

	doc, err := store.CreateDocument(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create document %s: %v", name, err)
	}
	if err := store.EnsureAlias(context.Background(), name, doc); err != nil {
		t.Fatalf("Failed to alias document %s: %v", name, err)
	}
	return doc
}
